// Package backup implements the snapshot-before-destroy guards: raw copies
// of the whole database file and scoped JSON dumps of game-plan rows.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/campaignops/media-sufficiency/pkg/metrics"
)

const (
	fullBackupPrefix = "golden_rules_backup_"
	fullBackupSuffix = ".db"
)

// FullService copies the entire sqlite database file to a dated path and
// prunes old snapshots.
type FullService struct {
	dbPath string
	dir    string
	keep   int
	logger *slog.Logger
}

// NewFullService creates the backup directory if needed. keep bounds how
// many dated snapshots are retained (oldest deleted first).
func NewFullService(dbPath, dir string, keep int, logger *slog.Logger) (*FullService, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &FullService{dbPath: dbPath, dir: dir, keep: keep, logger: logger}, nil
}

// Run copies the database file to golden_rules_backup_{YYYY-MM-DD}.db and
// prunes snapshots beyond the retention limit. A second run on the same day
// overwrites that day's snapshot.
func (s *FullService) Run(ctx context.Context) (string, error) {
	name := fullBackupPrefix + time.Now().Format("2006-01-02") + fullBackupSuffix
	target := filepath.Join(s.dir, name)

	if err := copyFile(s.dbPath, target); err != nil {
		metrics.BackupsTotal.WithLabelValues("full", "error").Inc()
		return "", fmt.Errorf("failed to back up database: %w", err)
	}
	metrics.BackupsTotal.WithLabelValues("full", "success").Inc()

	if err := s.prune(); err != nil {
		// The snapshot itself succeeded; pruning failure is not fatal.
		s.logger.Warn("failed to prune old database backups", slog.Any("error", err))
	}

	s.logger.Info("database backup written", slog.String("file", target))
	return target, nil
}

// List returns the existing full-backup filenames, newest first.
func (s *FullService) List() ([]string, error) {
	files, err := s.backupFiles()
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.name)
	}
	return names, nil
}

type backupFile struct {
	name    string
	modTime time.Time
}

func (s *FullService) backupFiles() ([]backupFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup directory: %w", err)
	}

	var files []backupFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, fullBackupPrefix) || !strings.HasSuffix(name, fullBackupSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, backupFile{name: name, modTime: info.ModTime()})
	}
	return files, nil
}

// prune removes the oldest snapshots (by modification time) beyond keep.
func (s *FullService) prune() error {
	files, err := s.backupFiles()
	if err != nil {
		return err
	}
	if len(files) <= s.keep {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	for _, f := range files[:len(files)-s.keep] {
		if err := os.Remove(filepath.Join(s.dir, f.name)); err != nil {
			return fmt.Errorf("failed to delete old backup %s: %w", f.name, err)
		}
		s.logger.Debug("pruned old database backup", slog.String("file", f.name))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
