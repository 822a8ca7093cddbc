// Package cron runs the recurring full-database backup using robfig/cron.
package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/campaignops/media-sufficiency/internal/domain/backup"
)

// State is the scheduler's persisted bookkeeping. It lives in a small JSON
// file so an operator can see when the last backup ran without grepping
// logs, and survives restarts.
type State struct {
	Enabled    bool       `json:"enabled"`
	LastRunAt  *time.Time `json:"lastRunAt,omitempty"`
	LastStatus string     `json:"lastStatus,omitempty"`
	LastFile   string     `json:"lastFile,omitempty"`
	NextRunAt  *time.Time `json:"nextRunAt,omitempty"`
}

// Scheduler owns the recurring backup job. It is constructed and started
// explicitly at process start; nothing runs as an import side effect.
// One instance per process; multi-instance deployments each run their own
// schedule.
type Scheduler struct {
	cron      *cron.Cron
	backupSvc *backup.FullService
	spec      string
	statePath string
	logger    *slog.Logger

	mu      sync.Mutex
	state   State
	entryID cron.EntryID
}

// NewScheduler creates a backup scheduler. spec is a standard 5-field cron
// expression; the default configuration is "0 2 * * *" (daily at 02:00
// local time).
func NewScheduler(backupSvc *backup.FullService, spec, statePath string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	s := &Scheduler{
		cron:      c,
		backupSvc: backupSvc,
		spec:      spec,
		statePath: statePath,
		logger:    logger,
	}
	s.loadState()
	return s
}

// Start schedules the backup job and begins running.
func (s *Scheduler) Start() error {
	id, err := s.cron.AddFunc(s.spec, s.runBackup)
	if err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	s.entryID = id
	s.cron.Start()

	s.mu.Lock()
	s.state.Enabled = true
	next := s.cron.Entry(id).Next
	s.state.NextRunAt = &next
	s.persistStateLocked()
	s.mu.Unlock()

	s.logger.Info("backup scheduler started",
		slog.String("spec", s.spec),
		slog.Time("next_run", next),
	)
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("backup scheduler stopping")

	s.mu.Lock()
	s.state.Enabled = false
	s.state.NextRunAt = nil
	s.persistStateLocked()
	s.mu.Unlock()

	return s.cron.Stop()
}

// RunNow triggers a backup immediately without disturbing the schedule.
func (s *Scheduler) RunNow() {
	go s.runBackup()
}

// Snapshot returns a copy of the current scheduler state.
func (s *Scheduler) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// runBackup executes one backup and records the outcome. The next run is
// rescheduled by cron whether this one succeeded or failed.
func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	now := time.Now()
	file, err := s.backupSvc.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastRunAt = &now
	if err != nil {
		s.state.LastStatus = "failed: " + err.Error()
		s.logger.Error("scheduled backup failed", slog.Any("error", err))
	} else {
		s.state.LastStatus = "succeeded"
		s.state.LastFile = file
	}
	if s.entryID != 0 {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			s.state.NextRunAt = &next
		}
	}
	s.persistStateLocked()
}

func (s *Scheduler) loadState() {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("ignoring corrupt scheduler state file", slog.Any("error", err))
		return
	}
	s.state = st
}

func (s *Scheduler) persistStateLocked() {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.statePath), 0755); err != nil {
		s.logger.Warn("failed to create scheduler state directory", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(s.statePath, data, 0644); err != nil {
		s.logger.Warn("failed to persist scheduler state", slog.Any("error", err))
	}
}
