package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/campaignops/media-sufficiency/internal/domain/gameplan"
	"github.com/campaignops/media-sufficiency/pkg/metrics"
)

// Manifest is the scoped backup file format: a point-in-time dump of every
// game plan matching a (country, financial cycle[, business unit]) filter,
// with lookups resolved so the dump survives id churn.
type Manifest struct {
	Timestamp        time.Time           `json:"timestamp"`
	CountryID        string              `json:"countryId"`
	CountryName      string              `json:"countryName"`
	LastUpdateID     string              `json:"lastUpdateId"`
	LastUpdateName   string              `json:"lastUpdateName"`
	BusinessUnitID   string              `json:"businessUnitId,omitempty"`
	BusinessUnitName string              `json:"businessUnitName,omitempty"`
	Reason           string              `json:"reason"`
	RecordCount      int                 `json:"recordCount"`
	BackupFile       string              `json:"backupFile"`
	GamePlans        []gameplan.Resolved `json:"gamePlans"`
}

// RowFailure records one game plan that could not be restored.
type RowFailure struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Error string `json:"error"`
}

// RestoreReport is the outcome of a restore: how many rows came back and
// which failed. Partial restore is preferred over all-or-nothing since some
// referenced ids may no longer exist.
type RestoreReport struct {
	BackupFile string       `json:"backupFile"`
	Total      int          `json:"total"`
	Restored   int          `json:"restored"`
	Failed     []RowFailure `json:"failed,omitempty"`
}

// ScopedService dumps and restores game plans for one import scope.
type ScopedService struct {
	repo   gameplan.Repository
	dir    string
	logger *slog.Logger
}

func NewScopedService(repo gameplan.Repository, dir string, logger *slog.Logger) (*ScopedService, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &ScopedService{repo: repo, dir: dir, logger: logger}, nil
}

// Create dumps all rows in scope to a uniquely named JSON file and returns
// the manifest. An empty scope still produces a (zero-row) backup so the
// calling workflow can prove one exists before destroying anything.
func (s *ScopedService) Create(ctx context.Context, scope gameplan.Scope, reason string) (*Manifest, error) {
	plans, err := s.repo.ListResolved(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot game plans: %w", err)
	}

	now := time.Now().UTC()
	name := scopedBackupName(scope, now)

	manifest := &Manifest{
		Timestamp:      now,
		CountryID:      scope.CountryID.String(),
		CountryName:    scope.CountryName,
		LastUpdateID:   scope.FinancialCycleID.String(),
		LastUpdateName: scope.FinancialCycleName,
		Reason:         reason,
		RecordCount:    len(plans),
		BackupFile:     name,
		GamePlans:      plans,
	}
	if scope.BusinessUnitID != nil {
		manifest.BusinessUnitID = scope.BusinessUnitID.String()
		manifest.BusinessUnitName = scope.BusinessUnitName
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backup manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		metrics.BackupsTotal.WithLabelValues("scoped", "error").Inc()
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}
	metrics.BackupsTotal.WithLabelValues("scoped", "success").Inc()

	s.logger.Info("game plan backup written",
		slog.String("file", name),
		slog.Int("records", len(plans)),
		slog.String("reason", reason),
	)
	return manifest, nil
}

// Restore re-inserts the rows of a backup file. Individual row failures are
// logged and collected; the restore never aborts on one bad row.
func (s *ScopedService) Restore(ctx context.Context, fileName string) (*RestoreReport, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(fileName)))
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file %s: %w", fileName, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse backup file %s: %w", fileName, err)
	}

	report := &RestoreReport{
		BackupFile: fileName,
		Total:      len(manifest.GamePlans),
	}

	for i := range manifest.GamePlans {
		plan := manifest.GamePlans[i].GamePlan
		if err := s.repo.Insert(ctx, &plan); err != nil {
			s.logger.Warn("failed to restore game plan row",
				slog.Int("index", i),
				slog.String("id", plan.ID.String()),
				slog.Any("error", err),
			)
			report.Failed = append(report.Failed, RowFailure{
				Index: i,
				ID:    plan.ID.String(),
				Error: err.Error(),
			})
			continue
		}
		report.Restored++
	}

	s.logger.Info("game plan restore finished",
		slog.String("file", fileName),
		slog.Int("restored", report.Restored),
		slog.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// scopedBackupName builds
// game-plans-backup-{country}-{cycle}[-{businessUnit}]-{timestamp}.json.
func scopedBackupName(scope gameplan.Scope, ts time.Time) string {
	parts := []string{"game-plans-backup", sanitizeToken(scope.CountryName), sanitizeToken(scope.FinancialCycleName)}
	if scope.BusinessUnitID != nil && scope.BusinessUnitName != "" {
		parts = append(parts, sanitizeToken(scope.BusinessUnitName))
	}
	parts = append(parts, sanitizeToken(ts.Format(time.RFC3339)))
	return strings.Join(parts, "-") + ".json"
}

// sanitizeToken makes a name safe for filenames.
func sanitizeToken(s string) string {
	replacer := strings.NewReplacer(
		" ", "-",
		":", "-",
		"/", "-",
		"\\", "-",
		".", "-",
	)
	return replacer.Replace(strings.TrimSpace(s))
}
