// Package service orchestrates the import pipeline: upload, validate,
// commit. It owns the session lifecycle and is the only layer that touches
// every domain package.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campaignops/media-sufficiency/internal/domain/backup"
	"github.com/campaignops/media-sufficiency/internal/domain/gameplan"
	"github.com/campaignops/media-sufficiency/internal/domain/governance"
	"github.com/campaignops/media-sufficiency/internal/domain/import/parser"
	"github.com/campaignops/media-sufficiency/internal/domain/import/policy"
	"github.com/campaignops/media-sufficiency/internal/domain/import/session"
	"github.com/campaignops/media-sufficiency/internal/domain/import/validator"
	"github.com/campaignops/media-sufficiency/internal/domain/masterdata"
	"github.com/campaignops/media-sufficiency/pkg/metrics"
)

var (
	// ErrMissingCountry is returned when an upload omits the country.
	ErrMissingCountry = errors.New("country is required")
	// ErrMissingCycle is returned when an upload omits the financial cycle.
	ErrMissingCycle = errors.New("financial cycle is required")
	// ErrCriticalIssues blocks a commit while critical issues remain.
	ErrCriticalIssues = errors.New("import blocked by critical issues")
)

// ImportService drives uploads end to end. Validation always runs against a
// freshly built master-data snapshot, so admin edits made between upload and
// commit are honored.
type ImportService struct {
	masterData masterdata.Repository
	loader     *masterdata.Loader
	sessions   session.Store
	governance governance.Repository
	plans      gameplan.Repository
	backups    *backup.ScopedService
	policyCfg  policy.Config
	logger     *slog.Logger
}

// NewImportService wires the import pipeline.
func NewImportService(
	masterData masterdata.Repository,
	loader *masterdata.Loader,
	sessions session.Store,
	gov governance.Repository,
	plans gameplan.Repository,
	backups *backup.ScopedService,
	policyCfg policy.Config,
	logger *slog.Logger,
) *ImportService {
	return &ImportService{
		masterData: masterData,
		loader:     loader,
		sessions:   sessions,
		governance: gov,
		plans:      plans,
		backups:    backups,
		policyCfg:  policyCfg,
		logger:     logger,
	}
}

// UploadInput carries one uploaded CSV and its scope parameters.
type UploadInput struct {
	FileName       string
	Country        string
	FinancialCycle string
	BusinessUnit   string
	Data           []byte
}

// Upload parses the file, snapshots master data and opens a session. The
// scope parameters are required up front; rows are not validated yet.
func (s *ImportService) Upload(ctx context.Context, in UploadInput) (*session.Session, error) {
	country := strings.TrimSpace(in.Country)
	cycle := strings.TrimSpace(in.FinancialCycle)
	if country == "" {
		return nil, ErrMissingCountry
	}
	if cycle == "" {
		return nil, ErrMissingCycle
	}

	result, err := parser.Parse(in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", in.FileName, err)
	}

	snapshot, err := s.loader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sess := &session.Session{
		ID:               uuid.New(),
		FileName:         in.FileName,
		Country:          country,
		FinancialCycle:   cycle,
		BusinessUnit:     strings.TrimSpace(in.BusinessUnit),
		RecordCount:      len(result.Records),
		Records:          result.Records,
		AliasedHeaders:   result.AliasedHeaders,
		MasterDataCounts: snapshot.Stats(),
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	metrics.UploadsTotal.Inc()
	s.logger.Info("upload accepted",
		slog.String("session_id", sess.ID.String()),
		slog.String("file", in.FileName),
		slog.String("country", country),
		slog.String("financial_cycle", cycle),
		slog.Int("records", sess.RecordCount))
	return sess, nil
}

// Validate runs the full check pipeline over the session's records and
// caches issues and summary on the session. Safe to call repeatedly; each
// call re-reads master data and governance state.
func (s *ImportService) Validate(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot, issues, summary, err := s.run(ctx, sess)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess.Issues = issues
	sess.Summary = &summary
	sess.ValidatedAt = &now
	sess.MasterDataCounts = snapshot.Stats()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store validation results: %w", err)
	}

	metrics.ValidationIssuesTotal.WithLabelValues(string(validator.SeverityCritical)).Add(float64(summary.Critical))
	metrics.ValidationIssuesTotal.WithLabelValues(string(validator.SeverityWarning)).Add(float64(summary.Warning))
	metrics.ValidationIssuesTotal.WithLabelValues(string(validator.SeveritySuggestion)).Add(float64(summary.Suggestion))

	s.logger.Info("validation finished",
		slog.String("session_id", sess.ID.String()),
		slog.Int("critical", summary.Critical),
		slog.Int("warnings", summary.Warning),
		slog.Int("suggestions", summary.Suggestion),
		slog.Bool("can_import", summary.CanImport))
	return sess, nil
}

// Get returns the session with whatever validation state it has.
func (s *ImportService) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	return s.sessions.Get(ctx, id)
}

// CommitResult reports what one commit did.
type CommitResult struct {
	SessionID  uuid.UUID           `json:"sessionId"`
	BackupFile string              `json:"backupFile"`
	Deleted    int                 `json:"deleted"`
	Imported   int                 `json:"imported"`
	Failures   []backup.RowFailure `json:"failures,omitempty"`
}

// Commit replaces the scoped game plans with the session's rows. The checks
// re-run first (cached results could be stale) and any critical issue
// aborts. The scope is backed up before the delete; a failed backup aborts
// the commit because the delete is irreversible without it. Row insert
// failures are collected, never fatal.
func (s *ImportService) Commit(ctx context.Context, id uuid.UUID, submittedBy string) (*CommitResult, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshot, issues, summary, err := s.run(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !summary.CanImport {
		metrics.ImportsTotal.WithLabelValues("blocked").Inc()
		return nil, fmt.Errorf("%w: %d critical issue(s)", ErrCriticalIssues, summary.Critical)
	}

	scope, err := s.resolveScope(ctx, sess)
	if err != nil {
		return nil, err
	}

	manifest, err := s.backups.Create(ctx, *scope, "pre-import")
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("backup_failed").Inc()
		return nil, fmt.Errorf("refusing to import without a backup: %w", err)
	}

	deleted, err := s.plans.DeleteScope(ctx, *scope)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to clear scope: %w", err)
	}

	result := &CommitResult{
		SessionID:  sess.ID,
		BackupFile: manifest.BackupFile,
		Deleted:    deleted,
	}
	for i := range sess.Records {
		rec := &sess.Records[i]
		plan, err := s.buildPlan(ctx, snapshot, scope, rec, submittedBy)
		if err == nil {
			err = s.plans.Insert(ctx, plan)
		}
		if err != nil {
			s.logger.Warn("row import failed",
				slog.String("session_id", sess.ID.String()),
				slog.Int("row", rec.Index),
				slog.Any("error", err))
			failure := backup.RowFailure{Index: rec.Index, Error: err.Error()}
			if plan != nil {
				failure.ID = plan.ID.String()
			}
			result.Failures = append(result.Failures, failure)
			continue
		}
		result.Imported++
	}

	now := time.Now().UTC()
	sess.Issues = issues
	sess.Summary = &summary
	sess.ValidatedAt = &now
	if err := s.sessions.Update(ctx, sess); err != nil {
		s.logger.Warn("failed to refresh session after commit", slog.Any("error", err))
	}

	metrics.ImportsTotal.WithLabelValues("success").Inc()
	s.logger.Info("import committed",
		slog.String("session_id", sess.ID.String()),
		slog.String("backup", manifest.BackupFile),
		slog.Int("deleted", deleted),
		slog.Int("imported", result.Imported),
		slog.Int("failed", len(result.Failures)))
	return result, nil
}

// run executes one validation pass against fresh master data and
// governance state.
func (s *ImportService) run(ctx context.Context, sess *session.Session) (*masterdata.Snapshot, []validator.Issue, validator.Summary, error) {
	snapshot, err := s.loader.Snapshot(ctx)
	if err != nil {
		return nil, nil, validator.Summary{}, err
	}
	prior, err := s.governance.PriorStatuses(ctx)
	if err != nil {
		return nil, nil, validator.Summary{}, err
	}

	evaluator := policy.NewEvaluator(s.policyCfg, sess.FinancialCycle, prior)
	v := validator.New(snapshot, evaluator, validator.Config{})
	issues := v.Validate(&parser.Result{
		Records:        sess.Records,
		AliasedHeaders: sess.AliasedHeaders,
	})
	return snapshot, issues, validator.Aggregate(issues), nil
}

// resolveScope maps the session's scope names to ids.
func (s *ImportService) resolveScope(ctx context.Context, sess *session.Session) (*gameplan.Scope, error) {
	country, err := s.masterData.GetCountryByName(ctx, sess.Country)
	if err != nil {
		return nil, fmt.Errorf("country %q: %w", sess.Country, err)
	}
	cycle, err := s.masterData.GetFinancialCycleByName(ctx, sess.FinancialCycle)
	if err != nil {
		return nil, fmt.Errorf("financial cycle %q: %w", sess.FinancialCycle, err)
	}

	scope := &gameplan.Scope{
		CountryID:          country.ID,
		FinancialCycleID:   cycle.ID,
		CountryName:        country.Name,
		FinancialCycleName: cycle.Name,
	}
	if sess.BusinessUnit != "" {
		bu, err := s.masterData.GetBusinessUnitByName(ctx, sess.BusinessUnit)
		if err != nil {
			return nil, fmt.Errorf("business unit %q: %w", sess.BusinessUnit, err)
		}
		scope.BusinessUnitID = &bu.ID
		scope.BusinessUnitName = bu.Name
	}
	return scope, nil
}

// buildPlan converts one validated record into a game plan row, creating
// pending-review campaigns and ranges on first reference.
func (s *ImportService) buildPlan(ctx context.Context, snapshot *masterdata.Snapshot, scope *gameplan.Scope, rec *parser.Record, submittedBy string) (*gameplan.GamePlan, error) {
	rangeName := rec.Get(parser.FieldRange)
	campaignName := rec.Get(parser.FieldCampaign)

	var rangeID uuid.UUID
	if rng, ok := snapshot.Ranges[masterdata.Key(rangeName)]; ok {
		rangeID = rng.ID
	} else {
		id, err := s.governance.EnsureRange(ctx, rangeName, submittedBy)
		if err != nil {
			return nil, err
		}
		rangeID = id
	}

	var campaignID uuid.UUID
	if c, ok := snapshot.Campaigns[masterdata.Key(campaignName)]; ok {
		campaignID = c.ID
	} else {
		id, err := s.governance.EnsureCampaign(ctx, campaignName, rangeID, submittedBy)
		if err != nil {
			return nil, err
		}
		campaignID = id
	}

	subType, ok := snapshot.MediaSubTypes[masterdata.Key(rec.Get(parser.FieldMediaSubtype))]
	if !ok {
		return nil, fmt.Errorf("media subtype %q vanished between validate and commit", rec.Get(parser.FieldMediaSubtype))
	}

	start, err := validator.ParseDate(rec.Get(parser.FieldStartDate))
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}
	end, err := validator.ParseDate(rec.Get(parser.FieldEndDate))
	if err != nil {
		return nil, fmt.Errorf("end date: %w", err)
	}

	now := time.Now().UTC()
	plan := &gameplan.GamePlan{
		ID:               uuid.New(),
		CountryID:        scope.CountryID,
		FinancialCycleID: scope.FinancialCycleID,
		BusinessUnitID:   scope.BusinessUnitID,
		CampaignID:       campaignID,
		MediaSubTypeID:   subType.ID,
		StartDate:        start,
		EndDate:          end,
		TotalBudget:      numberOrZero(rec.Get(parser.FieldTotalBudget)),
		Q1Budget:         optionalNumber(rec.Get(parser.FieldQ1Budget)),
		Q2Budget:         optionalNumber(rec.Get(parser.FieldQ2Budget)),
		Q3Budget:         optionalNumber(rec.Get(parser.FieldQ3Budget)),
		Q4Budget:         optionalNumber(rec.Get(parser.FieldQ4Budget)),
		TotalTRPs:        optionalNumber(rec.Get(parser.FieldTotalTRPs)),
		TotalR1Plus:      optionalPercentage(rec.Get(parser.FieldTotalR1Plus)),
		TotalR3Plus:      optionalPercentage(rec.Get(parser.FieldTotalR3Plus)),
		CreatedBy:        &submittedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if pt, ok := snapshot.PMTypes[masterdata.Key(rec.Get(parser.FieldPMType))]; ok {
		id := pt.ID
		plan.PMTypeID = &id
	}
	if year := rec.Get(parser.FieldYear); year != "" {
		if d, err := validator.ParseNumber(year); err == nil {
			y := int(d.IntPart())
			plan.Year = &y
		}
	}
	return plan, nil
}

// numberOrZero parses a budget value, treating unparseable or empty input as
// zero. Bad values were already reported as warnings during validation.
func numberOrZero(raw string) float64 {
	if raw == "" {
		return 0
	}
	d, err := validator.ParseNumber(raw)
	if err != nil {
		return 0
	}
	value, _ := d.Float64()
	return value
}

func optionalNumber(raw string) *float64 {
	if raw == "" {
		return nil
	}
	d, err := validator.ParseNumber(raw)
	if err != nil {
		return nil
	}
	value, _ := d.Float64()
	return &value
}

func optionalPercentage(raw string) *float64 {
	if raw == "" {
		return nil
	}
	value, err := validator.ParsePercentage(raw)
	if err != nil {
		return nil
	}
	return &value
}
