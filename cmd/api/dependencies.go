package main

import (
	"context"
	"fmt"
	"log/slog"

	backuphandler "github.com/campaignops/media-sufficiency/internal/domain/backup/handler"
	gameplanhandler "github.com/campaignops/media-sufficiency/internal/domain/gameplan/handler"
	importhandler "github.com/campaignops/media-sufficiency/internal/domain/import/handler"
	importservice "github.com/campaignops/media-sufficiency/internal/domain/import/service"
	masterdatahandler "github.com/campaignops/media-sufficiency/internal/domain/masterdata/handler"

	"github.com/campaignops/media-sufficiency/internal/domain/backup"
	"github.com/campaignops/media-sufficiency/internal/domain/gameplan"
	"github.com/campaignops/media-sufficiency/internal/domain/governance"
	"github.com/campaignops/media-sufficiency/internal/domain/import/policy"
	"github.com/campaignops/media-sufficiency/internal/domain/import/session"
	"github.com/campaignops/media-sufficiency/internal/domain/masterdata"
	"github.com/campaignops/media-sufficiency/pkg/config"
	"github.com/campaignops/media-sufficiency/pkg/cron"
	"github.com/campaignops/media-sufficiency/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	MasterDataRepo masterdata.Repository
	GovernanceRepo governance.Repository
	GamePlanRepo   gameplan.Repository
	Sessions       session.Store

	// Services
	Loader        *masterdata.Loader
	ImportService *importservice.ImportService
	FullBackup    *backup.FullService
	ScopedBackup  *backup.ScopedService
	Scheduler     *cron.Scheduler

	// Handlers
	ImportHandler     *importhandler.ImportHandler
	GamePlanHandler   *gameplanhandler.GamePlanHandler
	BackupHandler     *backuphandler.BackupHandler
	MasterDataHandler *masterdatahandler.MasterDataHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.Open(ctx, d.Config.Database.Path, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database
	return nil
}

func (d *Dependencies) initRepositories() error {
	d.MasterDataRepo = masterdata.NewSQLRepository(d.DB.DB)
	d.GovernanceRepo = governance.NewSQLRepository(d.DB.DB)
	d.GamePlanRepo = gameplan.NewSQLRepository(d.DB.DB)

	sessions, err := session.NewFileStore(d.Config.Session.Dir)
	if err != nil {
		return fmt.Errorf("failed to init session store: %w", err)
	}
	d.Sessions = sessions

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initServices() error {
	d.Loader = masterdata.NewLoader(d.MasterDataRepo, d.Logger)

	full, err := backup.NewFullService(d.DB.Path, d.Config.Backup.Dir, d.Config.Backup.MaxFull, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to init full backup service: %w", err)
	}
	d.FullBackup = full

	scoped, err := backup.NewScopedService(d.GamePlanRepo, d.Config.Backup.Dir, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to init scoped backup service: %w", err)
	}
	d.ScopedBackup = scoped

	d.Scheduler = cron.NewScheduler(d.FullBackup, d.Config.Backup.ScheduleSpec, d.Config.Backup.StateFilePath, d.Logger)

	d.ImportService = importservice.NewImportService(
		d.MasterDataRepo,
		d.Loader,
		d.Sessions,
		d.GovernanceRepo,
		d.GamePlanRepo,
		d.ScopedBackup,
		policy.Config{
			Enabled:    d.Config.Policy.AutoCreateEnabled,
			OpenCycles: d.Config.Policy.OpenCycles,
		},
		d.Logger,
	)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger)
	d.GamePlanHandler = gameplanhandler.NewGamePlanHandler(d.GamePlanRepo, d.MasterDataRepo, d.Logger)
	d.BackupHandler = backuphandler.NewBackupHandler(d.FullBackup, d.ScopedBackup, d.Scheduler, d.Logger)
	d.MasterDataHandler = masterdatahandler.NewMasterDataHandler(d.Loader, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
