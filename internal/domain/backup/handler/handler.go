// Package handler exposes backup operations over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/campaignops/media-sufficiency/internal/domain/backup"
	"github.com/campaignops/media-sufficiency/pkg/cron"
	"github.com/campaignops/media-sufficiency/pkg/httputil"
)

// BackupHandler serves the full-backup and scoped-restore endpoints.
type BackupHandler struct {
	full      *backup.FullService
	scoped    *backup.ScopedService
	scheduler *cron.Scheduler
	logger    *slog.Logger
}

func NewBackupHandler(full *backup.FullService, scoped *backup.ScopedService, scheduler *cron.Scheduler, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{full: full, scoped: scoped, scheduler: scheduler, logger: logger}
}

// RegisterRoutes mounts the backup endpoints on r.
func (h *BackupHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/backups", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/run", h.Run)
		r.Get("/schedule", h.Schedule)
		r.Post("/restore", h.Restore)
	})
}

type listResponse struct {
	Backups []string `json:"backups"`
}

// List returns the retained full database backups, newest first.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.full.List()
	if err != nil {
		h.logger.Error("failed to list backups", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	httputil.JSON(w, http.StatusOK, listResponse{Backups: files})
}

// Run triggers an immediate full backup outside the nightly schedule.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	h.scheduler.RunNow()
	httputil.JSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// Schedule reports the scheduler state: last run, outcome, next run.
func (h *BackupHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.scheduler.Snapshot())
}

type restoreRequest struct {
	FileName string `json:"fileName"`
}

// Restore replays a scoped backup file row by row and reports what came
// back. Rows that no longer resolve are skipped, not fatal.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil || req.FileName == "" {
		httputil.Error(w, http.StatusBadRequest, "fileName is required")
		return
	}

	report, err := h.scoped.Restore(r.Context(), req.FileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			httputil.Error(w, http.StatusNotFound, "backup file not found")
			return
		}
		h.logger.Error("restore failed", slog.String("file", req.FileName), slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "restore failed")
		return
	}
	httputil.JSON(w, http.StatusOK, report)
}
