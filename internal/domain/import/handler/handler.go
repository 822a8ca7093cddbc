// Package handler exposes the import pipeline over HTTP.
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campaignops/media-sufficiency/internal/domain/import/parser"
	"github.com/campaignops/media-sufficiency/internal/domain/import/service"
	"github.com/campaignops/media-sufficiency/internal/domain/import/session"
	"github.com/campaignops/media-sufficiency/pkg/httputil"
)

// maxUploadBytes caps the multipart form size at 32 MiB; media plan files
// are a few thousand rows at most.
const maxUploadBytes = 32 << 20

// ImportHandler serves the upload/validate/commit endpoints.
type ImportHandler struct {
	svc    *service.ImportService
	logger *slog.Logger
}

func NewImportHandler(svc *service.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the import endpoints on r.
func (h *ImportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/imports", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/{id}/validate", h.Validate)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/commit", h.Commit)
	})
}

// Upload accepts a multipart form with the CSV file and its scope
// parameters and opens a session.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	sess, err := h.svc.Upload(r.Context(), service.UploadInput{
		FileName:       header.Filename,
		Country:        r.FormValue("country"),
		FinancialCycle: r.FormValue("financialCycle"),
		BusinessUnit:   r.FormValue("businessUnit"),
		Data:           data,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCountry),
			errors.Is(err, service.ErrMissingCycle),
			errors.Is(err, parser.ErrNoData):
			httputil.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("upload failed", slog.Any("error", err))
			httputil.Error(w, http.StatusInternalServerError, "upload failed")
		}
		return
	}

	httputil.JSON(w, http.StatusCreated, sess)
}

// Validate runs the checks for a session and returns it with issues and
// summary attached.
func (h *ImportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.svc.Validate(r.Context(), id)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, sess)
}

// Get returns the session as-is, validated or not.
func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, sess)
}

type commitRequest struct {
	SubmittedBy string `json:"submittedBy"`
}

// Commit replaces the scoped game plans with the session's rows.
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req commitRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r.Body, &req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.SubmittedBy == "" {
		req.SubmittedBy = "import"
	}

	result, err := h.svc.Commit(r.Context(), id, req.SubmittedBy)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			httputil.Error(w, http.StatusNotFound, "session not found")
		case errors.Is(err, service.ErrCriticalIssues):
			httputil.Error(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("commit failed", slog.Any("error", err))
			httputil.Error(w, http.StatusInternalServerError, "import failed")
		}
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

func (h *ImportHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ImportHandler) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		httputil.Error(w, http.StatusNotFound, "session not found")
		return
	}
	h.logger.Error("session request failed", slog.Any("error", err))
	httputil.Error(w, http.StatusInternalServerError, "internal error")
}
