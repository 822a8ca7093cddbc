// Package handler serves game plan reads and exports.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campaignops/media-sufficiency/internal/domain/gameplan"
	"github.com/campaignops/media-sufficiency/internal/domain/masterdata"
	"github.com/campaignops/media-sufficiency/pkg/httputil"
)

// GamePlanHandler serves the scoped game plan list and export endpoints.
type GamePlanHandler struct {
	repo       gameplan.Repository
	masterData masterdata.Repository
	exporter   *gameplan.Exporter
	logger     *slog.Logger
}

func NewGamePlanHandler(repo gameplan.Repository, masterData masterdata.Repository, logger *slog.Logger) *GamePlanHandler {
	return &GamePlanHandler{
		repo:       repo,
		masterData: masterData,
		exporter:   gameplan.NewExporter(repo),
		logger:     logger,
	}
}

// RegisterRoutes mounts the game plan endpoints on r.
func (h *GamePlanHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/game-plans", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/export", h.Export)
	})
}

// List returns the resolved game plans for a country/cycle scope.
func (h *GamePlanHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeFromQuery(w, r)
	if !ok {
		return
	}

	plans, err := h.repo.ListResolved(r.Context(), *scope)
	if err != nil {
		h.logger.Error("failed to list game plans", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "failed to list game plans")
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"gamePlans": plans, "count": len(plans)})
}

// Export streams the scoped game plans as CSV or XLSX. The CSV uses the
// canonical import headers, so an export round-trips through upload.
func (h *GamePlanHandler) Export(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeFromQuery(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	stamp := time.Now().Format("2006-01-02")

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=game-plans-%s.csv", stamp))
		if err := h.exporter.ExportCSV(r.Context(), *scope, w); err != nil {
			h.logger.Error("csv export failed", slog.Any("error", err))
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=game-plans-%s.xlsx", stamp))
		if err := h.exporter.ExportXLSX(r.Context(), *scope, w); err != nil {
			h.logger.Error("xlsx export failed", slog.Any("error", err))
		}
	default:
		httputil.Error(w, http.StatusBadRequest, "format must be csv or xlsx")
	}
}

func (h *GamePlanHandler) scopeFromQuery(w http.ResponseWriter, r *http.Request) (*gameplan.Scope, bool) {
	q := r.URL.Query()
	countryName := strings.TrimSpace(q.Get("country"))
	cycleName := strings.TrimSpace(q.Get("financialCycle"))
	if countryName == "" || cycleName == "" {
		httputil.Error(w, http.StatusBadRequest, "country and financialCycle are required")
		return nil, false
	}

	country, err := h.masterData.GetCountryByName(r.Context(), countryName)
	if err != nil {
		h.lookupError(w, err, fmt.Sprintf("country %q not found", countryName))
		return nil, false
	}
	cycle, err := h.masterData.GetFinancialCycleByName(r.Context(), cycleName)
	if err != nil {
		h.lookupError(w, err, fmt.Sprintf("financial cycle %q not found", cycleName))
		return nil, false
	}

	scope := &gameplan.Scope{
		CountryID:          country.ID,
		FinancialCycleID:   cycle.ID,
		CountryName:        country.Name,
		FinancialCycleName: cycle.Name,
	}
	if buName := strings.TrimSpace(q.Get("businessUnit")); buName != "" {
		bu, err := h.masterData.GetBusinessUnitByName(r.Context(), buName)
		if err != nil {
			h.lookupError(w, err, fmt.Sprintf("business unit %q not found", buName))
			return nil, false
		}
		scope.BusinessUnitID = &bu.ID
		scope.BusinessUnitName = bu.Name
	}
	return scope, true
}

func (h *GamePlanHandler) lookupError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, masterdata.ErrNotFound) {
		httputil.Error(w, http.StatusNotFound, notFound)
		return
	}
	h.logger.Error("master data lookup failed", slog.Any("error", err))
	httputil.Error(w, http.StatusInternalServerError, "internal error")
}
