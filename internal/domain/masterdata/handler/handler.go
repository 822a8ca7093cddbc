// Package handler exposes the master-data reference lists.
package handler

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/campaignops/media-sufficiency/internal/domain/masterdata"
	"github.com/campaignops/media-sufficiency/pkg/httputil"
)

// MasterDataHandler serves the reference names the grid UI offers as
// dropdown values.
type MasterDataHandler struct {
	loader *masterdata.Loader
	logger *slog.Logger
}

func NewMasterDataHandler(loader *masterdata.Loader, logger *slog.Logger) *MasterDataHandler {
	return &MasterDataHandler{loader: loader, logger: logger}
}

// RegisterRoutes mounts the master-data endpoint on r.
func (h *MasterDataHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/master-data", h.Get)
}

type response struct {
	Counts        masterdata.Counts `json:"counts"`
	Campaigns     []string          `json:"campaigns"`
	Ranges        []string          `json:"ranges"`
	MediaSubTypes []string          `json:"mediaSubTypes"`
}

// Get returns the current reference names and per-table counts. Built from
// a fresh snapshot so admin edits show up immediately.
func (h *MasterDataHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.loader.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load master data", slog.Any("error", err))
		httputil.Error(w, http.StatusInternalServerError, "failed to load master data")
		return
	}

	resp := response{
		Counts:        snapshot.Stats(),
		Campaigns:     sorted(snapshot.CampaignNames()),
		Ranges:        sorted(snapshot.RangeNames()),
		MediaSubTypes: sorted(snapshot.MediaSubTypeNames()),
	}
	httputil.JSON(w, http.StatusOK, resp)
}

func sorted(names []string) []string {
	sort.Strings(names)
	return names
}
