// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/squareledger/auth"
	"github.com/danielhkuo/squareledger/cliparse"
	"github.com/danielhkuo/squareledger/ledger"
	"github.com/danielhkuo/squareledger/middleware"
	"github.com/danielhkuo/squareledger/models"
)

const (
	defaultVisitLimit = 100
	maxVisitLimit     = 1000
)

type WardHandler struct {
	store *ledger.Store
	cfg   cliparse.Config
}

func NewWardHandler(store *ledger.Store, cfg cliparse.Config) *WardHandler {
	return &WardHandler{store: store, cfg: cfg}
}

// Provision handles POST /v1/wards
func (h *WardHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req models.ProvisionWardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ward, err := h.store.ProvisionWard(r.Context(), req.WardID, req.DisplayName)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.ProvisionWardResponse{
		Ward:     ward,
		AdminKey: auth.GenerateAdminKey(ward.ID, h.cfg.AdminKeySalt),
	})
}

// GetWard handles GET /v1/wards/{id}
func (h *WardHandler) GetWard(w http.ResponseWriter, r *http.Request) {
	wardID := r.PathValue("id")

	ward, err := h.store.Ward(r.Context(), wardID)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	stats, err := h.store.Stats(r.Context(), wardID)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.WardWithStats{Ward: ward, Stats: stats})
}

// GetSquares handles GET /v1/wards/{id}/squares
func (h *WardHandler) GetSquares(w http.ResponseWriter, r *http.Request) {
	wardID := r.PathValue("id")

	squares, err := h.store.Squares(r.Context(), wardID)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SquaresResponse{WardID: wardID, Squares: squares})
}

// GetStats handles GET /v1/wards/{id}/stats
func (h *WardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, stats)
}

// ListVisits handles GET /v1/wards/{id}/visits (requires X-Admin-Key)
func (h *WardHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	wardID := r.PathValue("id")

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(wardID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	limit := defaultVisitLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxVisitLimit {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	visits, err := h.store.Visits(r.Context(), wardID, limit)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VisitsResponse{WardID: wardID, Visits: visits})
}
