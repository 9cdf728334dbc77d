// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/squareledger/auth"
	"github.com/danielhkuo/squareledger/cliparse"
	"github.com/danielhkuo/squareledger/ledger"
	"github.com/danielhkuo/squareledger/middleware"
	"github.com/danielhkuo/squareledger/models"
)

type VisitHandler struct {
	alloc *ledger.Allocator
	cfg   cliparse.Config
}

func NewVisitHandler(alloc *ledger.Allocator, cfg cliparse.Config) *VisitHandler {
	return &VisitHandler{alloc: alloc, cfg: cfg}
}

// LogVisit handles POST /v1/temple/logVisit
func (h *VisitHandler) LogVisit(w http.ResponseWriter, r *http.Request) {
	var req models.LogVisitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	h.logVisit(w, r, req)
}

// LogBonusVisit handles POST /v1/temple/logBonusVisit. Any desired square in
// the body is ignored.
func (h *VisitHandler) LogBonusVisit(w http.ResponseWriter, r *http.Request) {
	var req models.LogVisitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.DesiredSquareNumber = nil
	h.logVisit(w, r, req)
}

func (h *VisitHandler) logVisit(w http.ResponseWriter, r *http.Request, req models.LogVisitRequest) {
	// Fingerprint for abuse review (reuse admin salt for IP hashing)
	req.IPHash = auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)
	req.UserAgent = r.UserAgent()

	result, err := h.alloc.LogVisit(r.Context(), req)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LogVisitResponse{
		Success:   true,
		Duplicate: result.Duplicate,
		Data:      *result,
	})
}
