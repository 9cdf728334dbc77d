// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/squareledger/ledger"
	"github.com/danielhkuo/squareledger/middleware"
	"github.com/danielhkuo/squareledger/models"
)

// writeLedgerError translates an error from the ledger package into the
// JSON error envelope. Internal details are logged, never returned.
func writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch ledger.ErrorKind(err) {
	case models.KindValidation:
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case models.KindNotFound:
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case models.KindConflict:
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case models.KindTransient:
		// Safe to resubmit with the same client_request_id
		w.Header().Set("Retry-After", "1")
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Temporarily unable to record visit, please retry")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
