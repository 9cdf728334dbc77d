// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/squareledger/db"
	"github.com/danielhkuo/squareledger/ledger"
	"github.com/danielhkuo/squareledger/models"
	"github.com/danielhkuo/squareledger/testutil"
)

func TestWriteLedgerError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedKind   string
		retryAfter     string
	}{
		{"validation", &ledger.ValidationError{Field: "mode", Message: "must be phone or kiosk"}, http.StatusBadRequest, models.KindValidation, ""},
		{"not found", ledger.ErrWardNotFound, http.StatusNotFound, models.KindNotFound, ""},
		{"ward exists", ledger.ErrWardExists, http.StatusConflict, models.KindConflict, ""},
		{"transient", &ledger.TransientError{Attempts: 5, Err: errors.New("database is locked")}, http.StatusServiceUnavailable, models.KindTransient, "1"},
		{"wrapped transient", fmt.Errorf("log visit: %w", &ledger.TransientError{Attempts: 1}), http.StatusServiceUnavailable, models.KindTransient, "1"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, models.KindInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/temple/logVisit", nil)
			w := httptest.NewRecorder()
			writeLedgerError(w, req, tt.err)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if got := w.Header().Get("Retry-After"); got != tt.retryAfter {
				t.Errorf("Expected Retry-After %q, got %q", tt.retryAfter, got)
			}

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Kind != tt.expectedKind {
				t.Errorf("Expected kind %q, got %q", tt.expectedKind, resp.Kind)
			}
			if tt.expectedStatus == http.StatusInternalServerError && resp.Message == tt.err.Error() {
				t.Error("Internal error details must not reach the client")
			}
		})
	}
}

func TestLogVisit_LockedStoreReturnsRetryable(t *testing.T) {
	conn, url := testutil.SetupServerSQLite(t)
	testutil.CreateTestWard(t, conn, db.TypeSQLite, "meadowview-1st")

	cfg := testutil.GetTestConfig()
	store := ledger.NewStore(conn, db.TypeSQLite)
	h := NewVisitHandler(ledger.NewAllocator(store, ledger.Options{Timeout: 300 * time.Millisecond}), cfg)

	testutil.HoldWriteLock(t, url)

	body := map[string]interface{}{
		"ward_id":               "meadowview-1st",
		"name":                  "Alice",
		"mode":                  "kiosk",
		"desired_square_number": 5,
		"client_request_id":     "kiosk-1-0001",
	}
	req := testutil.MakeRequest("POST", "/v1/temple/logVisit", body, nil)
	w := httptest.NewRecorder()

	start := time.Now()
	h.LogVisit(w, req)
	took := time.Since(start)

	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Expected Retry-After 1, got %q", got)
	}
	if took > 2*time.Second {
		t.Errorf("Expected the allocation timeout to bound the request, took %v", took)
	}

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Kind != models.KindTransient {
		t.Errorf("Expected kind %q, got %q", models.KindTransient, resp.Kind)
	}
}
