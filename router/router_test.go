// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/squareledger/events"
	"github.com/danielhkuo/squareledger/models"
	"github.com/danielhkuo/squareledger/testutil"
)

func setupRouter(t *testing.T) (*http.ServeMux, Deps) {
	t.Helper()
	conn, dbType := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	cfg.DatabaseType = dbType

	deps := Deps{DB: conn, Config: cfg, Registry: prometheus.NewRegistry()}
	return NewRouter(deps), deps
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := setupRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	expected := "squareledger API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := setupRouter(t)

	// 400, 401, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},
		{"GET", "/metrics"},
		{"POST", "/v1/temple/logVisit"},
		{"POST", "/v1/temple/logBonusVisit"},
		{"POST", "/v1/wards"},
		{"GET", "/v1/wards/test-ward"},
		{"GET", "/v1/wards/test-ward/squares"},
		{"GET", "/v1/wards/test-ward/stats"},
		{"GET", "/v1/wards/test-ward/visits"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	mux, _ := setupRouter(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"GET to logVisit", "GET", "/v1/temple/logVisit", http.StatusMethodNotAllowed},
		{"DELETE a ward", "DELETE", "/v1/wards/test-ward", http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestEventsRouteRequiresRedis(t *testing.T) {
	t.Run("without redis", func(t *testing.T) {
		mux, _ := setupRouter(t)

		req := httptest.NewRequest("GET", "/v1/wards/test-ward/events", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		// Falls through to "GET /"
		if w.Header().Get("Content-Type") == "text/event-stream" {
			t.Error("Expected no event stream without redis")
		}
	})

	t.Run("with redis", func(t *testing.T) {
		conn, dbType := testutil.SetupTestDB(t)
		cfg := testutil.GetTestConfig()
		cfg.DatabaseType = dbType

		mr := miniredis.RunT(t)
		client := events.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		mux := NewRouter(Deps{DB: conn, Config: cfg, Events: client})

		// Unknown ward resolves to the stream handler's 404
		req := httptest.NewRequest("GET", "/v1/wards/missing/events", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

// TestTempleDayWorkflow walks one ward through provisioning, a collision, a
// bonus visit and a replayed request, reading the views after each step.
func TestTempleDayWorkflow(t *testing.T) {
	mux, _ := setupRouter(t)

	do := func(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, headers))
		return w
	}

	// Provision
	w := do("POST", "/v1/wards", models.ProvisionWardRequest{WardID: "cedar-hills", DisplayName: "Cedar Hills Ward"}, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var provisioned models.ProvisionWardResponse
	testutil.AssertJSON(t, w, &provisioned)

	// Alice takes square 5
	w = do("POST", "/v1/temple/logVisit", map[string]interface{}{
		"ward_id": "cedar-hills", "name": "Alice", "mode": "kiosk", "desired_square_number": 5,
	}, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var alice models.LogVisitResponse
	testutil.AssertJSON(t, w, &alice)
	if alice.Data.AssignedSquareNumber == nil || *alice.Data.AssignedSquareNumber != 5 {
		t.Fatalf("Alice: expected square 5, got %+v", alice.Data)
	}

	// Bob also wants 5, gets the lowest free square
	bobReq := map[string]interface{}{
		"ward_id": "cedar-hills", "name": "Bob", "mode": "phone",
		"desired_square_number": 5, "client_request_id": "bob-phone-1",
	}
	w = do("POST", "/v1/temple/logVisit", bobReq, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var bob models.LogVisitResponse
	testutil.AssertJSON(t, w, &bob)
	if bob.Data.AssignedSquareNumber == nil || *bob.Data.AssignedSquareNumber != 1 || !bob.Data.CollisionResolved {
		t.Fatalf("Bob: expected square 1 with collision, got %+v", bob.Data)
	}

	// Carol has no square in mind
	w = do("POST", "/v1/temple/logBonusVisit", map[string]interface{}{
		"ward_id": "cedar-hills", "name": "Carol", "mode": "phone",
	}, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var carol models.LogVisitResponse
	testutil.AssertJSON(t, w, &carol)
	if !carol.Data.IsBonusVisit || carol.Data.TotalVisits != 3 {
		t.Fatalf("Carol: expected third visit as bonus, got %+v", carol.Data)
	}

	// Bob's phone retries after a dropped response
	w = do("POST", "/v1/temple/logVisit", bobReq, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var replay models.LogVisitResponse
	testutil.AssertJSON(t, w, &replay)
	if !replay.Duplicate || replay.Data.VisitID != bob.Data.VisitID {
		t.Fatalf("Replay: expected duplicate of %s, got %+v", bob.Data.VisitID, replay)
	}

	// Views reflect exactly three visits
	w = do("GET", "/v1/wards/cedar-hills", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var ward models.WardWithStats
	testutil.AssertJSON(t, w, &ward)
	if ward.Stats.TotalVisits != 3 || ward.Stats.SquaresFilled != 2 || ward.Stats.TotalBonusVisits != 1 {
		t.Errorf("Unexpected stats %+v", ward.Stats)
	}

	w = do("GET", "/v1/wards/cedar-hills/visits", nil, map[string]string{"X-Admin-Key": provisioned.AdminKey})
	testutil.AssertStatus(t, w, http.StatusOK)
	var ledgerResp models.VisitsResponse
	testutil.AssertJSON(t, w, &ledgerResp)
	if len(ledgerResp.Visits) != 3 {
		t.Errorf("Expected 3 ledger entries, got %d", len(ledgerResp.Visits))
	}

	// Metrics saw the outcomes
	w = do("GET", "/metrics", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	for _, want := range []string{
		`squareledger_visits_total{mode="kiosk",outcome="assigned"} 1`,
		`squareledger_visits_total{mode="phone",outcome="collision"} 1`,
		`squareledger_visits_total{mode="phone",outcome="bonus"} 1`,
		`squareledger_visits_total{mode="phone",outcome="duplicate"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics to contain %q", want)
		}
	}
}
