// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/danielhkuo/squareledger/auth"
	"github.com/danielhkuo/squareledger/cliparse"
	"github.com/danielhkuo/squareledger/db"
	"github.com/danielhkuo/squareledger/ledger"
	"github.com/danielhkuo/squareledger/models"
)

// SetupTestDB creates a fresh test database with the full schema.
//
// By default this is a sqlite file in t.TempDir(). Set TEST_DATABASE_TYPE
// (postgres or pgx) and TEST_DATABASE_URL to run against Postgres; the
// tables are dropped first.
func SetupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	ctx := context.Background()

	dbType := os.Getenv("TEST_DATABASE_TYPE")
	url := os.Getenv("TEST_DATABASE_URL")
	if dbType == "" || dbType == db.TypeSQLite || url == "" {
		dbType = db.TypeSQLite
		url = "file:" + filepath.Join(t.TempDir(), "test.db") + "?" +
			"_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(OFF)&_pragma=foreign_keys(1)&_txlock=immediate"
	}

	conn, err := db.Open(ctx, dbType, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if dbType != db.TypeSQLite {
		for _, table := range db.Tables {
			if _, err := conn.Exec("DROP TABLE IF EXISTS " + table + " CASCADE"); err != nil {
				t.Fatalf("Failed to clean database: %v", err)
			}
		}
	}

	if err := db.CreateSchema(ctx, conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn, dbType
}

// SetupServerSQLite creates a sqlite file database opened with the same
// connection settings the server uses and returns it with its URL, so a test
// can open further connections to it.
func SetupServerSQLite(t *testing.T) (*sql.DB, string) {
	t.Helper()
	ctx := context.Background()

	url := "file:" + filepath.Join(t.TempDir(), "server.db")
	conn, err := db.Open(ctx, db.TypeSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(ctx, conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn, url
}

// HoldWriteLock takes the sqlite write lock on a separate connection to url
// and keeps it until release is called or the test ends.
func HoldWriteLock(t *testing.T, url string) (release func()) {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.TypeSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open second connection: %v", err)
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		t.Fatalf("Failed to begin locking transaction: %v", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM visit WHERE 1 = 0"); err != nil {
		tx.Rollback()
		conn.Close()
		t.Fatalf("Failed to take write lock: %v", err)
	}

	var once sync.Once
	release = func() {
		once.Do(func() {
			tx.Rollback()
			conn.Close()
		})
	}
	t.Cleanup(release)
	return release
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file::memory:",
		DatabaseType: db.TypeSQLite,
		AdminKeySalt: "test-admin-salt",
		MaxAttempts:  5,
	}
}

// CreateTestWard provisions a ward and returns its admin key under the test config salt.
func CreateTestWard(t *testing.T, conn *sql.DB, dbType, wardID string) string {
	t.Helper()
	store := ledger.NewStore(conn, dbType)
	if _, err := store.ProvisionWard(context.Background(), wardID, "Test "+wardID); err != nil {
		t.Fatalf("Failed to provision ward %s: %v", wardID, err)
	}
	return auth.GenerateAdminKey(wardID, GetTestConfig().AdminKeySalt)
}

// FillWard claims every square of a ward through the allocator, one visit per square.
func FillWard(t *testing.T, alloc *ledger.Allocator, wardID string) {
	t.Helper()
	ctx := context.Background()
	for n := 1; n <= models.SquaresPerWard; n++ {
		_, err := alloc.LogVisit(ctx, models.LogVisitRequest{
			WardID:              wardID,
			Name:                "Filler",
			Mode:                models.ModeKiosk,
			DesiredSquareNumber: IntPtr(n),
		})
		if err != nil {
			t.Fatalf("Failed to claim square %d: %v", n, err)
		}
	}
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
