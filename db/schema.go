// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// Portable between sqlite and postgres: no server-side defaults for
// timestamps, every value is written by the application.
const schema = `
-- Wards
CREATE TABLE IF NOT EXISTS ward (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Squares (365 per ward)
CREATE TABLE IF NOT EXISTS square (
    ward_id TEXT NOT NULL REFERENCES ward(id) ON DELETE CASCADE,
    square_number INTEGER NOT NULL CHECK (square_number >= 1 AND square_number <= 365),
    claimed BOOLEAN NOT NULL DEFAULT FALSE,
    claimed_at TIMESTAMP,
    claimed_by_name TEXT,
    PRIMARY KEY (ward_id, square_number)
);

CREATE INDEX IF NOT EXISTS idx_square_free ON square(ward_id, claimed, square_number);

-- Visit ledger
CREATE TABLE IF NOT EXISTS visit (
    id TEXT PRIMARY KEY,
    ward_id TEXT NOT NULL REFERENCES ward(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    mode TEXT NOT NULL CHECK (mode IN ('phone', 'kiosk')),
    square_number INTEGER,
    is_bonus_visit BOOLEAN NOT NULL,
    collision_resolved BOOLEAN NOT NULL,
    client_request_id TEXT,
    ip_hash TEXT,
    user_agent TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (ward_id, client_request_id)
);

CREATE INDEX IF NOT EXISTS idx_visit_ward_created ON visit(ward_id, created_at);

-- Aggregate counters
CREATE TABLE IF NOT EXISTS ward_stats (
    ward_id TEXT PRIMARY KEY REFERENCES ward(id) ON DELETE CASCADE,
    total_visits INTEGER NOT NULL DEFAULT 0,
    total_bonus_visits INTEGER NOT NULL DEFAULT 0,
    squares_filled INTEGER NOT NULL DEFAULT 0,
    last_visit_at TIMESTAMP
);
`

// Tables lists every table in dependency order (leaves last).
var Tables = []string{"ward_stats", "visit", "square", "ward"}
