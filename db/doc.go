// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles driver selection, schema creation, and error classification.

# Drivers

Open selects a database/sql driver from DATABASE_TYPE:

  - sqlite: modernc.org/sqlite (default; pure Go)
  - postgres: github.com/lib/pq
  - pgx: github.com/jackc/pgx/v5/stdlib

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

sqlite DSNs get busy_timeout, WAL, foreign keys and immediate transactions
appended unless the caller already supplied _pragma parameters.

Queries are written with ? placeholders; Rebind converts them to $N for the
postgres drivers.

# Schema Creation

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - ward: tenant metadata
  - square: 365 claimable slots per ward
  - visit: immutable visit ledger, unique on (ward_id, client_request_id)
  - ward_stats: aggregate counters, one row per ward

# Relationships

	ward 1──365 square
	ward 1──* visit
	ward 1──1 ward_stats

# Conflicts

IsTransient recognises errors that a whole-transaction retry can resolve:
postgres SQLSTATE 40001, 40P01, 55P03 and 23505 (from either driver), and
SQLITE_BUSY, SQLITE_LOCKED and unique violations from sqlite.
*/
package db
