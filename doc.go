// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the squareledger API server.

Squareledger records temple visits for wards. Every ward owns a grid of 365
squares; each visit claims the square the visitor asked for, falls back to the
lowest free square when that one is taken, or becomes a bonus visit once the
grid is full. Visits from phones and the kiosk arrive concurrently and are
deduplicated by client_request_id.

# Starting the Server

	DATABASE_URL=file:squares.db ADMIN_KEY_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): database connection string
  - ADMIN_KEY_SALT (-admin-salt): secret for ward admin keys and IP hashing

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or pgx (default: sqlite)
  - REDIS_URL (-redis): enables visit events and the SSE stream
  - ALLOC_MAX_ATTEMPTS (-max-attempts): transaction attempts per visit (default: 5)
  - ALLOC_TIMEOUT (-tx-timeout): bound on one visit including retries (default: 10s)

A .env file in the working directory is read first (-env-file to change it).

# Architecture

  - ledger: squares, visit ledger, aggregate counters and the allocator
  - db: drivers, schema, transient-error classification
  - events: Redis pub/sub for committed visits
  - metrics: Prometheus collectors
  - handlers, router, middleware: HTTP surface
  - auth: admin keys and IP hashing
  - cliparse: configuration parsing
  - cmd/wardctl: operator CLI

See package documentation for each component.
*/
package main
