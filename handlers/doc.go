// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the square ledger API.

# Handler Types

  - VisitHandler: logs visits through the ledger.Allocator
  - WardHandler: ward provisioning and the read views
  - EventsHandler: Server-Sent Events stream of committed visits

Handlers are created via constructor functions:

	visits := handlers.NewVisitHandler(alloc, cfg)
	wards := handlers.NewWardHandler(store, cfg)

# Logging Visits

	POST /v1/temple/logVisit      → LogVisit
	POST /v1/temple/logBonusVisit → LogBonusVisit (desired square ignored)

The response is {success, duplicate, data}. A request carrying a
client_request_id that was already recorded returns the original visit with
duplicate=true. The client IP is hashed and stored with the user agent; neither
is ever returned.

# Errors

Ledger errors map onto statuses: validation 400, unknown ward 404, existing
ward 409, retry budget exhausted 503 with Retry-After. A full ward is not an
error; the visit is recorded as a bonus visit.

# Read Views

	POST /v1/wards                 → Provision (returns admin_key)
	GET  /v1/wards/{id}            → GetWard
	GET  /v1/wards/{id}/squares    → GetSquares
	GET  /v1/wards/{id}/stats      → GetStats
	GET  /v1/wards/{id}/visits     → ListVisits (requires X-Admin-Key)
	GET  /v1/wards/{id}/events     → Stream

Reads go to the database directly, so a visit is visible as soon as its
LogVisit call has returned.
*/
package handlers
