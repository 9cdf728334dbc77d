// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - LogVisitRequest: ward_id, name, mode, desired_square_number, client_request_id
  - ProvisionWardRequest: ward_id, display_name

A null or absent desired_square_number means a bonus visit.

# Response Types

Types for JSON responses:

  - LogVisitResponse: success, duplicate, data (VisitResult)
  - VisitResult: visit_id, assigned_square_number, is_bonus_visit,
    collision_resolved, total_visits, squares_filled, total_bonus_visits
  - ProvisionWardResponse: ward, admin_key
  - WardWithStats, SquaresResponse, VisitsResponse: read views
  - ErrorResponse: error, kind, message

# Domain Types

  - Ward: tenant; scopes everything else
  - Square: one of SquaresPerWard (365) claimable slots
  - VisitRecord: immutable ledger entry
  - AggregateStats: per-ward counters
  - VisitEvent: published after a committed visit

# Constants

Modes:

	ModePhone = "phone"
	ModeKiosk = "kiosk"

Error kinds:

	KindValidation   = "validation_error"
	KindNotFound     = "not_found"
	KindConflict     = "conflict"
	KindTransient    = "transient_failure"
	KindUnauthorized = "unauthorized"
	KindInternal     = "internal"
*/
package models
