// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// SquaresPerWard is the fixed size of every ward's grid.
const SquaresPerWard = 365

// Visit mode constants
const (
	ModePhone = "phone"
	ModeKiosk = "kiosk"
)

// Error kinds reported in ErrorResponse.Kind
const (
	KindValidation   = "validation_error"
	KindNotFound     = "not_found"
	KindConflict     = "conflict"
	KindTransient    = "transient_failure"
	KindUnauthorized = "unauthorized"
	KindInternal     = "internal"
)

// Request types

// LogVisitRequest is the Allocator input. A nil DesiredSquareNumber is a
// bonus visit.
type LogVisitRequest struct {
	WardID              string  `json:"ward_id"`
	Name                string  `json:"name"`
	Mode                string  `json:"mode"`
	DesiredSquareNumber *int    `json:"desired_square_number"`
	ClientRequestID     *string `json:"client_request_id,omitempty"`

	// Fingerprint, filled in by the HTTP layer
	IPHash    string `json:"-"`
	UserAgent string `json:"-"`
}

type ProvisionWardRequest struct {
	WardID      string `json:"ward_id"`
	DisplayName string `json:"display_name"`
}

// Response types

// VisitResult is the Allocator output. On a replay (Duplicate) the visit
// fields are the original ones and the counters are the ward's current totals.
type VisitResult struct {
	VisitID              string `json:"visit_id"`
	AssignedSquareNumber *int   `json:"assigned_square_number"`
	IsBonusVisit         bool   `json:"is_bonus_visit"`
	CollisionResolved    bool   `json:"collision_resolved"`
	TotalVisits          int    `json:"total_visits"`
	SquaresFilled        int    `json:"squares_filled"`
	TotalBonusVisits     int    `json:"total_bonus_visits"`
	Duplicate            bool   `json:"-"`
}

type LogVisitResponse struct {
	Success   bool        `json:"success"`
	Duplicate bool        `json:"duplicate"`
	Data      VisitResult `json:"data"`
}

type ProvisionWardResponse struct {
	Ward     Ward   `json:"ward"`
	AdminKey string `json:"admin_key"`
}

type WardWithStats struct {
	Ward  Ward           `json:"ward"`
	Stats AggregateStats `json:"stats"`
}

type SquaresResponse struct {
	WardID  string   `json:"ward_id"`
	Squares []Square `json:"squares"`
}

type VisitsResponse struct {
	WardID string        `json:"ward_id"`
	Visits []VisitRecord `json:"visits"`
}

// Domain types

type Ward struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Square struct {
	SquareNumber  int        `json:"square_number"`
	Claimed       bool       `json:"claimed"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
	ClaimedByName *string    `json:"claimed_by_name,omitempty"`
}

// VisitRecord is a ledger entry. It is written once and never mutated.
type VisitRecord struct {
	ID                string    `json:"visit_id"`
	WardID            string    `json:"ward_id"`
	Name              string    `json:"name"`
	Mode              string    `json:"mode"`
	SquareNumber      *int      `json:"square_number"`
	IsBonusVisit      bool      `json:"is_bonus_visit"`
	CollisionResolved bool      `json:"collision_resolved"`
	ClientRequestID   *string   `json:"client_request_id,omitempty"`
	IPHash            *string   `json:"-"` // Never expose in JSON
	UserAgent         *string   `json:"-"` // Never expose in JSON
	CreatedAt         time.Time `json:"created_at"`
}

type AggregateStats struct {
	WardID           string     `json:"ward_id"`
	TotalVisits      int        `json:"total_visits"`
	TotalBonusVisits int        `json:"total_bonus_visits"`
	SquaresFilled    int        `json:"squares_filled"`
	LastVisitAt      *time.Time `json:"last_visit_at,omitempty"`
}

// VisitEvent is published after an Allocator transaction commits.
type VisitEvent struct {
	WardID string         `json:"ward_id"`
	Visit  VisitRecord    `json:"visit"`
	Stats  AggregateStats `json:"stats"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}
