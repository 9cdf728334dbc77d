// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielhkuo/squareledger/metrics"
	"github.com/danielhkuo/squareledger/models"
)

const (
	maxNameLength      = 100
	maxRequestIDLength = 128
	publishTimeout     = 2 * time.Second
)

// Notifier receives committed visits. Failures are logged, never surfaced to
// the caller: the visit is already durable when Notifier runs.
type Notifier interface {
	PublishVisit(ctx context.Context, ev models.VisitEvent) error
}

type Options struct {
	Retry RetryPolicy
	// Timeout bounds one LogVisit call including retries. Zero means the
	// caller's context is the only bound.
	Timeout  time.Duration
	Notifier Notifier
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Allocator assigns squares to visits. It holds no mutable state; all
// coordination between concurrent callers happens in the database.
type Allocator struct {
	store *Store
	opts  Options
}

func NewAllocator(store *Store, opts Options) *Allocator {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Allocator{store: store, opts: opts}
}

// allocation is the outcome of one committed (or replayed) transaction.
type allocation struct {
	result  models.VisitResult
	visit   models.VisitRecord
	stats   models.AggregateStats
	outcome string
}

// LogVisit records one visit. Exactly one of three things happens: a square
// is claimed, a bonus visit is logged, or a prior visit with the same
// client_request_id is replayed with Duplicate set.
func (a *Allocator) LogVisit(ctx context.Context, req models.LogVisitRequest) (*models.VisitResult, error) {
	start := time.Now()

	req, err := normalizeRequest(req)
	if err != nil {
		a.opts.Metrics.ObserveFailure(ErrorKind(err), time.Since(start))
		return nil, err
	}

	exists, err := a.store.wardExists(ctx, a.store.conn, req.WardID)
	if err == nil && !exists {
		err = ErrWardNotFound
	}
	if err != nil {
		a.opts.Metrics.ObserveFailure(ErrorKind(err), time.Since(start))
		return nil, err
	}

	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	var alloc allocation
	attempts, err := runWithRetry(ctx, a.opts.Retry, func() error {
		var err error
		alloc, err = a.attempt(ctx, req)
		return err
	}, func(error) { a.opts.Metrics.ObserveRetry() })
	if err != nil {
		a.opts.Metrics.ObserveFailure(ErrorKind(err), time.Since(start))
		slog.Error("failed to log visit", "ward_id", req.WardID, "attempts", attempts, "error", err)
		return nil, err
	}

	a.opts.Metrics.ObserveVisit(req.Mode, alloc.outcome, time.Since(start))

	if alloc.result.Duplicate {
		slog.Info("duplicate visit request", "ward_id", req.WardID, "visit_id", alloc.result.VisitID)
		return &alloc.result, nil
	}

	square := 0 // bonus
	if n := alloc.visit.SquareNumber; n != nil {
		square = *n
	}
	slog.Info("visit logged",
		"ward_id", req.WardID,
		"visit_id", alloc.result.VisitID,
		"outcome", alloc.outcome,
		"square", square,
		"attempts", attempts,
	)
	a.publish(ctx, alloc)

	return &alloc.result, nil
}

// attempt runs the whole allocation in a single transaction. Nothing is
// observed or mutated outside it, so a failed attempt can be re-run as is.
func (a *Allocator) attempt(ctx context.Context, req models.LogVisitRequest) (allocation, error) {
	tx, err := a.store.conn.BeginTx(ctx, nil)
	if err != nil {
		return allocation{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	wardID := req.WardID

	// Idempotency check lives inside the transaction; checked outside it two
	// concurrent replays could both miss and both write.
	if req.ClientRequestID != nil {
		prior, found, err := a.store.visitByRequestID(ctx, tx, wardID, *req.ClientRequestID)
		if err != nil {
			return allocation{}, err
		}
		if found {
			stats, err := a.store.readStats(ctx, tx, wardID)
			if err != nil {
				return allocation{}, err
			}
			return allocation{
				result:  resultFor(prior, stats, true),
				visit:   prior,
				stats:   stats,
				outcome: metrics.OutcomeDuplicate,
			}, nil
		}
	}

	now := a.opts.Now().UTC()
	var assigned *int
	collision := false
	outcome := metrics.OutcomeBonus

	if req.DesiredSquareNumber != nil {
		desired := *req.DesiredSquareNumber
		sq, ok, err := a.store.getSquare(ctx, tx, wardID, desired)
		if err != nil {
			return allocation{}, err
		}

		if ok && !sq.Claimed {
			if err := a.store.claimSquare(ctx, tx, wardID, desired, req.Name, now); err != nil {
				return allocation{}, err
			}
			assigned = &desired
			outcome = metrics.OutcomeAssigned
		} else {
			free, found, err := a.store.firstFreeSquare(ctx, tx, wardID)
			if err != nil {
				return allocation{}, err
			}
			if found {
				if err := a.store.claimSquare(ctx, tx, wardID, free, req.Name, now); err != nil {
					return allocation{}, err
				}
				assigned = &free
				collision = true
				outcome = metrics.OutcomeCollision
			} else {
				// Every square is claimed: the visit still counts, as a bonus.
				outcome = metrics.OutcomeExhausted
			}
		}
	}

	visit := models.VisitRecord{
		ID:                uuid.NewString(),
		WardID:            wardID,
		Name:              req.Name,
		Mode:              req.Mode,
		SquareNumber:      assigned,
		IsBonusVisit:      assigned == nil,
		CollisionResolved: collision,
		ClientRequestID:   req.ClientRequestID,
		IPHash:            optional(req.IPHash),
		UserAgent:         optional(req.UserAgent),
		CreatedAt:         now,
	}
	if err := a.store.insertVisit(ctx, tx, visit); err != nil {
		return allocation{}, err
	}

	stats, err := a.store.bumpStats(ctx, tx, wardID, visit.IsBonusVisit, now)
	if err != nil {
		return allocation{}, err
	}

	if err := tx.Commit(); err != nil {
		return allocation{}, fmt.Errorf("failed to commit visit: %w", err)
	}

	return allocation{
		result:  resultFor(visit, stats, false),
		visit:   visit,
		stats:   stats,
		outcome: outcome,
	}, nil
}

func (a *Allocator) publish(ctx context.Context, alloc allocation) {
	if a.opts.Notifier == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	ev := models.VisitEvent{WardID: alloc.visit.WardID, Visit: alloc.visit, Stats: alloc.stats}
	if err := a.opts.Notifier.PublishVisit(pctx, ev); err != nil {
		slog.Warn("failed to publish visit event", "ward_id", ev.WardID, "visit_id", ev.Visit.ID, "error", err)
	}
}

func resultFor(v models.VisitRecord, stats models.AggregateStats, duplicate bool) models.VisitResult {
	return models.VisitResult{
		VisitID:              v.ID,
		AssignedSquareNumber: v.SquareNumber,
		IsBonusVisit:         v.SquareNumber == nil,
		CollisionResolved:    v.CollisionResolved,
		TotalVisits:          stats.TotalVisits,
		SquaresFilled:        stats.SquaresFilled,
		TotalBonusVisits:     stats.TotalBonusVisits,
		Duplicate:            duplicate,
	}
}

// normalizeRequest trims and validates input before any transaction opens.
func normalizeRequest(req models.LogVisitRequest) (models.LogVisitRequest, error) {
	req.WardID = strings.TrimSpace(req.WardID)
	if req.WardID == "" {
		return req, &ValidationError{Field: "ward_id", Message: "is required"}
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return req, &ValidationError{Field: "name", Message: "is required"}
	}
	if utf8.RuneCountInString(req.Name) > maxNameLength {
		return req, &ValidationError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", maxNameLength)}
	}

	if req.Mode != models.ModePhone && req.Mode != models.ModeKiosk {
		return req, &ValidationError{Field: "mode", Message: "must be phone or kiosk"}
	}

	if d := req.DesiredSquareNumber; d != nil && (*d < 1 || *d > models.SquaresPerWard) {
		return req, &ValidationError{
			Field:   "desired_square_number",
			Message: fmt.Sprintf("must be between 1 and %d", models.SquaresPerWard),
		}
	}

	if req.ClientRequestID != nil {
		id := strings.TrimSpace(*req.ClientRequestID)
		switch {
		case id == "":
			req.ClientRequestID = nil
		case len(id) > maxRequestIDLength:
			return req, &ValidationError{
				Field:   "client_request_id",
				Message: fmt.Sprintf("must be at most %d bytes", maxRequestIDLength),
			}
		default:
			req.ClientRequestID = &id
		}
	}

	return req, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
