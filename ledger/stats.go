// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/squareledger/models"
)

func (s *Store) readStats(ctx context.Context, q querier, wardID string) (models.AggregateStats, error) {
	stats := models.AggregateStats{WardID: wardID}
	err := q.QueryRowContext(ctx, s.q(`
		SELECT total_visits, total_bonus_visits, squares_filled, last_visit_at
		FROM ward_stats
		WHERE ward_id = ?
	`), wardID).Scan(&stats.TotalVisits, &stats.TotalBonusVisits, &stats.SquaresFilled, &stats.LastVisitAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AggregateStats{}, ErrWardNotFound
	}
	if err != nil {
		return models.AggregateStats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	return stats, nil
}

// bumpStats applies one visit to the counters in place and returns the
// post-write row. The increment happens in SQL so concurrent writers merge
// instead of overwriting each other.
func (s *Store) bumpStats(ctx context.Context, q querier, wardID string, bonus bool, now time.Time) (models.AggregateStats, error) {
	bonusDelta, filledDelta := 0, 1
	if bonus {
		bonusDelta, filledDelta = 1, 0
	}

	res, err := q.ExecContext(ctx, s.q(`
		UPDATE ward_stats
		SET total_visits = total_visits + 1,
		    total_bonus_visits = total_bonus_visits + ?,
		    squares_filled = squares_filled + ?,
		    last_visit_at = ?
		WHERE ward_id = ?
	`), bonusDelta, filledDelta, now, wardID)
	if err != nil {
		return models.AggregateStats{}, fmt.Errorf("failed to update stats: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.AggregateStats{}, fmt.Errorf("failed to update stats: %w", err)
	} else if n != 1 {
		return models.AggregateStats{}, fmt.Errorf("stats row for ward %q: %w", wardID, ErrWardNotFound)
	}

	return s.readStats(ctx, q, wardID)
}
