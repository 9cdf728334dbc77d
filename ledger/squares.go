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

type scanner interface {
	Scan(dest ...any) error
}

func scanSquare(row scanner) (models.Square, error) {
	var sq models.Square
	if err := row.Scan(&sq.SquareNumber, &sq.Claimed, &sq.ClaimedAt, &sq.ClaimedByName); err != nil {
		return models.Square{}, fmt.Errorf("failed to scan square: %w", err)
	}
	return sq, nil
}

// getSquare reads one square. ok is false when the square does not exist.
func (s *Store) getSquare(ctx context.Context, q querier, wardID string, number int) (sq models.Square, ok bool, err error) {
	row := q.QueryRowContext(ctx, s.q(`
		SELECT square_number, claimed, claimed_at, claimed_by_name
		FROM square
		WHERE ward_id = ? AND square_number = ?
	`), wardID, number)
	sq, err = scanSquare(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Square{}, false, nil
	}
	if err != nil {
		return models.Square{}, false, err
	}
	return sq, true, nil
}

// claimSquare flips claimed from false to true. It returns errConflict when
// the square was claimed by someone else since it was read.
func (s *Store) claimSquare(ctx context.Context, q querier, wardID string, number int, name string, now time.Time) error {
	res, err := q.ExecContext(ctx, s.q(`
		UPDATE square
		SET claimed = ?, claimed_at = ?, claimed_by_name = ?
		WHERE ward_id = ? AND square_number = ? AND claimed = ?
	`), true, now, name, wardID, number, false)
	if err != nil {
		return fmt.Errorf("failed to claim square %d: %w", number, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to claim square %d: %w", number, err)
	}
	if n != 1 {
		return fmt.Errorf("square %d: %w", number, errConflict)
	}
	return nil
}

// firstFreeSquare returns the lowest-numbered unclaimed square.
func (s *Store) firstFreeSquare(ctx context.Context, q querier, wardID string) (int, bool, error) {
	var number int
	err := q.QueryRowContext(ctx, s.q(`
		SELECT square_number
		FROM square
		WHERE ward_id = ? AND claimed = ?
		ORDER BY square_number ASC
		LIMIT 1
	`), wardID, false).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to scan for free square: %w", err)
	}
	return number, true, nil
}
