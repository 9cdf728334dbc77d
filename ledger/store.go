// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/squareledger/db"
	"github.com/danielhkuo/squareledger/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQL home of the slot, ledger and aggregate stores. Its
// exported methods are the read views; all writes go through Allocator and
// ProvisionWard.
type Store struct {
	conn   *sql.DB
	dbType string
}

func NewStore(conn *sql.DB, dbType string) *Store {
	return &Store{conn: conn, dbType: dbType}
}

func (s *Store) q(query string) string {
	return db.Rebind(s.dbType, query)
}

// Ward returns a ward's metadata.
func (s *Store) Ward(ctx context.Context, wardID string) (models.Ward, error) {
	var ward models.Ward
	err := s.conn.QueryRowContext(ctx, s.q(`
		SELECT id, display_name, created_at FROM ward WHERE id = ?
	`), wardID).Scan(&ward.ID, &ward.DisplayName, &ward.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ward{}, ErrWardNotFound
	}
	if err != nil {
		return models.Ward{}, fmt.Errorf("failed to query ward: %w", err)
	}
	return ward, nil
}

// Stats returns the ward's aggregate counters as of the last commit.
func (s *Store) Stats(ctx context.Context, wardID string) (models.AggregateStats, error) {
	return s.readStats(ctx, s.conn, wardID)
}

// Squares returns all squares of a ward in ascending order.
func (s *Store) Squares(ctx context.Context, wardID string) ([]models.Square, error) {
	if _, err := s.Ward(ctx, wardID); err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx, s.q(`
		SELECT square_number, claimed, claimed_at, claimed_by_name
		FROM square
		WHERE ward_id = ?
		ORDER BY square_number ASC
	`), wardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query squares: %w", err)
	}
	defer rows.Close()

	squares := make([]models.Square, 0, models.SquaresPerWard)
	for rows.Next() {
		sq, err := scanSquare(rows)
		if err != nil {
			return nil, err
		}
		squares = append(squares, sq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate squares: %w", err)
	}
	return squares, nil
}

// Visits returns up to limit ledger entries, newest first.
func (s *Store) Visits(ctx context.Context, wardID string, limit int) ([]models.VisitRecord, error) {
	if _, err := s.Ward(ctx, wardID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	rows, err := s.conn.QueryContext(ctx, s.q(`
		SELECT `+visitColumns+`
		FROM visit
		WHERE ward_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), wardID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	visits := []models.VisitRecord{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}
	return visits, nil
}

// CheckConsistency verifies that the aggregate row agrees with the squares
// and the ledger.
func (s *Store) CheckConsistency(ctx context.Context, wardID string) error {
	stats, err := s.Stats(ctx, wardID)
	if err != nil {
		return err
	}

	var claimed, visits, bonus int
	err = s.conn.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM square WHERE ward_id = ? AND claimed = ?
	`), wardID, true).Scan(&claimed)
	if err != nil {
		return fmt.Errorf("failed to count claimed squares: %w", err)
	}
	err = s.conn.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*), COUNT(*) - COUNT(square_number) FROM visit WHERE ward_id = ?
	`), wardID).Scan(&visits, &bonus)
	if err != nil {
		return fmt.Errorf("failed to count visits: %w", err)
	}

	switch {
	case stats.SquaresFilled != claimed:
		return fmt.Errorf("squares_filled is %d but %d squares are claimed", stats.SquaresFilled, claimed)
	case stats.TotalVisits != visits:
		return fmt.Errorf("total_visits is %d but the ledger holds %d visits", stats.TotalVisits, visits)
	case stats.TotalBonusVisits != bonus:
		return fmt.Errorf("total_bonus_visits is %d but the ledger holds %d bonus visits", stats.TotalBonusVisits, bonus)
	case stats.TotalVisits != stats.TotalBonusVisits+stats.SquaresFilled:
		return fmt.Errorf("total_visits %d != bonus %d + filled %d", stats.TotalVisits, stats.TotalBonusVisits, stats.SquaresFilled)
	}
	return nil
}

func (s *Store) wardExists(ctx context.Context, q querier, wardID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM ward WHERE id = ?`), wardID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query ward: %w", err)
	}
	return n > 0, nil
}
