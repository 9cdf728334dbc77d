// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/squareledger/models"
)

const visitColumns = `id, ward_id, name, mode, square_number, is_bonus_visit,
		collision_resolved, client_request_id, ip_hash, user_agent, created_at`

func scanVisit(row scanner) (models.VisitRecord, error) {
	var v models.VisitRecord
	err := row.Scan(
		&v.ID, &v.WardID, &v.Name, &v.Mode, &v.SquareNumber, &v.IsBonusVisit,
		&v.CollisionResolved, &v.ClientRequestID, &v.IPHash, &v.UserAgent, &v.CreatedAt,
	)
	if err != nil {
		return models.VisitRecord{}, fmt.Errorf("failed to scan visit: %w", err)
	}
	return v, nil
}

// visitByRequestID looks up a prior visit logged under the same idempotency key.
func (s *Store) visitByRequestID(ctx context.Context, q querier, wardID, clientRequestID string) (models.VisitRecord, bool, error) {
	row := q.QueryRowContext(ctx, s.q(`
		SELECT `+visitColumns+`
		FROM visit
		WHERE ward_id = ? AND client_request_id = ?
	`), wardID, clientRequestID)
	v, err := scanVisit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VisitRecord{}, false, nil
	}
	if err != nil {
		return models.VisitRecord{}, false, err
	}
	return v, true, nil
}

func (s *Store) insertVisit(ctx context.Context, q querier, v models.VisitRecord) error {
	_, err := q.ExecContext(ctx, s.q(`
		INSERT INTO visit (`+visitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		v.ID, v.WardID, v.Name, v.Mode, nullInt(v.SquareNumber), v.IsBonusVisit,
		v.CollisionResolved, nullString(v.ClientRequestID), nullString(v.IPHash),
		nullString(v.UserAgent), v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
