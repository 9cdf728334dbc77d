// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/squareledger/db"
	"github.com/danielhkuo/squareledger/models"
)

var wardIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// ProvisionWard creates a ward with all of its squares unclaimed and its
// counters at zero, in one transaction.
func (s *Store) ProvisionWard(ctx context.Context, wardID, displayName string) (models.Ward, error) {
	wardID = strings.TrimSpace(wardID)
	if !wardIDPattern.MatchString(wardID) {
		return models.Ward{}, &ValidationError{
			Field:   "ward_id",
			Message: "must be 2-63 lowercase letters, digits or dashes",
		}
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = wardID
	}
	if utf8.RuneCountInString(displayName) > maxNameLength {
		return models.Ward{}, &ValidationError{
			Field:   "display_name",
			Message: fmt.Sprintf("must be at most %d characters", maxNameLength),
		}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Ward{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.wardExists(ctx, tx, wardID)
	if err != nil {
		return models.Ward{}, err
	}
	if exists {
		return models.Ward{}, ErrWardExists
	}

	ward := models.Ward{ID: wardID, DisplayName: displayName, CreatedAt: time.Now().UTC()}
	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO ward (id, display_name, created_at) VALUES (?, ?, ?)
	`), ward.ID, ward.DisplayName, ward.CreatedAt)
	if db.IsUniqueViolation(err) {
		return models.Ward{}, ErrWardExists
	}
	if err != nil {
		return models.Ward{}, fmt.Errorf("failed to insert ward: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO square (ward_id, square_number, claimed) VALUES (?, ?, ?)
	`))
	if err != nil {
		return models.Ward{}, fmt.Errorf("failed to prepare square insert: %w", err)
	}
	defer stmt.Close()

	for n := 1; n <= models.SquaresPerWard; n++ {
		if _, err := stmt.ExecContext(ctx, ward.ID, n, false); err != nil {
			return models.Ward{}, fmt.Errorf("failed to insert square %d: %w", n, err)
		}
	}

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO ward_stats (ward_id, total_visits, total_bonus_visits, squares_filled)
		VALUES (?, 0, 0, 0)
	`), ward.ID)
	if err != nil {
		return models.Ward{}, fmt.Errorf("failed to insert stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return models.Ward{}, ErrWardExists
		}
		return models.Ward{}, fmt.Errorf("failed to commit ward: %w", err)
	}

	slog.Info("ward provisioned", "ward_id", ward.ID, "squares", models.SquaresPerWard)
	return ward, nil
}
