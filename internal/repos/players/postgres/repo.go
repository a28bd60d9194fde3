package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arcadeops/ledgercore/internal/repos/players"
)

var _ players.Players = (*playersRepo)(nil)

type playersRepo struct{ db *sql.DB }

func New(db *sql.DB) *playersRepo {
	return &playersRepo{db: db}
}

func (r *playersRepo) Exists(tx *sql.Tx, playerID int64) error {
	var exists bool

	err := tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)
	`, playerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return players.ErrPlayerNotFound
	}

	return nil
}

func (r *playersRepo) Get(ctx context.Context, playerID int64) (*players.Player, error) {
	p := players.Player{ID: playerID}

	err := r.db.QueryRowContext(ctx, `
		SELECT name, balance_cents, referrer_id, current_streak, last_activity_date
		FROM players
		WHERE id = $1
	`, playerID).Scan(&p.Name, &p.BalanceCents, &p.ReferrerID, &p.CurrentStreak, &p.LastActivityDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, players.ErrPlayerNotFound
		}

		return nil, fmt.Errorf("get player: %w", err)
	}

	return &p, nil
}

func (r *playersRepo) GetReferrerID(tx *sql.Tx, playerID int64) (*int64, error) {
	var referrerID *int64

	err := tx.QueryRow(`
		SELECT referrer_id FROM players WHERE id = $1
	`, playerID).Scan(&referrerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, players.ErrPlayerNotFound
		}

		return nil, fmt.Errorf("get referrer id: %w", err)
	}

	return referrerID, nil
}

func (r *playersRepo) LockForUpdate(tx *sql.Tx, playerID int64) (*players.Player, error) {
	p := players.Player{ID: playerID}

	err := tx.QueryRow(`
		SELECT name, balance_cents, referrer_id, current_streak, last_activity_date
		FROM players
		WHERE id = $1
		FOR UPDATE
	`, playerID).Scan(&p.Name, &p.BalanceCents, &p.ReferrerID, &p.CurrentStreak, &p.LastActivityDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, players.ErrPlayerNotFound
		}

		return nil, fmt.Errorf("lock player: %w", err)
	}

	return &p, nil
}
