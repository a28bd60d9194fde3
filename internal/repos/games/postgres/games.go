package games

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arcadeops/ledgercore/internal/repos/games"
)

var _ games.Games = (*gamesRepo)(nil)

type gamesRepo struct{ db *sql.DB }

func New(db *sql.DB) *gamesRepo {
	return &gamesRepo{db: db}
}

func (r *gamesRepo) Get(ctx context.Context, gameID int64) (*games.Game, error) {
	g := games.Game{ID: gameID}

	err := r.db.QueryRowContext(ctx, `
		SELECT name, stock_points
		FROM games
		WHERE id = $1
	`, gameID).Scan(&g.Name, &g.StockPoints)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, games.ErrGameNotFound
		}

		return nil, fmt.Errorf("get game: %w", err)
	}

	return &g, nil
}

func (r *gamesRepo) LockForUpdate(tx *sql.Tx, gameID int64) (*games.Game, error) {
	g := games.Game{ID: gameID}

	err := tx.QueryRow(`
		SELECT name, stock_points
		FROM games
		WHERE id = $1
		FOR UPDATE
	`, gameID).Scan(&g.Name, &g.StockPoints)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, games.ErrGameNotFound
		}

		return nil, fmt.Errorf("lock game: %w", err)
	}

	return &g, nil
}

func (r *gamesRepo) AdjustStock(tx *sql.Tx, gameID int64, deltaPoints int64) (int64, error) {
	var stock int64

	err := tx.QueryRow(`
		UPDATE games
		SET stock_points = stock_points + $2
		WHERE id = $1
		RETURNING stock_points
	`, gameID, deltaPoints).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, games.ErrGameNotFound
		}

		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	return stock, nil
}
