package games

import (
	"context"
	"database/sql"
	"errors"
)

var ErrGameNotFound = errors.New("game not found")

// StockStatus is derived from the point level on every read; it is never
// stored, so it cannot drift from the stock value.
type StockStatus string

const (
	StatusHealthy  StockStatus = "HEALTHY"
	StatusLowStock StockStatus = "LOW_STOCK"
	StatusDeficit  StockStatus = "DEFICIT"
)

const healthyThreshold = 500

// Status classifies a stock level: HEALTHY above 500 points, LOW_STOCK from
// 1 to 500, DEFICIT at zero or below.
func Status(stockPoints int64) StockStatus {
	switch {
	case stockPoints > healthyThreshold:
		return StatusHealthy
	case stockPoints > 0:
		return StatusLowStock
	default:
		return StatusDeficit
	}
}

// Game is a point-stock reserve bonuses draw from.
type Game struct {
	ID          int64
	Name        string
	StockPoints int64
}

func (g *Game) Status() StockStatus {
	return Status(g.StockPoints)
}

type Games interface {
	Get(ctx context.Context, gameID int64) (*Game, error)
	LockForUpdate(tx *sql.Tx, gameID int64) (*Game, error)
	// AdjustStock adds delta (negative to draw) and returns the new level.
	AdjustStock(tx *sql.Tx, gameID int64, deltaPoints int64) (int64, error)
}
