package games

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/arcadeops/ledgercore/internal/infra/pgtestutil"
	"github.com/arcadeops/ledgercore/internal/repos/games"
)

func seedGame(t *testing.T, db *sql.DB, id, stock int64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO games (id, name, stock_points)
		VALUES ($1, 'firekirin', $2)
	`, id, stock)
	if err != nil {
		t.Fatalf("seed game %d: %v", id, err)
	}
}

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	fn(tx)

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestGames_AdjustStock(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedGame(t, db, 1, 600)

	repo := New(db)

	inTx(t, db, func(tx *sql.Tx) {
		newStock, err := repo.AdjustStock(tx, 1, -150)
		if err != nil {
			t.Fatalf("draw stock: %v", err)
		}
		if newStock != 450 {
			t.Fatalf("stock after draw = %d, want 450", newStock)
		}

		// No guard at this level; callers pre-check the draw.
		newStock, err = repo.AdjustStock(tx, 1, -700)
		if err != nil {
			t.Fatalf("overdraw stock: %v", err)
		}
		if newStock != -250 {
			t.Fatalf("stock after overdraw = %d, want -250", newStock)
		}
	})

	g, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.StockPoints != -250 {
		t.Fatalf("stock = %d, want -250", g.StockPoints)
	}
	if g.Status() != games.StatusDeficit {
		t.Fatalf("status = %s, want %s", g.Status(), games.StatusDeficit)
	}
}

func TestGames_AdjustStock_NotFound(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	inTx(t, db, func(tx *sql.Tx) {
		_, err := repo.AdjustStock(tx, 42, 10)
		if !errors.Is(err, games.ErrGameNotFound) {
			t.Fatalf("want ErrGameNotFound, got %v", err)
		}
	})
}

func TestStockStatusTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		points int64
		want   games.StockStatus
	}{
		{points: 1_000, want: games.StatusHealthy},
		{points: 501, want: games.StatusHealthy},
		{points: 500, want: games.StatusLowStock},
		{points: 1, want: games.StatusLowStock},
		{points: 0, want: games.StatusDeficit},
		{points: -40, want: games.StatusDeficit},
	}

	for _, tt := range tests {
		if got := games.Status(tt.points); got != tt.want {
			t.Errorf("Status(%d) = %s, want %s", tt.points, got, tt.want)
		}
	}
}
