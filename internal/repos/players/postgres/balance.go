package players

import (
	"database/sql"
	"fmt"

	"github.com/arcadeops/ledgercore/internal/repos/players"
)

func (r *playersRepo) IncreaseBalance(tx *sql.Tx, playerID int64, amountCents int64) error {
	_, err := tx.Exec(`
		UPDATE players
		SET balance_cents = balance_cents + $2
		WHERE id = $1
	`, playerID, amountCents)
	if err != nil {
		return fmt.Errorf("increase balance: %w", err)
	}

	return nil
}

func (r *playersRepo) DecreaseBalance(tx *sql.Tx, playerID int64, amountCents int64) error {
	res, err := tx.Exec(`
		UPDATE players
		SET balance_cents = balance_cents - $2
		WHERE id = $1
		  AND balance_cents >= $2
	`, playerID, amountCents)
	if err != nil {
		return fmt.Errorf("decrease balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return players.ErrInsufficientFunds
	}

	return nil
}

func (r *playersRepo) ForceDecreaseBalance(tx *sql.Tx, playerID int64, amountCents int64) error {
	_, err := tx.Exec(`
		UPDATE players
		SET balance_cents = balance_cents - $2
		WHERE id = $1
	`, playerID, amountCents)
	if err != nil {
		return fmt.Errorf("force decrease balance: %w", err)
	}

	return nil
}
