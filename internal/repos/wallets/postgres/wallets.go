package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arcadeops/ledgercore/internal/repos/wallets"
)

var _ wallets.Wallets = (*walletsRepo)(nil)

type walletsRepo struct{ db *sql.DB }

func New(db *sql.DB) *walletsRepo {
	return &walletsRepo{db: db}
}

func (r *walletsRepo) Get(ctx context.Context, walletID int64) (*wallets.Wallet, error) {
	w := wallets.Wallet{ID: walletID}

	err := r.db.QueryRowContext(ctx, `
		SELECT method, name, balance_cents
		FROM wallets
		WHERE id = $1
	`, walletID).Scan(&w.Method, &w.Name, &w.BalanceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallets.ErrWalletNotFound
		}

		return nil, fmt.Errorf("get wallet: %w", err)
	}

	return &w, nil
}

func (r *walletsRepo) LockForUpdate(tx *sql.Tx, walletID int64) (*wallets.Wallet, error) {
	w := wallets.Wallet{ID: walletID}

	err := tx.QueryRow(`
		SELECT method, name, balance_cents
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`, walletID).Scan(&w.Method, &w.Name, &w.BalanceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallets.ErrWalletNotFound
		}

		return nil, fmt.Errorf("lock wallet: %w", err)
	}

	return &w, nil
}

func (r *walletsRepo) IncreaseBalance(tx *sql.Tx, walletID int64, amountCents int64) error {
	_, err := tx.Exec(`
		UPDATE wallets
		SET balance_cents = balance_cents + $2
		WHERE id = $1
	`, walletID, amountCents)
	if err != nil {
		return fmt.Errorf("increase wallet balance: %w", err)
	}

	return nil
}

func (r *walletsRepo) DecreaseBalance(tx *sql.Tx, walletID int64, amountCents int64) error {
	res, err := tx.Exec(`
		UPDATE wallets
		SET balance_cents = balance_cents - $2
		WHERE id = $1
		  AND balance_cents >= $2
	`, walletID, amountCents)
	if err != nil {
		return fmt.Errorf("decrease wallet balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return wallets.ErrInsufficientFunds
	}

	return nil
}

func (r *walletsRepo) ForceDecreaseBalance(tx *sql.Tx, walletID int64, amountCents int64) error {
	_, err := tx.Exec(`
		UPDATE wallets
		SET balance_cents = balance_cents - $2
		WHERE id = $1
	`, walletID, amountCents)
	if err != nil {
		return fmt.Errorf("force decrease wallet balance: %w", err)
	}

	return nil
}
