package wallets

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient wallet funds")
)

// Wallet is one sub-account of a payment method, e.g. the "main" PayPal
// account. Cashouts can only pay out money physically sitting in it.
type Wallet struct {
	ID           int64
	Method       string
	Name         string
	BalanceCents int64
}

type Wallets interface {
	Get(ctx context.Context, walletID int64) (*Wallet, error)
	LockForUpdate(tx *sql.Tx, walletID int64) (*Wallet, error)
	IncreaseBalance(tx *sql.Tx, walletID int64, amountCents int64) error
	DecreaseBalance(tx *sql.Tx, walletID int64, amountCents int64) error
	// ForceDecreaseBalance subtracts without the balance guard; used by the
	// undo engine when reversing a deposit's wallet leg.
	ForceDecreaseBalance(tx *sql.Tx, walletID int64, amountCents int64) error
}
