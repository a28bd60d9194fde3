package players

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInsufficientFunds = errors.New("insufficient player funds")
)

// Player is the cash-balance account of one player. ReferrerID points at the
// player who referred them, if any; referral graphs can contain cycles, so
// the relation stays an id resolved on demand.
type Player struct {
	ID               int64
	Name             string
	BalanceCents     int64
	ReferrerID       *int64
	CurrentStreak    int
	LastActivityDate *time.Time
}

type Players interface {
	Exists(tx *sql.Tx, playerID int64) error
	Get(ctx context.Context, playerID int64) (*Player, error)
	// GetReferrerID reads the referrer link without locking. Callers use it
	// to fix a lock order before taking row locks on both players.
	GetReferrerID(tx *sql.Tx, playerID int64) (*int64, error)
	// LockForUpdate takes a row lock on the player and returns its current
	// state. Conflicting writers on the same player serialize here.
	LockForUpdate(tx *sql.Tx, playerID int64) (*Player, error)
	IncreaseBalance(tx *sql.Tx, playerID int64, amountCents int64) error
	// DecreaseBalance fails with ErrInsufficientFunds when the balance is
	// lower than amountCents; the guard runs inside the UPDATE itself.
	DecreaseBalance(tx *sql.Tx, playerID int64, amountCents int64) error
	// ForceDecreaseBalance subtracts without the balance guard. Compensating
	// reversals use it: undoing a deposit must land even if the player has
	// since spent the money.
	ForceDecreaseBalance(tx *sql.Tx, playerID int64, amountCents int64) error
	// SetStreak records a streak advance together with the activity date
	// that produced it.
	SetStreak(tx *sql.Tx, playerID int64, streak int, activityDate time.Time) error
	// ResetStreak zeroes the counter without touching the activity date.
	ResetStreak(tx *sql.Tx, playerID int64) error
}
