// Package entries defines the append-only ledger log. Rows are written once
// and never change except for a single COMPLETED/PENDING -> CANCELLED status
// transition applied by the undo engine.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEntryNotFound  = errors.New("ledger entry not found")
	ErrDuplicateEntry = errors.New("duplicate ledger entry")
)

type Kind string

const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
	KindBonus      Kind = "BONUS"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Entry is one value movement. Amount is always positive; the direction is
// implied by Kind. The linkage fields (wallet, game, correlation id, stock
// draw) let the undo engine reverse the movement without re-deriving
// anything from note text.
type Entry struct {
	ID                 uuid.UUID
	PlayerID           int64
	Kind               Kind
	AmountCents        int64
	Status             Status
	WalletID           *int64
	WalletMethod       *string
	WalletName         *string
	GameID             *int64
	BalanceBeforeCents int64
	BalanceAfterCents  int64
	StockDrawPoints    int64
	CorrelationID      uuid.UUID
	Note               string
	CreatedAt          time.Time
}

// Filter narrows List results; nil/empty fields match everything.
type Filter struct {
	PlayerID      *int64
	Kind          *Kind
	Status        *Status
	CorrelationID *uuid.UUID
}

// Page is limit/offset pagination, newest entries first.
type Page struct {
	Limit  int
	Offset int
}

type Entries interface {
	Insert(tx *sql.Tx, e *Entry) error
	// LockForUpdate locks the entry row so a racing undo of the same entry
	// serializes behind this one.
	LockForUpdate(tx *sql.Tx, entryID uuid.UUID) (*Entry, error)
	// ListByCorrelation returns every entry sharing the correlation id,
	// the root event included, oldest first.
	ListByCorrelation(tx *sql.Tx, correlationID uuid.UUID) ([]Entry, error)
	MarkCancelled(tx *sql.Tx, entryID uuid.UUID) error
	List(ctx context.Context, f Filter, p Page) ([]Entry, error)
}
