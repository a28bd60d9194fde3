package bonuses

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

var ErrRecordNotFound = errors.New("bonus record not found")

type BonusType string

const (
	TypeMatch    BonusType = "MATCH"
	TypeSpecial  BonusType = "SPECIAL"
	TypeStreak   BonusType = "STREAK"
	TypeReferral BonusType = "REFERRAL"
	TypeCustom   BonusType = "CUSTOM"
)

// Record is the claim-tracking companion of a BONUS ledger entry. Exactly
// one record exists per BONUS entry.
type Record struct {
	ID            int64
	TransactionID uuid.UUID
	Type          BonusType
	AmountCents   int64
	Claimed       bool
}

type Bonuses interface {
	Insert(tx *sql.Tx, rec *Record) error
	GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*Record, error)
	SetClaimed(ctx context.Context, transactionID uuid.UUID, claimed bool) error
}
