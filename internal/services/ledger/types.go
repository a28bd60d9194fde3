package ledger

import (
	"github.com/google/uuid"

	"github.com/arcadeops/ledgercore/internal/repos/bonuses"
	"github.com/arcadeops/ledgercore/internal/repos/entries"
	"github.com/arcadeops/ledgercore/internal/repos/games"
)

// BonusFlags selects which deposit bonuses to cascade.
type BonusFlags struct {
	Match    bool
	Special  bool
	Referral bool
}

func (f BonusFlags) Any() bool {
	return f.Match || f.Special || f.Referral
}

type DepositInput struct {
	PlayerID    int64
	AmountCents int64
	WalletID    int64
	GameID      *int64
	Bonuses     BonusFlags
	Note        string
}

type CashoutInput struct {
	PlayerID    int64
	AmountCents int64
	WalletID    int64
	Note        string
}

type GrantInput struct {
	PlayerID    int64
	AmountCents int64
	GameID      int64
	Type        bonuses.BonusType
	Note        string
}

// PlayerBalance is a before/after snapshot of one player's cash balance.
type PlayerBalance struct {
	PlayerID    int64
	BeforeCents int64
	AfterCents  int64
	Streak      int
}

type WalletBalance struct {
	WalletID    int64
	Method      string
	Name        string
	BeforeCents int64
	AfterCents  int64
}

// GameStockView reports a stock level with its derived status.
type GameStockView struct {
	GameID       int64
	BeforePoints int64
	AfterPoints  int64
	Status       games.StockStatus
}

type DepositResult struct {
	Entry        entries.Entry
	BonusEntries []entries.Entry
	Player       PlayerBalance
	Referrer     *PlayerBalance
	Wallet       WalletBalance
	Game         *GameStockView
}

type CashoutResult struct {
	Entry  entries.Entry
	Player PlayerBalance
	Wallet WalletBalance
}

type GrantResult struct {
	BonusEntries []entries.Entry
	Player       PlayerBalance
	Referrer     *PlayerBalance
	Game         GameStockView
}

type UndoResult struct {
	RootEntryID       uuid.UUID
	CancelledEntryIDs []uuid.UUID
	Players           []PlayerBalance
	Wallet            *WalletBalance
	GamesRestored     []GameStockView
}
