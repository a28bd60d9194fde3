package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/arcadeops/ledgercore/internal/events"
	"github.com/arcadeops/ledgercore/internal/infra/metrics"
	"github.com/arcadeops/ledgercore/internal/infra/pgutils"
	"github.com/arcadeops/ledgercore/internal/repos/entries"
)

// Cashout debits the player and the wallet symmetrically. Both balances are
// pre-checked against their locked values so the rejection can name the
// deficient side with exact amounts; no bonus cascade is ever attached.
func (s *Service) Cashout(ctx context.Context, in CashoutInput) (res *CashoutResult, err error) {
	defer func() { s.observe(metrics.OpCashout, err) }()

	err = validateCashout(in)
	if err != nil {
		return nil, err
	}

	var (
		out CashoutResult
		ev  events.Event
	)

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		player, err := s.players.LockForUpdate(tx, in.PlayerID)
		if err != nil {
			return fmt.Errorf("lock player: %w", err)
		}

		wallet, err := s.wallets.LockForUpdate(tx, in.WalletID)
		if err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}

		if player.BalanceCents < in.AmountCents {
			return &InsufficientError{
				Resource:  "player",
				Available: player.BalanceCents,
				Requested: in.AmountCents,
			}
		}

		if wallet.BalanceCents < in.AmountCents {
			return &InsufficientError{
				Resource:  "wallet",
				Available: wallet.BalanceCents,
				Requested: in.AmountCents,
			}
		}

		err = s.players.DecreaseBalance(tx, player.ID, in.AmountCents)
		if err != nil {
			return fmt.Errorf("debit player: %w", err)
		}

		err = s.wallets.DecreaseBalance(tx, wallet.ID, in.AmountCents)
		if err != nil {
			return fmt.Errorf("debit wallet: %w", err)
		}

		entry := entries.Entry{
			ID:                 uuid.New(),
			PlayerID:           player.ID,
			Kind:               entries.KindWithdrawal,
			AmountCents:        in.AmountCents,
			Status:             entries.StatusCompleted,
			WalletID:           &wallet.ID,
			WalletMethod:       &wallet.Method,
			WalletName:         &wallet.Name,
			BalanceBeforeCents: player.BalanceCents,
			BalanceAfterCents:  player.BalanceCents - in.AmountCents,
			CorrelationID:      uuid.New(),
			Note:               in.Note,
		}

		err = s.entries.Insert(tx, &entry)
		if err != nil {
			return fmt.Errorf("append withdrawal entry: %w", err)
		}

		out = CashoutResult{
			Entry: entry,
			Player: PlayerBalance{
				PlayerID:    player.ID,
				BeforeCents: player.BalanceCents,
				AfterCents:  player.BalanceCents - in.AmountCents,
				Streak:      player.CurrentStreak,
			},
			Wallet: WalletBalance{
				WalletID:    wallet.ID,
				Method:      wallet.Method,
				Name:        wallet.Name,
				BeforeCents: wallet.BalanceCents,
				AfterCents:  wallet.BalanceCents - in.AmountCents,
			},
		}

		ev = events.Event{
			Op:            metrics.OpCashout,
			CorrelationID: entry.CorrelationID.String(),
			EntryIDs:      []string{entry.ID.String()},
			Players: []events.BalanceChange{{
				PlayerID:    out.Player.PlayerID,
				BeforeCents: out.Player.BeforeCents,
				AfterCents:  out.Player.AfterCents,
			}},
			Wallets: []events.WalletChange{{
				WalletID:    out.Wallet.WalletID,
				Method:      out.Wallet.Method,
				Name:        out.Wallet.Name,
				BeforeCents: out.Wallet.BeforeCents,
				AfterCents:  out.Wallet.AfterCents,
			}},
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cashout: %w", err)
	}

	s.metrics.ObserveEntries(1)
	s.publish(ev)

	return &out, nil
}

func validateCashout(in CashoutInput) error {
	if in.PlayerID <= 0 {
		return &ValidationError{Field: "playerId", Reason: "required"}
	}
	if in.WalletID <= 0 {
		return &ValidationError{Field: "walletId", Reason: "required"}
	}
	if in.AmountCents <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	return nil
}
