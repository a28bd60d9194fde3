package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/arcadeops/ledgercore/internal/events"
	"github.com/arcadeops/ledgercore/internal/infra/metrics"
	"github.com/arcadeops/ledgercore/internal/infra/pgutils"
	"github.com/arcadeops/ledgercore/internal/repos/entries"
	"github.com/arcadeops/ledgercore/internal/repos/games"
	"github.com/arcadeops/ledgercore/internal/repos/players"
	"github.com/arcadeops/ledgercore/internal/repos/wallets"
)

// Undo applies the exact inverse of a ledger entry and of every cascaded
// bonus entry sharing its correlation id, the referrer's included. Balances
// move back by the recorded amounts, drawn game stock is restored by the
// recorded draw, and all touched entries transition to CANCELLED — one
// atomic unit, so a mid-batch failure leaves the original state untouched.
// Undoing an already-CANCELLED entry is rejected: applying the reversal
// twice would double-credit balances.
func (s *Service) Undo(ctx context.Context, entryID uuid.UUID) (res *UndoResult, err error) {
	defer func() { s.observe(metrics.OpUndo, err) }()

	var (
		out UndoResult
		ev  events.Event
	)

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		root, err := s.entries.LockForUpdate(tx, entryID)
		if err != nil {
			return fmt.Errorf("lock entry: %w", err)
		}

		if root.Status == entries.StatusCancelled {
			return ErrAlreadyCancelled
		}

		group, err := s.entries.ListByCorrelation(tx, root.CorrelationID)
		if err != nil {
			return fmt.Errorf("load correlated entries: %w", err)
		}

		cascaded := make([]entries.Entry, 0, len(group))
		for _, e := range group {
			if e.Kind == entries.KindBonus && e.ID != root.ID && e.Status != entries.StatusCancelled {
				cascaded = append(cascaded, e)
			}
		}

		plan := newReversalPlan(root, cascaded)

		lockedPlayers, err := s.lockPlayersAsc(tx, plan.playerIDs())
		if err != nil {
			return err
		}

		var wallet *wallets.Wallet
		if root.WalletID != nil {
			wallet, err = s.wallets.LockForUpdate(tx, *root.WalletID)
			if err != nil {
				return fmt.Errorf("lock wallet: %w", err)
			}
		}

		lockedGames, err := s.lockGamesAsc(tx, plan.gameIDs())
		if err != nil {
			return err
		}

		err = s.applyPlayerDeltas(tx, plan.playerDeltas, lockedPlayers, &out)
		if err != nil {
			return err
		}

		err = s.applyWalletDelta(tx, wallet, plan.walletDelta, &out)
		if err != nil {
			return err
		}

		err = s.restoreStocks(tx, plan.gameRestores, lockedGames, &out)
		if err != nil {
			return err
		}

		for _, e := range cascaded {
			err = s.entries.MarkCancelled(tx, e.ID)
			if err != nil {
				return fmt.Errorf("cancel bonus entry %s: %w", e.ID, err)
			}

			out.CancelledEntryIDs = append(out.CancelledEntryIDs, e.ID)
		}

		err = s.entries.MarkCancelled(tx, root.ID)
		if err != nil {
			return fmt.Errorf("cancel root entry: %w", err)
		}

		out.RootEntryID = root.ID
		out.CancelledEntryIDs = append(out.CancelledEntryIDs, root.ID)

		ev = undoEvent(&out, root.CorrelationID)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}

	s.publish(ev)

	return &out, nil
}

// reversalPlan accumulates the net inverse deltas before anything is
// written, keyed by account, so each touched row gets exactly one update.
type reversalPlan struct {
	playerDeltas map[int64]int64
	walletDelta  int64
	gameRestores map[int64]int64
}

func newReversalPlan(root *entries.Entry, cascaded []entries.Entry) *reversalPlan {
	p := &reversalPlan{
		playerDeltas: make(map[int64]int64),
		gameRestores: make(map[int64]int64),
	}

	switch root.Kind {
	case entries.KindDeposit:
		p.playerDeltas[root.PlayerID] -= root.AmountCents
		p.walletDelta = -root.AmountCents
	case entries.KindWithdrawal:
		p.playerDeltas[root.PlayerID] += root.AmountCents
		p.walletDelta = root.AmountCents
	case entries.KindBonus:
		p.playerDeltas[root.PlayerID] -= root.AmountCents
		if root.GameID != nil && root.StockDrawPoints > 0 {
			p.gameRestores[*root.GameID] += root.StockDrawPoints
		}
	}

	for _, e := range cascaded {
		p.playerDeltas[e.PlayerID] -= e.AmountCents
		if e.GameID != nil && e.StockDrawPoints > 0 {
			p.gameRestores[*e.GameID] += e.StockDrawPoints
		}
	}

	return p
}

func (p *reversalPlan) playerIDs() []int64 { return sortedKeys(p.playerDeltas) }
func (p *reversalPlan) gameIDs() []int64   { return sortedKeys(p.gameRestores) }

func sortedKeys(m map[int64]int64) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// lockPlayersAsc locks player rows in ascending id order, the same order the
// forward path uses, so a deposit racing an undo on the same player
// serializes instead of deadlocking.
func (s *Service) lockPlayersAsc(tx *sql.Tx, ids []int64) (map[int64]*players.Player, error) {
	locked := make(map[int64]*players.Player, len(ids))

	for _, id := range ids {
		p, err := s.players.LockForUpdate(tx, id)
		if err != nil {
			return nil, fmt.Errorf("lock player %d: %w", id, err)
		}

		locked[id] = p
	}

	return locked, nil
}

func (s *Service) lockGamesAsc(tx *sql.Tx, ids []int64) (map[int64]*games.Game, error) {
	locked := make(map[int64]*games.Game, len(ids))

	for _, id := range ids {
		g, err := s.games.LockForUpdate(tx, id)
		if err != nil {
			return nil, fmt.Errorf("lock game %d: %w", id, err)
		}

		locked[id] = g
	}

	return locked, nil
}

func (s *Service) applyPlayerDeltas(tx *sql.Tx, deltas map[int64]int64, locked map[int64]*players.Player, out *UndoResult) error {
	for _, id := range sortedKeys(deltas) {
		delta := deltas[id]
		before := locked[id].BalanceCents

		var err error
		switch {
		case delta > 0:
			err = s.players.IncreaseBalance(tx, id, delta)
		case delta < 0:
			// Reversal must land even if the player spent the money since.
			err = s.players.ForceDecreaseBalance(tx, id, -delta)
		}
		if err != nil {
			return fmt.Errorf("reverse player %d: %w", id, err)
		}

		out.Players = append(out.Players, PlayerBalance{
			PlayerID:    id,
			BeforeCents: before,
			AfterCents:  before + delta,
			Streak:      locked[id].CurrentStreak,
		})
	}

	return nil
}

func (s *Service) applyWalletDelta(tx *sql.Tx, wallet *wallets.Wallet, delta int64, out *UndoResult) error {
	if wallet == nil || delta == 0 {
		return nil
	}

	var err error
	if delta > 0 {
		err = s.wallets.IncreaseBalance(tx, wallet.ID, delta)
	} else {
		err = s.wallets.ForceDecreaseBalance(tx, wallet.ID, -delta)
	}
	if err != nil {
		return fmt.Errorf("reverse wallet %d: %w", wallet.ID, err)
	}

	out.Wallet = &WalletBalance{
		WalletID:    wallet.ID,
		Method:      wallet.Method,
		Name:        wallet.Name,
		BeforeCents: wallet.BalanceCents,
		AfterCents:  wallet.BalanceCents + delta,
	}

	return nil
}

func (s *Service) restoreStocks(tx *sql.Tx, restores map[int64]int64, locked map[int64]*games.Game, out *UndoResult) error {
	for _, id := range sortedKeys(restores) {
		points := restores[id]

		after, err := s.games.AdjustStock(tx, id, points)
		if err != nil {
			return fmt.Errorf("restore stock for game %d: %w", id, err)
		}

		out.GamesRestored = append(out.GamesRestored, GameStockView{
			GameID:       id,
			BeforePoints: locked[id].StockPoints,
			AfterPoints:  after,
			Status:       games.Status(after),
		})
	}

	return nil
}

func undoEvent(res *UndoResult, corr uuid.UUID) events.Event {
	ev := events.Event{
		Op:            metrics.OpUndo,
		CorrelationID: corr.String(),
	}

	for _, id := range res.CancelledEntryIDs {
		ev.EntryIDs = append(ev.EntryIDs, id.String())
	}

	for _, p := range res.Players {
		ev.Players = append(ev.Players, events.BalanceChange{
			PlayerID:    p.PlayerID,
			BeforeCents: p.BeforeCents,
			AfterCents:  p.AfterCents,
		})
	}

	if res.Wallet != nil {
		ev.Wallets = append(ev.Wallets, events.WalletChange{
			WalletID:    res.Wallet.WalletID,
			Method:      res.Wallet.Method,
			Name:        res.Wallet.Name,
			BeforeCents: res.Wallet.BeforeCents,
			AfterCents:  res.Wallet.AfterCents,
		})
	}

	for _, g := range res.GamesRestored {
		ev.Games = append(ev.Games, events.StockChange{
			GameID:       g.GameID,
			BeforePoints: g.BeforePoints,
			AfterPoints:  g.AfterPoints,
			Status:       string(g.Status),
		})
	}

	return ev
}
