package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arcadeops/ledgercore/internal/events"
	"github.com/arcadeops/ledgercore/internal/infra/metrics"
	"github.com/arcadeops/ledgercore/internal/infra/pgutils"
	"github.com/arcadeops/ledgercore/internal/repos/bonuses"
	"github.com/arcadeops/ledgercore/internal/repos/entries"
	"github.com/arcadeops/ledgercore/internal/repos/games"
	"github.com/arcadeops/ledgercore/internal/repos/players"
)

// Deposit credits a player and a wallet with the deposited amount and, when
// requested, cascades match/special/referral bonuses funded by the game's
// point stock. The whole flow is one database transaction:
//
// 1) Lock the player (and referrer, ascending id order) FOR UPDATE.
// 2) Lock the wallet, then the game if bonuses are requested.
// 3) Reject if the stock cannot cover the total bonus draw.
// 4) Credit balances, draw stock, advance the streak at most once per day.
// 5) Append the DEPOSIT entry plus one BONUS entry + record per grant, all
//    sharing a correlation id the undo engine reverses by.
func (s *Service) Deposit(ctx context.Context, in DepositInput) (res *DepositResult, err error) {
	defer func() { s.observe(metrics.OpDeposit, err) }()

	err = validateDeposit(in)
	if err != nil {
		return nil, err
	}

	var (
		out DepositResult
		ev  events.Event
	)

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		player, referrer, err := s.lockPlayerAndReferrer(tx, in.PlayerID, in.Bonuses.Referral)
		if err != nil {
			return err
		}

		wallet, err := s.wallets.LockForUpdate(tx, in.WalletID)
		if err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}

		var (
			game   *games.Game
			grants []bonusGrant
		)

		if in.Bonuses.Any() {
			game, err = s.games.LockForUpdate(tx, *in.GameID)
			if err != nil {
				return fmt.Errorf("lock game: %w", err)
			}

			grants = planDepositBonuses(player.ID, player.ReferrerID, in.AmountCents, in.Bonuses)

			need := totalDraw(grants)
			if game.StockPoints < need {
				return &InsufficientError{
					Resource:  "game stock",
					Available: game.StockPoints,
					Requested: need,
					InPoints:  true,
				}
			}
		}

		personal, referral := splitGrants(grants, player.ID)

		err = s.players.IncreaseBalance(tx, player.ID, in.AmountCents+personal)
		if err != nil {
			return fmt.Errorf("credit player: %w", err)
		}

		if referral > 0 {
			err = s.players.IncreaseBalance(tx, referrer.ID, referral)
			if err != nil {
				return fmt.Errorf("credit referrer: %w", err)
			}
		}

		err = s.wallets.IncreaseBalance(tx, wallet.ID, in.AmountCents)
		if err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}

		stockAfter := int64(0)
		if draw := totalDraw(grants); draw > 0 {
			stockAfter, err = s.games.AdjustStock(tx, game.ID, -draw)
			if err != nil {
				return fmt.Errorf("draw stock: %w", err)
			}
		}

		now := time.Now().UTC()

		streak, advanced := nextStreak(player.CurrentStreak, player.LastActivityDate, now)
		if advanced {
			err = s.players.SetStreak(tx, player.ID, streak, toDate(now))
			if err != nil {
				return fmt.Errorf("advance streak: %w", err)
			}
		}

		corr := uuid.New()

		root := entries.Entry{
			ID:                 uuid.New(),
			PlayerID:           player.ID,
			Kind:               entries.KindDeposit,
			AmountCents:        in.AmountCents,
			Status:             entries.StatusCompleted,
			WalletID:           &wallet.ID,
			WalletMethod:       &wallet.Method,
			WalletName:         &wallet.Name,
			GameID:             in.GameID,
			BalanceBeforeCents: player.BalanceCents,
			BalanceAfterCents:  player.BalanceCents + in.AmountCents,
			CorrelationID:      corr,
			Note:               in.Note,
		}

		err = s.entries.Insert(tx, &root)
		if err != nil {
			return fmt.Errorf("append deposit entry: %w", err)
		}

		bonusEntries, err := s.appendBonusEntries(tx, grants, corr, in.GameID, map[int64]int64{
			player.ID: root.BalanceAfterCents,
		}, referrer, "")
		if err != nil {
			return err
		}

		out = DepositResult{
			Entry:        root,
			BonusEntries: bonusEntries,
			Player: PlayerBalance{
				PlayerID:    player.ID,
				BeforeCents: player.BalanceCents,
				AfterCents:  player.BalanceCents + in.AmountCents + personal,
				Streak:      streak,
			},
			Wallet: WalletBalance{
				WalletID:    wallet.ID,
				Method:      wallet.Method,
				Name:        wallet.Name,
				BeforeCents: wallet.BalanceCents,
				AfterCents:  wallet.BalanceCents + in.AmountCents,
			},
		}

		if referral > 0 {
			out.Referrer = &PlayerBalance{
				PlayerID:    referrer.ID,
				BeforeCents: referrer.BalanceCents,
				AfterCents:  referrer.BalanceCents + referral,
				Streak:      referrer.CurrentStreak,
			}
		}

		if game != nil {
			after := game.StockPoints
			if totalDraw(grants) > 0 {
				after = stockAfter
			}

			out.Game = &GameStockView{
				GameID:       game.ID,
				BeforePoints: game.StockPoints,
				AfterPoints:  after,
				Status:       games.Status(after),
			}
		}

		ev = depositEvent(&out)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}

	s.metrics.ObserveEntries(1 + len(out.BonusEntries))
	s.publish(ev)

	return &out, nil
}

func validateDeposit(in DepositInput) error {
	if in.PlayerID <= 0 {
		return &ValidationError{Field: "playerId", Reason: "required"}
	}
	if in.WalletID <= 0 {
		return &ValidationError{Field: "walletId", Reason: "required"}
	}
	if in.AmountCents <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if in.Bonuses.Any() && in.GameID == nil {
		return &ValidationError{Field: "gameId", Reason: "required when a bonus is requested"}
	}

	return nil
}

// lockPlayerAndReferrer locks the player row and, when a referral bonus may
// apply, the referrer row too. Locks are taken in ascending id order so two
// deposits touching the same pair cannot deadlock.
func (s *Service) lockPlayerAndReferrer(tx *sql.Tx, playerID int64, wantReferral bool) (player, referrer *players.Player, err error) {
	if !wantReferral {
		player, err = s.players.LockForUpdate(tx, playerID)
		if err != nil {
			return nil, nil, fmt.Errorf("lock player: %w", err)
		}

		return player, nil, nil
	}

	refID, err := s.players.GetReferrerID(tx, playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve referrer: %w", err)
	}

	if refID == nil || *refID == playerID {
		player, err = s.players.LockForUpdate(tx, playerID)
		if err != nil {
			return nil, nil, fmt.Errorf("lock player: %w", err)
		}

		return player, nil, nil
	}

	first, second := playerID, *refID
	if second < first {
		first, second = second, first
	}

	locked := make(map[int64]*players.Player, 2)
	for _, id := range []int64{first, second} {
		p, lerr := s.players.LockForUpdate(tx, id)
		if lerr != nil {
			return nil, nil, fmt.Errorf("lock player %d: %w", id, lerr)
		}
		locked[id] = p
	}

	return locked[playerID], locked[*refID], nil
}

// splitGrants sums planned bonus cents into the player's own share and the
// referrer's share.
func splitGrants(grants []bonusGrant, playerID int64) (personal, referral int64) {
	for _, g := range grants {
		if g.PlayerID == playerID {
			personal += g.AmountCents
		} else {
			referral += g.AmountCents
		}
	}
	return personal, referral
}

// appendBonusEntries writes one BONUS ledger entry and bonus record per
// grant, threading running balances so each entry's before/after snapshot
// reflects the credits already applied ahead of it.
func (s *Service) appendBonusEntries(
	tx *sql.Tx,
	grants []bonusGrant,
	corr uuid.UUID,
	gameID *int64,
	running map[int64]int64,
	referrer *players.Player,
	leadNote string,
) ([]entries.Entry, error) {
	if len(grants) == 0 {
		return nil, nil
	}

	if referrer != nil {
		if _, ok := running[referrer.ID]; !ok {
			running[referrer.ID] = referrer.BalanceCents
		}
	}

	out := make([]entries.Entry, 0, len(grants))

	for i, g := range grants {
		before := running[g.PlayerID]
		after := before + g.AmountCents
		running[g.PlayerID] = after

		note := ""
		if i == 0 {
			note = leadNote
		}

		e := entries.Entry{
			ID:                 uuid.New(),
			PlayerID:           g.PlayerID,
			Kind:               entries.KindBonus,
			AmountCents:        g.AmountCents,
			Status:             entries.StatusCompleted,
			GameID:             gameID,
			BalanceBeforeCents: before,
			BalanceAfterCents:  after,
			StockDrawPoints:    g.DrawPoints,
			CorrelationID:      corr,
			Note:               note,
		}

		err := s.entries.Insert(tx, &e)
		if err != nil {
			return nil, fmt.Errorf("append bonus entry: %w", err)
		}

		err = s.bonuses.Insert(tx, &bonuses.Record{
			TransactionID: e.ID,
			Type:          g.Type,
			AmountCents:   g.AmountCents,
		})
		if err != nil {
			return nil, fmt.Errorf("append bonus record: %w", err)
		}

		out = append(out, e)
	}

	return out, nil
}

func depositEvent(res *DepositResult) events.Event {
	ev := events.Event{
		Op:            metrics.OpDeposit,
		CorrelationID: res.Entry.CorrelationID.String(),
		EntryIDs:      []string{res.Entry.ID.String()},
		Players: []events.BalanceChange{{
			PlayerID:    res.Player.PlayerID,
			BeforeCents: res.Player.BeforeCents,
			AfterCents:  res.Player.AfterCents,
		}},
		Wallets: []events.WalletChange{{
			WalletID:    res.Wallet.WalletID,
			Method:      res.Wallet.Method,
			Name:        res.Wallet.Name,
			BeforeCents: res.Wallet.BeforeCents,
			AfterCents:  res.Wallet.AfterCents,
		}},
	}

	for _, e := range res.BonusEntries {
		ev.EntryIDs = append(ev.EntryIDs, e.ID.String())
	}

	if res.Referrer != nil {
		ev.Players = append(ev.Players, events.BalanceChange{
			PlayerID:    res.Referrer.PlayerID,
			BeforeCents: res.Referrer.BeforeCents,
			AfterCents:  res.Referrer.AfterCents,
		})
	}

	if res.Game != nil {
		ev.Games = append(ev.Games, events.StockChange{
			GameID:       res.Game.GameID,
			BeforePoints: res.Game.BeforePoints,
			AfterPoints:  res.Game.AfterPoints,
			Status:       string(res.Game.Status),
		})
	}

	return ev
}
