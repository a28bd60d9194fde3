package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/arcadeops/ledgercore/internal/events"
	"github.com/arcadeops/ledgercore/internal/infra/metrics"
	"github.com/arcadeops/ledgercore/internal/infra/pgutils"
	"github.com/arcadeops/ledgercore/internal/repos/bonuses"
	"github.com/arcadeops/ledgercore/internal/repos/games"
)

// GrantBonus is the admin-triggered bonus cascade, independent of any
// deposit. STREAK additionally resets the player's streak counter to zero;
// REFERRAL mirrors the deposit referral behavior, crediting the recorded
// referrer too and doubling the stock draw. The stock-sufficiency
// precondition matches the deposit path.
func (s *Service) GrantBonus(ctx context.Context, in GrantInput) (res *GrantResult, err error) {
	defer func() { s.observe(metrics.OpBonus, err) }()

	err = validateGrant(in)
	if err != nil {
		return nil, err
	}

	var (
		out GrantResult
		ev  events.Event
	)

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		player, referrer, err := s.lockPlayerAndReferrer(tx, in.PlayerID, in.Type == bonuses.TypeReferral)
		if err != nil {
			return err
		}

		game, err := s.games.LockForUpdate(tx, in.GameID)
		if err != nil {
			return fmt.Errorf("lock game: %w", err)
		}

		grants := []bonusGrant{{
			PlayerID:    player.ID,
			Type:        in.Type,
			AmountCents: in.AmountCents,
			DrawPoints:  drawPoints(in.AmountCents),
		}}

		if in.Type == bonuses.TypeReferral && referrer != nil {
			grants = append(grants, bonusGrant{
				PlayerID:    referrer.ID,
				Type:        bonuses.TypeReferral,
				AmountCents: in.AmountCents,
				DrawPoints:  drawPoints(in.AmountCents),
			})
		}

		need := totalDraw(grants)
		if game.StockPoints < need {
			return &InsufficientError{
				Resource:  "game stock",
				Available: game.StockPoints,
				Requested: need,
				InPoints:  true,
			}
		}

		personal, referral := splitGrants(grants, player.ID)

		err = s.players.IncreaseBalance(tx, player.ID, personal)
		if err != nil {
			return fmt.Errorf("credit player: %w", err)
		}

		if referral > 0 {
			err = s.players.IncreaseBalance(tx, referrer.ID, referral)
			if err != nil {
				return fmt.Errorf("credit referrer: %w", err)
			}
		}

		stockAfter, err := s.games.AdjustStock(tx, game.ID, -need)
		if err != nil {
			return fmt.Errorf("draw stock: %w", err)
		}

		streak := player.CurrentStreak
		if in.Type == bonuses.TypeStreak {
			err = s.players.ResetStreak(tx, player.ID)
			if err != nil {
				return fmt.Errorf("reset streak: %w", err)
			}

			streak = 0
		}

		corr := uuid.New()
		gameID := game.ID

		bonusEntries, err := s.appendBonusEntries(tx, grants, corr, &gameID, map[int64]int64{
			player.ID: player.BalanceCents,
		}, referrer, in.Note)
		if err != nil {
			return err
		}

		out = GrantResult{
			BonusEntries: bonusEntries,
			Player: PlayerBalance{
				PlayerID:    player.ID,
				BeforeCents: player.BalanceCents,
				AfterCents:  player.BalanceCents + personal,
				Streak:      streak,
			},
			Game: GameStockView{
				GameID:       game.ID,
				BeforePoints: game.StockPoints,
				AfterPoints:  stockAfter,
				Status:       games.Status(stockAfter),
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

		ev = grantEvent(&out, corr)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("grant bonus: %w", err)
	}

	s.metrics.ObserveEntries(len(out.BonusEntries))
	s.publish(ev)

	return &out, nil
}

func validateGrant(in GrantInput) error {
	if in.PlayerID <= 0 {
		return &ValidationError{Field: "playerId", Reason: "required"}
	}
	if in.GameID <= 0 {
		return &ValidationError{Field: "gameId", Reason: "required"}
	}
	if in.AmountCents <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	switch in.Type {
	case bonuses.TypeStreak, bonuses.TypeReferral, bonuses.TypeCustom:
		return nil
	default:
		return &ValidationError{Field: "bonusType", Reason: "must be STREAK, REFERRAL, or CUSTOM"}
	}
}

func grantEvent(res *GrantResult, corr uuid.UUID) events.Event {
	ev := events.Event{
		Op:            metrics.OpBonus,
		CorrelationID: corr.String(),
		Players: []events.BalanceChange{{
			PlayerID:    res.Player.PlayerID,
			BeforeCents: res.Player.BeforeCents,
			AfterCents:  res.Player.AfterCents,
		}},
		Games: []events.StockChange{{
			GameID:       res.Game.GameID,
			BeforePoints: res.Game.BeforePoints,
			AfterPoints:  res.Game.AfterPoints,
			Status:       string(res.Game.Status),
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

	return ev
}
