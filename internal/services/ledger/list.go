package ledger

import (
	"context"
	"fmt"

	"github.com/arcadeops/ledgercore/internal/repos/entries"
	"github.com/arcadeops/ledgercore/internal/repos/games"
	"github.com/arcadeops/ledgercore/internal/repos/players"
	"github.com/arcadeops/ledgercore/internal/repos/wallets"
)

// ListTransactions is the read-only surface the dashboard pages through.
func (s *Service) ListTransactions(ctx context.Context, f entries.Filter, p entries.Page) ([]entries.Entry, error) {
	out, err := s.entries.List(ctx, f, p)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return out, nil
}

// GetPlayer returns the player's current state for the balance view.
func (s *Service) GetPlayer(ctx context.Context, playerID int64) (*players.Player, error) {
	p, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}

	return p, nil
}

// GetWallet returns one payment-method sub-account.
func (s *Service) GetWallet(ctx context.Context, walletID int64) (*wallets.Wallet, error) {
	w, err := s.wallets.Get(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	return w, nil
}

// GetGame returns a game with its current stock; the handler derives the
// status tier from the level.
func (s *Service) GetGame(ctx context.Context, gameID int64) (*games.Game, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}

	return g, nil
}
