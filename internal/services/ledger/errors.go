package ledger

import (
	"errors"
	"fmt"

	"github.com/arcadeops/ledgercore/internal/repos/entries"
	"github.com/arcadeops/ledgercore/internal/repos/games"
	"github.com/arcadeops/ledgercore/internal/repos/players"
	"github.com/arcadeops/ledgercore/internal/repos/wallets"
)

// ErrAlreadyCancelled rejects a second undo of the same entry; re-applying
// the reversal would double-credit balances.
var ErrAlreadyCancelled = errors.New("ledger entry already cancelled")

// ValidationError rejects a request before any mutation, naming the field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientError rejects a request because a balance or stock cannot
// cover it. Available and Requested are cents, or points when InPoints.
type InsufficientError struct {
	Resource  string
	Available int64
	Requested int64
	InPoints  bool
}

func (e *InsufficientError) Error() string {
	if e.InPoints {
		return fmt.Sprintf("%s has %d pts, requested %d pts", e.Resource, e.Available, e.Requested)
	}

	return fmt.Sprintf("%s has %s, requested %s", e.Resource, Dollars(e.Available), Dollars(e.Requested))
}

// isRejection separates caller mistakes from infrastructure failures.
func isRejection(err error) bool {
	var (
		ve *ValidationError
		ie *InsufficientError
	)

	switch {
	case errors.As(err, &ve), errors.As(err, &ie):
		return true
	case errors.Is(err, ErrAlreadyCancelled):
		return true
	case errors.Is(err, players.ErrPlayerNotFound),
		errors.Is(err, wallets.ErrWalletNotFound),
		errors.Is(err, games.ErrGameNotFound),
		errors.Is(err, entries.ErrEntryNotFound):
		return true
	default:
		return false
	}
}

// Dollars renders cents as "$12.34". Negative amounts keep a single sign.
func Dollars(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
