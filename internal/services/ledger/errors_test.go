package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/arcadeops/ledgercore/internal/repos/players"
)

func TestDollars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 0, want: "$0.00"},
		{cents: 5, want: "$0.05"},
		{cents: 12_000, want: "$120.00"},
		{cents: 15_050, want: "$150.50"},
		{cents: -2_500, want: "-$25.00"},
	}

	for _, tt := range tests {
		if got := Dollars(tt.cents); got != tt.want {
			t.Errorf("Dollars(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestInsufficientError_Message(t *testing.T) {
	t.Parallel()

	err := &InsufficientError{Resource: "wallet", Available: 12_000, Requested: 15_000}
	if got, want := err.Error(), "wallet has $120.00, requested $150.00"; got != want {
		t.Errorf("cents message: got %q, want %q", got, want)
	}

	err = &InsufficientError{Resource: "game stock", Available: 100, Requested: 200, InPoints: true}
	if got, want := err.Error(), "game stock has 100 pts, requested 200 pts"; got != want {
		t.Errorf("points message: got %q, want %q", got, want)
	}
}

func TestIsRejection(t *testing.T) {
	t.Parallel()

	rejections := []error{
		&ValidationError{Field: "amount", Reason: "must be positive"},
		&InsufficientError{Resource: "player"},
		ErrAlreadyCancelled,
		fmt.Errorf("lock player: %w", players.ErrPlayerNotFound),
	}
	for _, err := range rejections {
		if !isRejection(err) {
			t.Errorf("isRejection(%v) = false, want true", err)
		}
	}

	if isRejection(errors.New("connection refused")) {
		t.Error("infrastructure failure misclassified as rejection")
	}
}
