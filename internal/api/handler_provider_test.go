package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arcadeops/ledgercore/internal/repos/bonuses"
	"github.com/arcadeops/ledgercore/internal/repos/entries"
	"github.com/arcadeops/ledgercore/internal/repos/players"
	"github.com/arcadeops/ledgercore/internal/services/ledger"
)

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "integer dollars", in: "100", want: 10000},
		{name: "two decimals", in: "99.99", want: 9999},
		{name: "one decimal", in: "99.5", want: 9950},
		{name: "smallest unit", in: "0.01", want: 1},
		{name: "leading plus", in: "+12.34", want: 1234},
		{name: "whitespace trimmed", in: "  5  ", want: 500},
		{name: "empty", in: "", wantErr: true},
		{name: "zero", in: "0", wantErr: true},
		{name: "negative", in: "-10", wantErr: true},
		{name: "three decimals", in: "1.234", wantErr: true},
		{name: "two dots", in: "1.2.3", wantErr: true},
		{name: "not a number", in: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmountCents(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseAmountCents(%q): expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAmountCents(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("parseAmountCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBonusType(t *testing.T) {
	for _, in := range []string{"STREAK", "streak", " Referral ", "custom"} {
		if _, err := parseBonusType(in); err != nil {
			t.Errorf("parseBonusType(%q): %v", in, err)
		}
	}

	// Cascade-only types cannot be granted directly.
	for _, in := range []string{"MATCH", "SPECIAL", "", "bogus"} {
		if _, err := parseBonusType(in); err == nil {
			t.Errorf("parseBonusType(%q): expected error", in)
		}
	}

	got, err := parseBonusType("streak")
	if err != nil {
		t.Fatalf("parseBonusType: %v", err)
	}
	if got != bonuses.TypeStreak {
		t.Fatalf("parseBonusType(streak) = %q", got)
	}
}

func TestWriteDomainError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "validation is 400",
			err:  &ledger.ValidationError{Field: "amount", Reason: "must be positive"},
			want: http.StatusBadRequest,
		},
		{
			name: "insufficient is 409",
			err:  &ledger.InsufficientError{Resource: "wallet", Available: 100, Requested: 200},
			want: http.StatusConflict,
		},
		{
			name: "already cancelled is 409",
			err:  ledger.ErrAlreadyCancelled,
			want: http.StatusConflict,
		},
		{
			name: "player not found is 404",
			err:  players.ErrPlayerNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "entry not found is 404",
			err:  entries.ErrEntryNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "unknown is 500",
			err:  errFake,
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeDomainError(w, tt.err)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

var errFake = &fakeError{}

type fakeError struct{}

func (*fakeError) Error() string { return "boom" }
