package ledger

import (
	"testing"
	"time"
)

func TestNextStreak(t *testing.T) {
	t.Parallel()

	day := func(s string) time.Time {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			t.Fatalf("parse day %q: %v", s, err)
		}
		return d
	}

	yesterday := day("2025-03-09")
	today := day("2025-03-10")
	lastWeek := day("2025-03-03")

	tests := []struct {
		name         string
		current      int
		last         *time.Time
		today        time.Time
		wantStreak   int
		wantAdvanced bool
	}{
		{
			name:         "first_ever_deposit_starts_at_one",
			current:      0,
			last:         nil,
			today:        today,
			wantStreak:   1,
			wantAdvanced: true,
		},
		{
			name:         "consecutive_day_increments",
			current:      4,
			last:         &yesterday,
			today:        today,
			wantStreak:   5,
			wantAdvanced: true,
		},
		{
			name:         "same_day_is_noop",
			current:      4,
			last:         &today,
			today:        today,
			wantStreak:   4,
			wantAdvanced: false,
		},
		{
			name:         "multi_day_gap_resets_to_one",
			current:      9,
			last:         &lastWeek,
			today:        today,
			wantStreak:   1,
			wantAdvanced: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			streak, advanced := nextStreak(tt.current, tt.last, tt.today)
			if streak != tt.wantStreak || advanced != tt.wantAdvanced {
				t.Fatalf("nextStreak(%d, %v, %v) = (%d, %v), want (%d, %v)",
					tt.current, tt.last, tt.today, streak, advanced, tt.wantStreak, tt.wantAdvanced)
			}
		})
	}
}

func TestNextStreak_LateNightThenEarlyMorning(t *testing.T) {
	t.Parallel()

	last := time.Date(2025, 3, 9, 23, 50, 0, 0, time.UTC)
	now := time.Date(2025, 3, 10, 0, 5, 0, 0, time.UTC)

	streak, advanced := nextStreak(2, &last, now)
	if streak != 3 || !advanced {
		t.Fatalf("calendar-day boundary: got (%d, %v), want (3, true)", streak, advanced)
	}
}
