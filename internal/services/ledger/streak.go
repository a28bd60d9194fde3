package ledger

import "time"

// nextStreak computes the streak counter after a deposit on day `today`.
// Consecutive-day activity increments, a gap resets to 1, and a second
// deposit on the same calendar day changes nothing. Days are UTC dates.
func nextStreak(current int, lastActivity *time.Time, today time.Time) (streak int, advanced bool) {
	if lastActivity == nil {
		return 1, true
	}

	last := toDate(*lastActivity)
	today = toDate(today)

	switch {
	case last.Equal(today):
		return current, false
	case last.AddDate(0, 0, 1).Equal(today):
		return current + 1, true
	default:
		return 1, true
	}
}

func toDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
