package players

import (
	"database/sql"
	"fmt"
	"time"
)

func (r *playersRepo) SetStreak(tx *sql.Tx, playerID int64, streak int, activityDate time.Time) error {
	_, err := tx.Exec(`
		UPDATE players
		SET current_streak = $2,
		    last_activity_date = $3
		WHERE id = $1
	`, playerID, streak, activityDate)
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}

	return nil
}

func (r *playersRepo) ResetStreak(tx *sql.Tx, playerID int64) error {
	_, err := tx.Exec(`
		UPDATE players
		SET current_streak = 0
		WHERE id = $1
	`, playerID)
	if err != nil {
		return fmt.Errorf("reset streak: %w", err)
	}

	return nil
}
