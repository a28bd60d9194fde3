package bonuses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/arcadeops/ledgercore/internal/repos/bonuses"
)

var _ bonuses.Bonuses = (*bonusesRepo)(nil)

type bonusesRepo struct{ db *sql.DB }

func New(db *sql.DB) *bonusesRepo {
	return &bonusesRepo{db: db}
}

func (r *bonusesRepo) Insert(tx *sql.Tx, rec *bonuses.Record) error {
	err := tx.QueryRow(`
		INSERT INTO bonuses (transaction_id, bonus_type, amount_cents, claimed)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, rec.TransactionID, rec.Type, rec.AmountCents, rec.Claimed).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert bonus record: %w", err)
	}

	return nil
}

func (r *bonusesRepo) GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*bonuses.Record, error) {
	rec := bonuses.Record{TransactionID: transactionID}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, bonus_type, amount_cents, claimed
		FROM bonuses
		WHERE transaction_id = $1
	`, transactionID).Scan(&rec.ID, &rec.Type, &rec.AmountCents, &rec.Claimed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bonuses.ErrRecordNotFound
		}

		return nil, fmt.Errorf("get bonus record: %w", err)
	}

	return &rec, nil
}

func (r *bonusesRepo) SetClaimed(ctx context.Context, transactionID uuid.UUID, claimed bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bonuses
		SET claimed = $2
		WHERE transaction_id = $1
	`, transactionID, claimed)
	if err != nil {
		return fmt.Errorf("set claimed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return bonuses.ErrRecordNotFound
	}

	return nil
}
