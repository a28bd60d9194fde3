package entries

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arcadeops/ledgercore/internal/repos/entries"
)

var _ entries.Entries = (*entriesRepo)(nil)

type entriesRepo struct{ db *sql.DB }

func New(db *sql.DB) *entriesRepo {
	return &entriesRepo{db: db}
}

const entryColumns = `
	id, player_id, kind, amount_cents, status,
	wallet_id, wallet_method, wallet_name, game_id,
	balance_before_cents, balance_after_cents,
	stock_draw_points, correlation_id, note, created_at
`

func scanEntry(row interface{ Scan(...any) error }) (*entries.Entry, error) {
	var e entries.Entry

	err := row.Scan(
		&e.ID, &e.PlayerID, &e.Kind, &e.AmountCents, &e.Status,
		&e.WalletID, &e.WalletMethod, &e.WalletName, &e.GameID,
		&e.BalanceBeforeCents, &e.BalanceAfterCents,
		&e.StockDrawPoints, &e.CorrelationID, &e.Note, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (r *entriesRepo) Insert(tx *sql.Tx, e *entries.Entry) error {
	err := tx.QueryRow(`
		INSERT INTO transactions (
			id, player_id, kind, amount_cents, status,
			wallet_id, wallet_method, wallet_name, game_id,
			balance_before_cents, balance_after_cents,
			stock_draw_points, correlation_id, note
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`,
		e.ID, e.PlayerID, e.Kind, e.AmountCents, e.Status,
		e.WalletID, e.WalletMethod, e.WalletName, e.GameID,
		e.BalanceBeforeCents, e.BalanceAfterCents,
		e.StockDrawPoints, e.CorrelationID, e.Note,
	).Scan(&e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return entries.ErrDuplicateEntry
		}

		return fmt.Errorf("insert entry: %w", err)
	}

	return nil
}

func (r *entriesRepo) LockForUpdate(tx *sql.Tx, entryID uuid.UUID) (*entries.Entry, error) {
	e, err := scanEntry(tx.QueryRow(`
		SELECT `+entryColumns+`
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, entryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entries.ErrEntryNotFound
		}

		return nil, fmt.Errorf("lock entry: %w", err)
	}

	return e, nil
}

func (r *entriesRepo) ListByCorrelation(tx *sql.Tx, correlationID uuid.UUID) ([]entries.Entry, error) {
	rows, err := tx.Query(`
		SELECT `+entryColumns+`
		FROM transactions
		WHERE correlation_id = $1
		ORDER BY created_at ASC
		FOR UPDATE
	`, correlationID)
	if err != nil {
		return nil, fmt.Errorf("list by correlation: %w", err)
	}
	defer rows.Close()

	var out []entries.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		out = append(out, *e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return out, nil
}

func (r *entriesRepo) MarkCancelled(tx *sql.Tx, entryID uuid.UUID) error {
	res, err := tx.Exec(`
		UPDATE transactions
		SET status = $2
		WHERE id = $1
	`, entryID, entries.StatusCancelled)
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return entries.ErrEntryNotFound
	}

	return nil
}
