package entries

import (
	"context"
	"fmt"
	"strings"

	"github.com/arcadeops/ledgercore/internal/repos/entries"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (r *entriesRepo) List(ctx context.Context, f entries.Filter, p entries.Page) ([]entries.Entry, error) {
	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PlayerID != nil {
		where = append(where, "player_id = "+arg(*f.PlayerID))
	}
	if f.Kind != nil {
		where = append(where, "kind = "+arg(*f.Kind))
	}
	if f.Status != nil {
		where = append(where, "status = "+arg(*f.Status))
	}
	if f.CorrelationID != nil {
		where = append(where, "correlation_id = "+arg(*f.CorrelationID))
	}

	q := "SELECT " + entryColumns + " FROM transactions"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	limit := p.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := p.Offset
	if offset < 0 {
		offset = 0
	}

	q += " ORDER BY created_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]entries.Entry, 0, limit)

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
