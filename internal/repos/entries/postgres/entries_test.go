package entries

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/arcadeops/ledgercore/internal/infra/pgtestutil"
	"github.com/arcadeops/ledgercore/internal/repos/entries"
)

func seedPlayer(t *testing.T, db *sql.DB, id int64) {
	t.Helper()

	_, err := db.Exec(`INSERT INTO players (id, name) VALUES ($1, 'p')`, id)
	if err != nil {
		t.Fatalf("seed player: %v", err)
	}
}

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	fn(tx)

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func newEntry(playerID int64, kind entries.Kind, corr uuid.UUID) entries.Entry {
	return entries.Entry{
		ID:            uuid.New(),
		PlayerID:      playerID,
		Kind:          kind,
		AmountCents:   1_000,
		Status:        entries.StatusCompleted,
		CorrelationID: corr,
	}
}

func TestEntries_InsertAndLock(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedPlayer(t, db, 1)

	repo := New(db)
	e := newEntry(1, entries.KindDeposit, uuid.New())

	inTx(t, db, func(tx *sql.Tx) {
		err := repo.Insert(tx, &e)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if e.CreatedAt.IsZero() {
			t.Error("insert did not backfill created_at")
		}
	})

	inTx(t, db, func(tx *sql.Tx) {
		got, err := repo.LockForUpdate(tx, e.ID)
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		if got.Kind != entries.KindDeposit || got.AmountCents != 1_000 || got.CorrelationID != e.CorrelationID {
			t.Fatalf("locked entry: %+v", got)
		}
	})
}

func TestEntries_DuplicateID(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedPlayer(t, db, 1)

	repo := New(db)
	e := newEntry(1, entries.KindDeposit, uuid.New())

	inTx(t, db, func(tx *sql.Tx) {
		err := repo.Insert(tx, &e)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	})

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	dup := e
	err = repo.Insert(tx, &dup)
	if !errors.Is(err, entries.ErrDuplicateEntry) {
		t.Fatalf("want ErrDuplicateEntry, got %v", err)
	}
}

func TestEntries_ListByCorrelation(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedPlayer(t, db, 1)
	seedPlayer(t, db, 2)

	repo := New(db)
	corr := uuid.New()

	root := newEntry(1, entries.KindDeposit, corr)
	bonusA := newEntry(1, entries.KindBonus, corr)
	bonusB := newEntry(2, entries.KindBonus, corr)
	unrelated := newEntry(1, entries.KindBonus, uuid.New())

	inTx(t, db, func(tx *sql.Tx) {
		for _, e := range []*entries.Entry{&root, &bonusA, &bonusB, &unrelated} {
			err := repo.Insert(tx, e)
			if err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
	})

	inTx(t, db, func(tx *sql.Tx) {
		got, err := repo.ListByCorrelation(tx, corr)
		if err != nil {
			t.Fatalf("list by correlation: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("want 3 correlated entries, got %d", len(got))
		}
		for _, e := range got {
			if e.CorrelationID != corr {
				t.Errorf("stray entry in group: %+v", e)
			}
		}
	})
}

func TestEntries_MarkCancelled(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedPlayer(t, db, 1)

	repo := New(db)
	e := newEntry(1, entries.KindWithdrawal, uuid.New())

	inTx(t, db, func(tx *sql.Tx) {
		err := repo.Insert(tx, &e)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	})

	inTx(t, db, func(tx *sql.Tx) {
		err := repo.MarkCancelled(tx, e.ID)
		if err != nil {
			t.Fatalf("mark cancelled: %v", err)
		}

		got, err := repo.LockForUpdate(tx, e.ID)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if got.Status != entries.StatusCancelled {
			t.Fatalf("status: want CANCELLED, got %s", got.Status)
		}
	})

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = repo.MarkCancelled(tx, uuid.New())
	if !errors.Is(err, entries.ErrEntryNotFound) {
		t.Fatalf("missing entry: want ErrEntryNotFound, got %v", err)
	}
}

func TestEntries_ListFilters(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedPlayer(t, db, 1)
	seedPlayer(t, db, 2)

	repo := New(db)

	inTx(t, db, func(tx *sql.Tx) {
		for _, e := range []entries.Entry{
			newEntry(1, entries.KindDeposit, uuid.New()),
			newEntry(1, entries.KindBonus, uuid.New()),
			newEntry(2, entries.KindWithdrawal, uuid.New()),
		} {
			e := e
			err := repo.Insert(tx, &e)
			if err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
	})

	ctx := context.Background()

	playerID := int64(1)
	got, err := repo.List(ctx, entries.Filter{PlayerID: &playerID}, entries.Page{})
	if err != nil {
		t.Fatalf("list by player: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("player filter: want 2, got %d", len(got))
	}

	kind := entries.KindWithdrawal
	got, err = repo.List(ctx, entries.Filter{Kind: &kind}, entries.Page{})
	if err != nil {
		t.Fatalf("list by kind: %v", err)
	}
	if len(got) != 1 || got[0].PlayerID != 2 {
		t.Errorf("kind filter: %+v", got)
	}

	got, err = repo.List(ctx, entries.Filter{}, entries.Page{Limit: 2})
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("limit: want 2, got %d", len(got))
	}
}
