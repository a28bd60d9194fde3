// Package ledger implements the transactional core: deposits, cashouts,
// manual bonus grants, and the compensating undo that reverses any of them.
// Every operation is a single database transaction taking FOR UPDATE locks
// on the rows it mutates, so conflicting writers on the same player, wallet,
// or game serialize instead of interleaving read-modify-write steps.
package ledger

import (
	"database/sql"

	"github.com/arcadeops/ledgercore/internal/events"
	"github.com/arcadeops/ledgercore/internal/infra/metrics"
	"github.com/arcadeops/ledgercore/internal/repos/bonuses"
	pgbonuses "github.com/arcadeops/ledgercore/internal/repos/bonuses/postgres"
	"github.com/arcadeops/ledgercore/internal/repos/entries"
	pgentries "github.com/arcadeops/ledgercore/internal/repos/entries/postgres"
	"github.com/arcadeops/ledgercore/internal/repos/games"
	pggames "github.com/arcadeops/ledgercore/internal/repos/games/postgres"
	"github.com/arcadeops/ledgercore/internal/repos/players"
	pgplayers "github.com/arcadeops/ledgercore/internal/repos/players/postgres"
	"github.com/arcadeops/ledgercore/internal/repos/wallets"
	pgwallets "github.com/arcadeops/ledgercore/internal/repos/wallets/postgres"
)

type Service struct {
	db      *sql.DB
	players players.Players
	wallets wallets.Wallets
	games   games.Games
	entries entries.Entries
	bonuses bonuses.Bonuses
	hub     *events.Hub
	metrics *metrics.Metrics
}

// New wires the service over postgres-backed repos. hub and m may be nil;
// publication and metrics then become no-ops (tests use that).
func New(db *sql.DB, hub *events.Hub, m *metrics.Metrics) *Service {
	return &Service{
		db:      db,
		players: pgplayers.New(db),
		wallets: pgwallets.New(db),
		games:   pggames.New(db),
		entries: pgentries.New(db),
		bonuses: pgbonuses.New(db),
		hub:     hub,
		metrics: m,
	}
}

func (s *Service) publish(ev events.Event) {
	if s.hub == nil {
		return
	}

	s.hub.Publish(ev)
}

// observe classifies err for the operations counter.
func (s *Service) observe(op string, err error) {
	switch {
	case err == nil:
		s.metrics.Observe(op, metrics.OutcomeOK)
	case isRejection(err):
		s.metrics.Observe(op, metrics.OutcomeRejected)
	default:
		s.metrics.Observe(op, metrics.OutcomeError)
	}
}
