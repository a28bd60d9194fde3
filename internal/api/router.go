package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arcadeops/ledgercore/internal/events"
	"github.com/arcadeops/ledgercore/internal/infra/metrics"
	"github.com/arcadeops/ledgercore/internal/services/ledger"
)

// NewRouter constructs the chi router with all API endpoints registered.
func NewRouter(svc *ledger.Service, hub *events.Hub, m *metrics.Metrics) http.Handler {
	h := NewHandler(svc, hub)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())

	r.Post("/players/{playerId}/deposits", h.DepositHandler)
	r.Post("/players/{playerId}/cashouts", h.CashoutHandler)
	r.Post("/players/{playerId}/bonuses", h.GrantBonusHandler)
	r.Get("/players/{playerId}/balance", h.GetPlayerHandler)

	r.Post("/transactions/{entryId}/undo", h.UndoHandler)
	r.Get("/transactions", h.ListTransactionsHandler)

	r.Get("/wallets/{walletId}", h.GetWalletHandler)
	r.Get("/games/{gameId}", h.GetGameHandler)

	r.Get("/events", h.EventStreamHandler)

	return r
}
