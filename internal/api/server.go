package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/arcadeops/ledgercore/internal/events"
	"github.com/arcadeops/ledgercore/internal/infra/metrics"
	"github.com/arcadeops/ledgercore/internal/services/ledger"
)

// NewServer creates and returns a configured *http.Server for the ledger API.
// The write timeout is generous because /events holds its connection open.
func NewServer(port uint16, svc *ledger.Service, hub *events.Hub, m *metrics.Metrics) *http.Server {
	mux := NewRouter(svc, hub, m)

	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
