// Package metrics exposes prometheus collectors for the ledger core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Op labels for OperationsTotal.
const (
	OpDeposit = "deposit"
	OpCashout = "cashout"
	OpBonus   = "bonus_grant"
	OpUndo    = "undo"
)

// Outcome labels for OperationsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics bundles the ledger collectors with their registry so the API can
// mount a scrape handler without touching prometheus globals.
type Metrics struct {
	registry *prometheus.Registry

	OperationsTotal *prometheus.CounterVec
	EntriesWritten  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by type and outcome.",
		}, []string{"op", "outcome"}),
		EntriesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_entries_written_total",
			Help: "Ledger entries appended, cascaded bonus entries included.",
		}),
	}

	reg.MustRegister(
		m.OperationsTotal,
		m.EntriesWritten,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the /metrics scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe records one operation outcome. A nil *Metrics is a no-op so tests
// can run services without a registry.
func (m *Metrics) Observe(op, outcome string) {
	if m == nil {
		return
	}

	m.OperationsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveEntries counts n appended ledger entries.
func (m *Metrics) ObserveEntries(n int) {
	if m == nil {
		return
	}

	m.EntriesWritten.Add(float64(n))
}
