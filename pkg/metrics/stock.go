package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics tracks ledger writes and the optimistic update loop on stock aggregates.
type StockMetrics struct {
	ledgerEntries *prometheus.CounterVec
	conflicts     *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	reorders      prometheus.Counter
}

// NewStockMetrics registers the stock metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	ledgerEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_ledger_entries_total",
		Help: "Ledger entries appended, by transaction kind.",
	}, []string{"kind"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_update_conflicts_total",
		Help: "Version conflicts hit while writing stock aggregates.",
	}, []string{"operation"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_update_duration_seconds",
		Help:    "Duration of stock aggregate writes including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	reorders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_reorder_triggered_total",
		Help: "Aggregates that crossed into needing a reorder.",
	})
	reg.MustRegister(ledgerEntries, conflicts, duration, reorders)
	return &StockMetrics{
		ledgerEntries: ledgerEntries,
		conflicts:     conflicts,
		duration:      duration,
		reorders:      reorders,
	}
}

// IncLedgerEntry counts one appended ledger entry of the given kind.
func (m *StockMetrics) IncLedgerEntry(kind string) {
	if m == nil || m.ledgerEntries == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncConflict counts one lost compare-and-swap.
func (m *StockMetrics) IncConflict(operation string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(operation)).Inc()
}

// ObserveDuration records how long an operation took and whether it succeeded.
func (m *StockMetrics) ObserveDuration(operation string, err error, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.duration.WithLabelValues(normalizeLabel(operation), outcome).Observe(d.Seconds())
}

// IncReorderTriggered counts one false->true flip of the reorder flag.
func (m *StockMetrics) IncReorderTriggered() {
	if m == nil || m.reorders == nil {
		return
	}
	m.reorders.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
