package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the set of counters/gauges SPEC_FULL.md §1's ambient-stack
// section calls for on pkg/app: block height, gas used, and tx count. A nil
// *Metrics is valid: NewApp accepts one, and every method below is a
// nil-receiver no-op, so the observations are simply skipped.
type Metrics struct {
	BlockHeight   prometheus.Gauge
	TxTotal       *prometheus.CounterVec
	GasUsedTotal  prometheus.Counter
	CronjobsTotal prometheus.Counter
}

// NewMetrics registers pkg/app's collectors against reg. Passing
// prometheus.NewRegistry() (rather than the default global registry) keeps
// metric registration testable and avoids the "duplicate registration"
// panic a second App instance in the same process would otherwise hit.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BlockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chainkit",
			Subsystem: "app",
			Name:      "block_height",
			Help:      "Height of the last finalized block.",
		}),
		TxTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chainkit",
			Subsystem: "app",
			Name:      "tx_total",
			Help:      "Transactions processed by FinalizeBlock, by outcome.",
		}, []string{"result"}),
		GasUsedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chainkit",
			Subsystem: "app",
			Name:      "gas_used_total",
			Help:      "Cumulative gas consumed across all transactions.",
		}),
		CronjobsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chainkit",
			Subsystem: "app",
			Name:      "cronjobs_total",
			Help:      "Cron jobs executed across all finalized blocks.",
		}),
	}
	reg.MustRegister(m.BlockHeight, m.TxTotal, m.GasUsedTotal, m.CronjobsTotal)
	return m
}

func (m *Metrics) observeTx(result TxResult) {
	if m == nil {
		return
	}
	label := "success"
	if !result.Success {
		label = "failure"
	}
	m.TxTotal.WithLabelValues(label).Inc()
	m.GasUsedTotal.Add(float64(result.GasUsed))
}

func (m *Metrics) observeCronjob() {
	if m == nil {
		return
	}
	m.CronjobsTotal.Inc()
}

func (m *Metrics) observeBlockHeight(height uint64) {
	if m == nil {
		return
	}
	m.BlockHeight.Set(float64(height))
}
