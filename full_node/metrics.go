package full_node

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics of one node. Each node owns its registry so several nodes can live in one
// process.
type Metrics struct {
	registry *prometheus.Registry

	BlocksMined       prometheus.Counter
	BlocksSuperseded  prometheus.Counter
	BlocksAccepted    prometheus.Counter
	BlocksRejected    *prometheus.CounterVec
	ChainReplacements prometheus.Counter
	TamperedDumps     prometheus.Counter
	PeerFailures      *prometheus.CounterVec
	ChainHeight       prometheus.Gauge
	PendingRecords    prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BlocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger", Name: "blocks_mined_total",
			Help: "Blocks sealed and appended by this node.",
		}),
		BlocksSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger", Name: "blocks_superseded_total",
			Help: "Mined blocks dropped because a longer peer chain was adopted right after.",
		}),
		BlocksAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger", Name: "blocks_accepted_total",
			Help: "Blocks received from peers and appended.",
		}),
		BlocksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger", Name: "blocks_rejected_total",
			Help: "Blocks received from peers and discarded, by reason.",
		}, []string{"reason"}),
		ChainReplacements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger", Name: "chain_replacements_total",
			Help: "Times the local chain was replaced by a longer valid one.",
		}),
		TamperedDumps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger", Name: "tampered_dumps_total",
			Help: "Chain dumps that failed re-validation.",
		}),
		PeerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger", Name: "peer_failures_total",
			Help: "Failed calls to peers, by operation.",
		}, []string{"op"}),
		ChainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ledger", Name: "chain_height",
			Help: "Number of blocks in the local chain, genesis included.",
		}),
		PendingRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ledger", Name: "pending_records",
			Help: "Records waiting to be mined.",
		}),
	}
	m.registry.MustRegister(
		m.BlocksMined, m.BlocksSuperseded, m.BlocksAccepted, m.BlocksRejected,
		m.ChainReplacements, m.TamperedDumps, m.PeerFailures, m.ChainHeight, m.PendingRecords,
	)
	return m
}

// Handler serves the node's metrics in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
