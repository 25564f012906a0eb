package keeper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "openfund"
	metricsSubsystem = "dex"
)

// Metrics holds the keeper's prometheus collectors.
type Metrics struct {
	PoolsCreated prometheus.Counter
	SwapsTotal   *prometheus.CounterVec
	SwapLatency  prometheus.Histogram
	LiquidityOps *prometheus.CounterVec
	OrdersTotal  *prometheus.CounterVec
}

// NewMetrics registers the keeper's collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PoolsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "pools_created_total",
			Help:      "Total number of pools initialized",
		}),
		SwapsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "swaps_total",
			Help:      "Total number of swaps by token pair and result",
		}, []string{"token_in", "token_out", "result"}),
		SwapLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "swap_latency_seconds",
			Help:      "Swap execution latency",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		LiquidityOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "liquidity_operations_total",
			Help:      "Total liquidity operations by type",
		}, []string{"operation"}),
		OrdersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "orders_total",
			Help:      "Total order lifecycle events by outcome",
		}, []string{"outcome"}),
	}
}
