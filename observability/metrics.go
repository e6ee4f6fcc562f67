package observability

import (
	"math/big"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type poolMetrics struct {
	liquidityOps *prometheus.CounterVec
	flashLoans   *prometheus.CounterVec
	poolBalance  *prometheus.GaugeVec
	tvl          prometheus.Gauge
}

var (
	poolMetricsOnce sync.Once
	poolRegistry    *poolMetrics
)

// Pool returns the metrics registry tracking ledger activity.
func Pool() *poolMetrics {
	poolMetricsOnce.Do(func() {
		poolRegistry = &poolMetrics{
			liquidityOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "flashpool",
				Subsystem: "liquidity",
				Name:      "operations_total",
				Help:      "Count of deposits and withdrawals segmented by asset.",
			}, []string{"op", "asset"}),
			flashLoans: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "flashpool",
				Subsystem: "loans",
				Name:      "executed_total",
				Help:      "Count of flash loans segmented by asset and outcome.",
			}, []string{"asset", "outcome"}),
			poolBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "flashpool",
				Subsystem: "ledger",
				Name:      "pool_balance",
				Help:      "Current pooled balance per asset in smallest units.",
			}, []string{"asset"}),
			tvl: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "flashpool",
				Subsystem: "ledger",
				Name:      "total_value_locked",
				Help:      "Raw cross-asset sum of pooled balances in smallest units.",
			}),
		}
		prometheus.MustRegister(
			poolRegistry.liquidityOps,
			poolRegistry.flashLoans,
			poolRegistry.poolBalance,
			poolRegistry.tvl,
		)
	})
	return poolRegistry
}

// RecordLiquidity increments the deposit/withdraw counter for the asset.
func (m *poolMetrics) RecordLiquidity(op, asset string) {
	if m == nil {
		return
	}
	m.liquidityOps.WithLabelValues(op, normalizeAsset(asset)).Inc()
}

// RecordFlashLoan increments the loan counter for the asset and outcome.
func (m *poolMetrics) RecordFlashLoan(asset, outcome string) {
	if m == nil {
		return
	}
	m.flashLoans.WithLabelValues(normalizeAsset(asset), outcome).Inc()
}

// SetPoolBalance updates the per-asset balance gauge.
func (m *poolMetrics) SetPoolBalance(asset string, amount *big.Int) {
	if m == nil || amount == nil {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.poolBalance.WithLabelValues(normalizeAsset(asset)).Set(value)
}

// SetTVL updates the aggregate total-value-locked gauge.
func (m *poolMetrics) SetTVL(amount *big.Int) {
	if m == nil || amount == nil {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.tvl.Set(value)
}

func normalizeAsset(asset string) string {
	normalized := strings.TrimSpace(strings.ToUpper(asset))
	if normalized == "" {
		normalized = "UNKNOWN"
	}
	return normalized
}
