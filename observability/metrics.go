// Package observability exposes engine activity as Prometheus metrics.
// The Metrics type is a hook; register it with polar.WithHook and serve
// its registry (or the default one) from your application.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/transaction"
)

// Metrics implements the engine hook interfaces and records counters for
// balance transfers, fee reversals and payout fee computation.
type Metrics struct {
	namespace string

	// Counters
	balancesCreated *prometheus.CounterVec
	feePairs        *prometheus.CounterVec
	feeAmount       *prometheus.CounterVec
	reversals       prometheus.Counter
	payoutsComputed prometheus.Counter
	payoutsBlocked  prometheus.Counter

	// Gauges
	lastPayoutNet prometheus.Gauge
}

// NewMetrics creates a Metrics hook under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		namespace: namespace,
		balancesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "balances_created_total",
				Help:      "Total number of balance transfer pairs recorded",
			},
			[]string{"origin"},
		),
		feePairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fee_pairs_total",
				Help:      "Total number of fee pairs recorded per fee type",
			},
			[]string{"fee_type"},
		),
		feeAmount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fee_amount_minor_units_total",
				Help:      "Total fee amount charged per fee type, in currency minor units",
			},
			[]string{"fee_type", "currency"},
		),
		reversals: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fee_reversals_total",
				Help:      "Total number of fee reversal runs",
			},
		),
		payoutsComputed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payout_fees_computed_total",
				Help:      "Total number of payout fee computations",
			},
		),
		payoutsBlocked: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payouts_blocked_total",
				Help:      "Total number of payouts rejected before fee computation",
			},
		),
		lastPayoutNet: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_payout_net_minor_units",
				Help:      "Net amount of the most recent payout fee computation",
			},
		),
	}
}

// Name implements hook.Hook.
func (m *Metrics) Name() string { return "prometheus-metrics" }

// Register registers all collectors with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister registers all collectors with the default registry.
func (m *Metrics) MustRegister() {
	prometheus.MustRegister(m.collectors()...)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.balancesCreated,
		m.feePairs,
		m.feeAmount,
		m.reversals,
		m.payoutsComputed,
		m.payoutsBlocked,
		m.lastPayoutNet,
	}
}

// OnBalanceCreated implements hook.OnBalanceCreated.
func (m *Metrics) OnBalanceCreated(_ context.Context, pair transaction.Pair) error {
	origin := string(pair.Incoming.Origin.Kind)
	if origin == "" {
		origin = "none"
	}
	m.balancesCreated.WithLabelValues(origin).Inc()
	return nil
}

// OnFeesReversed implements hook.OnFeesReversed.
func (m *Metrics) OnFeesReversed(_ context.Context, _ transaction.Pair, fees []transaction.Pair) error {
	m.reversals.Inc()
	m.countFees(fees)
	return nil
}

// OnPayoutFeesComputed implements hook.OnPayoutFeesComputed.
func (m *Metrics) OnPayoutFeesComputed(_ context.Context, _ *account.Account, amount int64, fees []transaction.Pair) error {
	m.payoutsComputed.Inc()
	m.lastPayoutNet.Set(float64(amount))
	m.countFees(fees)
	return nil
}

// OnPayoutBlocked implements hook.OnPayoutBlocked.
func (m *Metrics) OnPayoutBlocked(_ context.Context, _ *account.Account, _ int64, _ error) error {
	m.payoutsBlocked.Inc()
	return nil
}

func (m *Metrics) countFees(fees []transaction.Pair) {
	for _, p := range fees {
		feeType := string(p.Outgoing.FeeType)
		m.feePairs.WithLabelValues(feeType).Inc()

		charged := p.Outgoing.Amount.Abs()
		m.feeAmount.WithLabelValues(feeType, charged.Currency).Add(float64(charged.Amount))
	}
}
