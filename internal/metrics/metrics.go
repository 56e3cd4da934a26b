// Package metrics bundles the Prometheus collectors of stellarsplit.
//
// All methods are safe on a nil *Metrics, so components can take an optional
// bundle without guarding every call.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stellarsplit"

// Result labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics bundles stellarsplit metrics.
type Metrics struct {
	PaymentsTotal        *prometheus.CounterVec
	PaymentDuration      prometheus.Histogram
	WalletConnectsTotal  *prometheus.CounterVec
	BalanceRefreshTotal  *prometheus.CounterVec
	BillsCreatedTotal    prometheus.Counter
	BillsSettledTotal    prometheus.Counter
	LedgerRequestsTotal  *prometheus.CounterVec
	LedgerSubmissions    *prometheus.CounterVec
	AgentSignaturesTotal *prometheus.CounterVec
}

// New constructs the collectors and registers them on reg. A nil reg leaves
// them unregistered, which tests use to avoid the global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PaymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Participant payments by result",
		}, []string{"result"}),
		PaymentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_duration_seconds",
			Help:      "Build, sign and submit duration in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		WalletConnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_connects_total",
			Help:      "Wallet connection attempts by result",
		}, []string{"result"}),
		BalanceRefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_refresh_total",
			Help:      "Balance refreshes by outcome state",
		}, []string{"state"}),
		BillsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Bills created",
		}),
		BillsSettledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_settled_total",
			Help:      "Bills whose last share was confirmed",
		}),
		LedgerRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_requests_total",
			Help:      "Ledger service requests by operation and result",
		}, []string{"op", "result"}),
		LedgerSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledgersim_submissions_total",
			Help:      "Transactions applied or rejected by the development ledger",
		}, []string{"code"}),
		AgentSignaturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signer_signatures_total",
			Help:      "Signature requests handled by the development agent",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.PaymentsTotal,
			m.PaymentDuration,
			m.WalletConnectsTotal,
			m.BalanceRefreshTotal,
			m.BillsCreatedTotal,
			m.BillsSettledTotal,
			m.LedgerRequestsTotal,
			m.LedgerSubmissions,
			m.AgentSignaturesTotal,
		)
	}
	return m
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObservePayment records one payment attempt.
func (m *Metrics) ObservePayment(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.PaymentsTotal.WithLabelValues(result(err)).Inc()
	m.PaymentDuration.Observe(d.Seconds())
}

// ObserveConnect records one wallet connection attempt.
func (m *Metrics) ObserveConnect(err error) {
	if m == nil {
		return
	}
	m.WalletConnectsTotal.WithLabelValues(result(err)).Inc()
}

// ObserveBalance records a balance refresh by its resulting state.
func (m *Metrics) ObserveBalance(state string) {
	if m == nil {
		return
	}
	m.BalanceRefreshTotal.WithLabelValues(state).Inc()
}

// BillCreated counts a created bill.
func (m *Metrics) BillCreated() {
	if m == nil {
		return
	}
	m.BillsCreatedTotal.Inc()
}

// BillSettled counts a bill that became settled.
func (m *Metrics) BillSettled() {
	if m == nil {
		return
	}
	m.BillsSettledTotal.Inc()
}

// ObserveLedgerRequest records one ledger service call.
func (m *Metrics) ObserveLedgerRequest(op string, err error) {
	if m == nil {
		return
	}
	m.LedgerRequestsTotal.WithLabelValues(op, result(err)).Inc()
}

// ObserveSubmission records the result code of a development ledger
// submission.
func (m *Metrics) ObserveSubmission(code string) {
	if m == nil {
		return
	}
	m.LedgerSubmissions.WithLabelValues(code).Inc()
}

// ObserveSignature records a signature request outcome.
func (m *Metrics) ObserveSignature(outcome string) {
	if m == nil {
		return
	}
	m.AgentSignaturesTotal.WithLabelValues(outcome).Inc()
}
