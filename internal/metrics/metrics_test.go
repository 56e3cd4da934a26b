package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsplit/internal/metrics"
)

func TestNew_RegistersOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObservePayment(nil, time.Second)
	m.ObservePayment(errors.New("boom"), time.Second)
	m.BillCreated()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsTotal.WithLabelValues(metrics.ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentsTotal.WithLabelValues(metrics.ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BillsCreatedTotal))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "stellarsplit_payments_total")
	assert.Contains(t, names, "stellarsplit_bills_created_total")
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObservePayment(nil, time.Millisecond)
		m.ObserveConnect(nil)
		m.ObserveBalance("known")
		m.BillCreated()
		m.BillSettled()
		m.ObserveLedgerRequest("load_account", nil)
		m.ObserveSubmission("tx_success")
		m.ObserveSignature("approved")
	})
}
