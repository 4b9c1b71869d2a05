package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/user/invite-harvester/pkg/metrics"
)

func TestMetrics_Record(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveValidation("Active", "ok", 200*time.Millisecond)
	m.ObserveValidation("Expired", "policy", time.Second)
	m.ObserveValidation("Expired", "policy", time.Second)
	m.IncHarvestPage("fetched")
	m.SetHarvestCandidates(7)
	m.ValidationStarted()
	m.ValidationStarted()
	m.ValidationFinished()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("Active", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("Expired", "policy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HarvestPagesTotal.WithLabelValues("fetched")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.HarvestCandidates))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationsInFlight))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveValidation("Active", "ok", time.Second)
		m.ValidationStarted()
		m.ValidationFinished()
		m.IncHarvestPage("failed")
		m.SetHarvestCandidates(1)
		m.IncRun("completed")
		m.ObserveHTTP("GET", "/", "200", time.Second)
	})
}
