package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollectorRegistersAgainstProvidedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("modalflow", reg, zap.NewNop())

	c.ObserveRequest("ok", 10*time.Millisecond)
	c.ObserveStage("dispatch", 5*time.Millisecond)
	c.AddOutputs("text", 3)
	c.ObserveFusion("late_fusion")
	c.SetHealthyEndpoints("image", 2)
	c.CacheHit()
	c.CacheMiss()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"modalflow_requests_total",
		"modalflow_request_duration_seconds",
		"modalflow_stage_duration_seconds",
		"modalflow_outputs_total",
		"modalflow_fusion_total",
		"modalflow_endpoints_healthy",
		"modalflow_cache_hits_total",
		"modalflow_cache_misses_total",
	} {
		assert.True(t, names[want], want)
	}
}

func TestCollectorCounterValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("modalflow", reg, zap.NewNop())

	c.ObserveRequest("ok", time.Millisecond)
	c.ObserveRequest("ok", time.Millisecond)
	c.ObserveRequest("error", time.Millisecond)
	c.AddOutputs("text", 2)
	c.SetHealthyEndpoints("text", 4)

	assert.InDelta(t, 2.0,
		testutil.ToFloat64(c.requestsTotal.WithLabelValues("ok")), 1e-9)
	assert.InDelta(t, 1.0,
		testutil.ToFloat64(c.requestsTotal.WithLabelValues("error")), 1e-9)
	assert.InDelta(t, 2.0,
		testutil.ToFloat64(c.outputsTotal.WithLabelValues("text")), 1e-9)
	assert.InDelta(t, 4.0,
		testutil.ToFloat64(c.endpointHealthy.WithLabelValues("text")), 1e-9)
}

func TestTwoCollectorsDoNotCollide(t *testing.T) {
	// Separate registries keep separate engines independent.
	a := NewCollector("modalflow", prometheus.NewRegistry(), zap.NewNop())
	b := NewCollector("modalflow", prometheus.NewRegistry(), zap.NewNop())

	a.CacheHit()
	assert.InDelta(t, 1.0, testutil.ToFloat64(a.cacheHits), 1e-9)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.cacheHits), 1e-9)
}
