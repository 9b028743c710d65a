package routing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modalflow/modalflow/config"
	"github.com/modalflow/modalflow/types"
)

func endpoint(id string, m types.Modality, healthy bool) Endpoint {
	return Endpoint{
		ID:       id,
		Address:  "10.0.0.1:8080",
		Modality: m,
		Healthy:  healthy,
	}
}

func newTestBalancer(t *testing.T, strategyName string, endpoints ...Endpoint) *Balancer {
	t.Helper()
	reg := NewRegistry(zap.NewNop())
	for _, ep := range endpoints {
		reg.Register(ep)
	}
	strategy, err := NewBalanceStrategy(strategyName)
	require.NoError(t, err)
	return NewBalancer(reg, strategy, zap.NewNop())
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(endpoint("ep-1", types.ModalityText, true))
	reg.Register(endpoint("ep-2", types.ModalityImage, true))

	got, ok := reg.Get("ep-1")
	require.True(t, ok)
	assert.Equal(t, types.ModalityText, got.Modality)

	assert.Len(t, reg.Snapshot(), 2)
	assert.Len(t, reg.ForModality(types.ModalityText), 1)

	reg.Deregister("ep-1")
	_, ok = reg.Get("ep-1")
	assert.False(t, ok)
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(endpoint("ep-1", types.ModalityText, true))

	snap := reg.Snapshot()
	snap[0].Healthy = false

	got, _ := reg.Get("ep-1")
	assert.True(t, got.Healthy)
}

func TestRoundRobinCycles(t *testing.T) {
	b := newTestBalancer(t, "round_robin",
		endpoint("ep-1", types.ModalityText, true),
		endpoint("ep-2", types.ModalityText, true))

	seen := map[string]int{}
	for i := 0; i < 10; i++ {
		ep, err := b.Pick(types.ModalityText)
		require.NoError(t, err)
		seen[ep.ID]++
	}
	assert.Equal(t, 5, seen["ep-1"])
	assert.Equal(t, 5, seen["ep-2"])
}

func TestPickSkipsUnhealthy(t *testing.T) {
	b := newTestBalancer(t, "round_robin",
		endpoint("ep-1", types.ModalityText, false),
		endpoint("ep-2", types.ModalityText, true),
		endpoint("ep-3", types.ModalityText, false))

	for i := 0; i < 5; i++ {
		ep, err := b.Pick(types.ModalityText)
		require.NoError(t, err)
		assert.Equal(t, "ep-2", ep.ID)
	}
}

func TestPickNoHealthyEndpoint(t *testing.T) {
	b := newTestBalancer(t, "round_robin",
		endpoint("ep-1", types.ModalityText, false))

	_, err := b.Pick(types.ModalityText)
	require.Error(t, err)
	assert.Equal(t, types.ErrNoEndpointAvailable, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))
}

func TestPickNoEndpointForModality(t *testing.T) {
	b := newTestBalancer(t, "round_robin",
		endpoint("ep-1", types.ModalityText, true))

	_, err := b.Pick(types.ModalityVideo)
	require.Error(t, err)
	assert.Equal(t, types.ErrNoEndpointAvailable, types.CodeOf(err))
}

func TestLeastLoaded(t *testing.T) {
	light := endpoint("light", types.ModalityText, true)
	light.Load = 1
	heavy := endpoint("heavy", types.ModalityText, true)
	heavy.Load = 10

	b := newTestBalancer(t, "least_loaded", heavy, light)

	ep, err := b.Pick(types.ModalityText)
	require.NoError(t, err)
	assert.Equal(t, "light", ep.ID)
}

func TestRandomStaysWithinCandidates(t *testing.T) {
	b := newTestBalancer(t, "random",
		endpoint("ep-1", types.ModalityText, true),
		endpoint("ep-2", types.ModalityText, true))

	for i := 0; i < 20; i++ {
		ep, err := b.Pick(types.ModalityText)
		require.NoError(t, err)
		assert.Contains(t, []string{"ep-1", "ep-2"}, ep.ID)
	}
}

func TestNewBalanceStrategyUnknown(t *testing.T) {
	_, err := NewBalanceStrategy("fastest")
	assert.Error(t, err)
}

func TestBalancerReportUpdatesLoad(t *testing.T) {
	b := newTestBalancer(t, "round_robin",
		endpoint("ep-1", types.ModalityText, true))

	b.Report("ep-1", 10*time.Millisecond, false)
	b.Report("ep-1", 30*time.Millisecond, true)

	assert.Equal(t, int64(2), b.Metrics().RequestCount("ep-1"))
	assert.InDelta(t, 0.5, b.Metrics().ErrorRate("ep-1"), 1e-9)
	assert.Equal(t, 20*time.Millisecond, b.Metrics().AvgLatency("ep-1"))

	ep, _ := b.registry.Get("ep-1")
	assert.InDelta(t, 2.0, ep.Load, 1e-9)
}

func TestHealthCheckerMarksEndpoints(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(endpoint("up", types.ModalityText, false))
	reg.Register(endpoint("down", types.ModalityText, true))

	probe := func(ctx context.Context, ep Endpoint) error {
		if ep.ID == "down" {
			return errors.New("connection refused")
		}
		return nil
	}

	h := NewHealthChecker(reg, probe, config.RoutingConfig{
		CheckInterval: time.Minute,
		Timeout:       time.Second,
	}, zap.NewNop())

	h.Sweep(context.Background())

	up, _ := reg.Get("up")
	assert.True(t, up.Healthy)
	assert.False(t, up.LastCheck.IsZero())

	down, _ := reg.Get("down")
	assert.False(t, down.Healthy)
}

func TestHealthCheckerStartStop(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(endpoint("ep-1", types.ModalityText, false))

	var mu sync.Mutex
	probes := 0
	probe := func(ctx context.Context, ep Endpoint) error {
		mu.Lock()
		probes++
		mu.Unlock()
		return nil
	}

	h := NewHealthChecker(reg, probe, config.RoutingConfig{
		CheckInterval: time.Hour,
		Timeout:       time.Second,
	}, zap.NewNop())

	h.Start(context.Background())
	h.Stop()
	// Stop again must not panic or block.
	h.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, probes, "exactly the initial sweep ran")
}

func TestRouterLookup(t *testing.T) {
	b := newTestBalancer(t, "round_robin")
	r := NewRouter(b, zap.NewNop())

	r.AddRoute(Route{
		Task:       "image_classification",
		ModelID:    "resnet",
		Modalities: []types.Modality{types.ModalityImage},
	})

	route, ok := r.Lookup("image_classification", "resnet")
	require.True(t, ok)
	assert.Equal(t, []types.Modality{types.ModalityImage}, route.Modalities)

	_, ok = r.Lookup("image_classification", "other")
	assert.False(t, ok)
}

func TestRouterResolveRestrictedRoute(t *testing.T) {
	b := newTestBalancer(t, "round_robin",
		endpoint("allowed", types.ModalityImage, true),
		endpoint("other", types.ModalityImage, true))
	r := NewRouter(b, zap.NewNop())

	r.AddRoute(Route{
		Task:       "image_classification",
		ModelID:    "resnet",
		Modalities: []types.Modality{types.ModalityImage},
		Endpoints: map[types.Modality][]string{
			types.ModalityImage: {"allowed"},
		},
	})

	for i := 0; i < 5; i++ {
		ep, err := r.Resolve("image_classification", "resnet", types.ModalityImage)
		require.NoError(t, err)
		assert.Equal(t, "allowed", ep.ID)
	}
}

func TestRouterResolveFallsBackToBalancer(t *testing.T) {
	b := newTestBalancer(t, "round_robin",
		endpoint("ep-1", types.ModalityText, true))
	r := NewRouter(b, zap.NewNop())

	ep, err := r.Resolve("text_generation", "unrouted", types.ModalityText)
	require.NoError(t, err)
	assert.Equal(t, "ep-1", ep.ID)
}

func TestRouterResolveNoHealthyRestricted(t *testing.T) {
	b := newTestBalancer(t, "round_robin",
		endpoint("allowed", types.ModalityImage, false))
	r := NewRouter(b, zap.NewNop())

	r.AddRoute(Route{
		Task:    "image_classification",
		ModelID: "resnet",
		Endpoints: map[types.Modality][]string{
			types.ModalityImage: {"allowed"},
		},
	})

	_, err := r.Resolve("image_classification", "resnet", types.ModalityImage)
	require.Error(t, err)
	assert.Equal(t, types.ErrNoEndpointAvailable, types.CodeOf(err))
}

func TestLoadMetricsZeroValues(t *testing.T) {
	m := NewLoadMetrics()
	assert.Zero(t, m.ErrorRate("missing"))
	assert.Zero(t, m.AvgLatency("missing"))
	assert.Zero(t, m.RequestCount("missing"))
}
