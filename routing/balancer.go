package routing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/modalflow/modalflow/types"
)

// BalanceStrategy selects one endpoint from the healthy candidates. The
// candidate slice is never empty.
type BalanceStrategy interface {
	Name() string
	Select(candidates []Endpoint) Endpoint
}

// RoundRobin cycles through candidates with an atomic counter.
type RoundRobin struct {
	next atomic.Uint64
}

func (*RoundRobin) Name() string { return "round_robin" }

func (s *RoundRobin) Select(candidates []Endpoint) Endpoint {
	n := s.next.Add(1) - 1
	return candidates[n%uint64(len(candidates))]
}

// LeastLoaded picks the candidate with the lowest recorded load, preferring
// the earlier entry on ties.
type LeastLoaded struct{}

func (LeastLoaded) Name() string { return "least_loaded" }

func (LeastLoaded) Select(candidates []Endpoint) Endpoint {
	best := candidates[0]
	for _, ep := range candidates[1:] {
		if ep.Load < best.Load {
			best = ep
		}
	}
	return best
}

// Random picks uniformly among candidates. The shared math/rand source is
// safe for concurrent picks.
type Random struct{}

func (Random) Name() string { return "random" }

func (Random) Select(candidates []Endpoint) Endpoint {
	return candidates[rand.Intn(len(candidates))]
}

// NewBalanceStrategy returns the strategy registered under name.
func NewBalanceStrategy(name string) (BalanceStrategy, error) {
	switch name {
	case "", "round_robin":
		return &RoundRobin{}, nil
	case "least_loaded":
		return LeastLoaded{}, nil
	case "random":
		return Random{}, nil
	default:
		return nil, fmt.Errorf("unknown load balancing strategy %q", name)
	}
}

// Balancer picks healthy endpoints per modality using the configured
// strategy and feeds request outcomes back into the load metrics.
type Balancer struct {
	registry *Registry
	strategy BalanceStrategy
	metrics  *LoadMetrics
	logger   *zap.Logger
}

// NewBalancer builds a balancer over the registry.
func NewBalancer(registry *Registry, strategy BalanceStrategy, logger *zap.Logger) *Balancer {
	return &Balancer{
		registry: registry,
		strategy: strategy,
		metrics:  NewLoadMetrics(),
		logger:   logger.With(zap.String("component", "balancer")),
	}
}

// Metrics exposes the per-endpoint load counters.
func (b *Balancer) Metrics() *LoadMetrics { return b.metrics }

// Pick selects a healthy endpoint serving modality m. Only endpoints the
// health checker currently marks healthy are candidates.
func (b *Balancer) Pick(m types.Modality) (Endpoint, error) {
	all := b.registry.ForModality(m)
	healthy := all[:0:0]
	for _, ep := range all {
		if ep.Healthy {
			healthy = append(healthy, ep)
		}
	}
	if len(healthy) == 0 {
		return Endpoint{}, types.NewErrorf(types.ErrNoEndpointAvailable,
			"no healthy endpoint for modality %s", m).
			WithModality(m).
			WithRetryable(true)
	}

	ep := b.strategy.Select(healthy)
	b.logger.Debug("endpoint selected",
		zap.String("endpoint", ep.ID),
		zap.String("modality", string(m)),
		zap.String("strategy", b.strategy.Name()))
	return ep, nil
}

// Report records the outcome of a request served by an endpoint and refreshes
// its load estimate from the running error rate.
func (b *Balancer) Report(endpointID string, latency time.Duration, failed bool) {
	b.metrics.Record(endpointID, latency, failed)
	load := float64(b.metrics.RequestCount(endpointID))
	b.registry.setLoad(endpointID, load)
}
