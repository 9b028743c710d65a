package routing

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/modalflow/modalflow/types"
)

// Endpoint is an addressable backend instance capable of processing one
// modality. Healthy and LastCheck are written only by the health checker;
// Load is written only by the balancer's feedback path.
type Endpoint struct {
	ID           string         `json:"id"`
	Address      string         `json:"address"`
	Modality     types.Modality `json:"modality"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Load         float64        `json:"load"`
	Healthy      bool           `json:"healthy"`
	LastCheck    time.Time      `json:"last_check"`
}

// Registry tracks the endpoint fleet. It follows a single-writer
// many-readers discipline: the health checker writes health fields, the
// balancer writes load, everything else reads snapshots.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]*Endpoint
	logger    *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		endpoints: make(map[string]*Endpoint),
		logger:    logger.With(zap.String("component", "endpoint_registry")),
	}
}

// Register adds or replaces an endpoint, keeping the supplied health flag
// until the next probe overwrites it. Callers that want an endpoint held
// back until its first successful probe register it with Healthy false.
func (r *Registry) Register(ep Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := ep
	r.endpoints[ep.ID] = &stored
	r.logger.Info("endpoint registered",
		zap.String("endpoint", ep.ID),
		zap.String("modality", string(ep.Modality)),
		zap.String("address", ep.Address))
}

// Deregister removes an endpoint.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.endpoints, id)
}

// Get returns a copy of the endpoint with the given ID.
func (r *Registry) Get(id string) (Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.endpoints[id]
	if !ok {
		return Endpoint{}, false
	}
	return *ep, true
}

// Snapshot returns copies of all registered endpoints, ordered by ID so that
// callers iterating the fleet behave deterministically.
func (r *Registry) Snapshot() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, *ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ForModality returns copies of the endpoints serving modality m, ordered by
// ID. A stable order keeps round robin selection cycling evenly.
func (r *Registry) ForModality(m types.Modality) []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Endpoint
	for _, ep := range r.endpoints {
		if ep.Modality == m {
			out = append(out, *ep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// setHealth records a probe result. Package-private: the health checker is
// the only writer of health state.
func (r *Registry) setHealth(id string, healthy bool, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ep, ok := r.endpoints[id]; ok {
		ep.Healthy = healthy
		ep.LastCheck = at
	}
}

// setLoad records the balancer's load estimate for an endpoint.
func (r *Registry) setLoad(id string, load float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ep, ok := r.endpoints[id]; ok {
		ep.Load = load
	}
}

// LoadMetrics aggregates per-endpoint request counters fed back by the
// balancer, guarded by a read/write lock.
type LoadMetrics struct {
	mu           sync.RWMutex
	requestCount map[string]int64
	errorCount   map[string]int64
	totalLatency map[string]time.Duration
}

// NewLoadMetrics creates an empty metrics table.
func NewLoadMetrics() *LoadMetrics {
	return &LoadMetrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		totalLatency: make(map[string]time.Duration),
	}
}

// Record registers one request against an endpoint.
func (m *LoadMetrics) Record(endpointID string, latency time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[endpointID]++
	m.totalLatency[endpointID] += latency
	if failed {
		m.errorCount[endpointID]++
	}
}

// ErrorRate returns the fraction of failed requests for an endpoint, or 0
// when it has served none.
func (m *LoadMetrics) ErrorRate(endpointID string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := m.requestCount[endpointID]
	if total == 0 {
		return 0
	}
	return float64(m.errorCount[endpointID]) / float64(total)
}

// AvgLatency returns the mean request latency for an endpoint.
func (m *LoadMetrics) AvgLatency(endpointID string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := m.requestCount[endpointID]
	if total == 0 {
		return 0
	}
	return m.totalLatency[endpointID] / time.Duration(total)
}

// RequestCount returns the number of requests recorded for an endpoint.
func (m *LoadMetrics) RequestCount(endpointID string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount[endpointID]
}
