package routing

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/modalflow/modalflow/types"
)

// Route names a processing path for a (task, model) pair: which modalities
// it involves, which endpoints may serve each modality, and the defaults the
// pair inherits. Routes are read-mostly configuration; an empty endpoint
// list for a modality means any endpoint of that modality qualifies.
type Route struct {
	Task       string                      `json:"task"`
	ModelID    string                      `json:"model_id"`
	Modalities []types.Modality            `json:"modalities"`
	Endpoints  map[types.Modality][]string `json:"endpoints,omitempty"`
	FusionMode types.FusionMode            `json:"fusion_mode,omitempty"`
	Priority   int                         `json:"priority,omitempty"`
	Timeout    time.Duration               `json:"timeout,omitempty"`
}

func routeKey(task, modelID string) string {
	return task + "/" + modelID
}

// Router maps (task, model) pairs to routes and resolves them to concrete
// endpoints through the balancer.
type Router struct {
	mu       sync.RWMutex
	routes   map[string]Route
	balancer *Balancer
	logger   *zap.Logger
}

// NewRouter builds a router over the balancer.
func NewRouter(balancer *Balancer, logger *zap.Logger) *Router {
	return &Router{
		routes:   make(map[string]Route),
		balancer: balancer,
		logger:   logger.With(zap.String("component", "router")),
	}
}

// AddRoute installs or replaces the route for its (task, model) pair.
func (r *Router) AddRoute(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[routeKey(route.Task, route.ModelID)] = route
	r.logger.Info("route added",
		zap.String("task", route.Task),
		zap.String("model", route.ModelID),
		zap.Int("modalities", len(route.Modalities)))
}

// Lookup returns the route for a (task, model) pair.
func (r *Router) Lookup(task, modelID string) (Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	route, ok := r.routes[routeKey(task, modelID)]
	return route, ok
}

// Resolve picks a healthy endpoint for one modality of a (task, model) pair.
// When the route restricts the modality to specific endpoints, only those
// are candidates; otherwise any healthy endpoint of the modality qualifies.
func (r *Router) Resolve(task, modelID string, m types.Modality) (Endpoint, error) {
	route, ok := r.Lookup(task, modelID)
	if !ok || len(route.Endpoints[m]) == 0 {
		return r.balancer.Pick(m)
	}

	allowed := make(map[string]struct{}, len(route.Endpoints[m]))
	for _, id := range route.Endpoints[m] {
		allowed[id] = struct{}{}
	}

	var candidates []Endpoint
	for _, ep := range r.balancer.registry.ForModality(m) {
		if !ep.Healthy {
			continue
		}
		if _, ok := allowed[ep.ID]; ok {
			candidates = append(candidates, ep)
		}
	}
	if len(candidates) == 0 {
		return Endpoint{}, types.NewErrorf(types.ErrNoEndpointAvailable,
			"no healthy endpoint for task %s model %s modality %s", task, modelID, m).
			WithModality(m).
			WithRetryable(true)
	}
	return r.balancer.strategy.Select(candidates), nil
}
