package routing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/modalflow/modalflow/config"
)

// ProbeFunc checks a single endpoint and returns nil when it is serving.
type ProbeFunc func(ctx context.Context, ep Endpoint) error

// HealthChecker sweeps the registry on a fixed interval, probing every
// endpoint and recording the outcome. Probe failures flip the endpoint to
// unhealthy and are logged; they are never surfaced as request errors.
type HealthChecker struct {
	registry *Registry
	probe    ProbeFunc
	interval time.Duration
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewHealthChecker builds a checker over the registry. cfg.ProbeRateLimit
// caps probes per second across the fleet; zero disables pacing.
func NewHealthChecker(registry *Registry, probe ProbeFunc, cfg config.RoutingConfig, logger *zap.Logger) *HealthChecker {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.ProbeRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ProbeRateLimit), 1)
	}
	return &HealthChecker{
		registry: registry,
		probe:    probe,
		interval: interval,
		timeout:  timeout,
		limiter:  limiter,
		logger:   logger.With(zap.String("component", "health_checker")),
	}
}

// Start launches the sweep loop. It is idempotent while running.
func (h *HealthChecker) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.done = make(chan struct{})
	h.running = true

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		h.Sweep(loopCtx)
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				h.Sweep(loopCtx)
			}
		}
	}()
}

// Stop cancels the sweep loop and waits for it to exit.
func (h *HealthChecker) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.cancel()
	done := h.done
	h.running = false
	h.mu.Unlock()
	<-done
}

// Sweep probes every registered endpoint once and writes the results back to
// the registry.
func (h *HealthChecker) Sweep(ctx context.Context) {
	for _, ep := range h.registry.Snapshot() {
		if h.limiter != nil {
			if err := h.limiter.Wait(ctx); err != nil {
				return
			}
		}
		h.check(ctx, ep)
	}
}

func (h *HealthChecker) check(ctx context.Context, ep Endpoint) {
	probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.probe(probeCtx, ep)
	now := time.Now()
	h.registry.setHealth(ep.ID, err == nil, now)

	if err != nil {
		h.logger.Warn("endpoint probe failed",
			zap.String("endpoint", ep.ID),
			zap.String("address", ep.Address),
			zap.Error(err))
		return
	}
	if !ep.Healthy {
		h.logger.Info("endpoint recovered", zap.String("endpoint", ep.ID))
	}
}
