package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/modalflow/modalflow/fusion"
	"github.com/modalflow/modalflow/internal/cache"
	"github.com/modalflow/modalflow/processor"
	"github.com/modalflow/modalflow/routing"
	"github.com/modalflow/modalflow/transform"
	"github.com/modalflow/modalflow/types"
)

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithLogger replaces the engine's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProcessor installs or replaces the processor for its modality.
func WithProcessor(p processor.Processor) Option {
	return func(e *Engine) {
		e.processors[p.Modality()] = p
	}
}

// WithPreprocessor installs a preprocessor for modality m.
func WithPreprocessor(m types.Modality, p transform.Preprocessor) Option {
	return func(e *Engine) {
		e.transforms.RegisterPreprocessor(m, p)
	}
}

// WithPostprocessor installs a postprocessor for modality m.
func WithPostprocessor(m types.Modality, p transform.Postprocessor) Option {
	return func(e *Engine) {
		e.transforms.RegisterPostprocessor(m, p)
	}
}

// WithFusionStrategy installs or replaces the fusion strategy for a mode.
func WithFusionStrategy(mode types.FusionMode, s fusion.Strategy) Option {
	return func(e *Engine) {
		e.fusion.RegisterStrategy(mode, s)
	}
}

// WithMetricsRegistry registers the engine's collectors against reg instead
// of a private registry.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metricsReg = reg
	}
}

// WithResponseCache attaches a response cache. The engine takes ownership
// and closes it on Close.
func WithResponseCache(c *cache.ResponseCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithProbe sets the health probe used by the endpoint health checker.
func WithProbe(probe routing.ProbeFunc) Option {
	return func(e *Engine) {
		e.probe = probe
	}
}
