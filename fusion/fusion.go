package fusion

import (
	"go.uber.org/zap"

	"github.com/modalflow/modalflow/config"
	"github.com/modalflow/modalflow/types"
)

// Default per-modality fusion weights.
const (
	DefaultTextWeight  = 0.4
	DefaultImageWeight = 0.3
	DefaultAudioWeight = 0.2
	DefaultVideoWeight = 0.1
)

// Engine owns the strategy table and the per-modality weight map. The weight
// map is read-mostly: only the optional learner mutates it, so reads take the
// learner's read lock via snapshot.
type Engine struct {
	strategies map[types.FusionMode]Strategy
	weights    map[types.Modality]float64
	learner    *Learner
	logger     *zap.Logger
}

// NewEngine creates a fusion engine with the built-in strategies and default
// weights. When cfg.LearningEnabled is set, a learner is attached and its
// weights take precedence over the defaults.
func NewEngine(cfg config.FusionConfig, logger *zap.Logger) *Engine {
	e := &Engine{
		strategies: map[types.FusionMode]Strategy{
			types.FusionLate:   LateFusion{},
			types.FusionEarly:  EarlyFusion{},
			types.FusionHybrid: HybridFusion{},
		},
		weights: map[types.Modality]float64{
			types.ModalityText:  DefaultTextWeight,
			types.ModalityImage: DefaultImageWeight,
			types.ModalityAudio: DefaultAudioWeight,
			types.ModalityVideo: DefaultVideoWeight,
		},
		logger: logger.With(zap.String("component", "fusion")),
	}
	if cfg.LearningEnabled {
		e.learner = NewLearner(e.weights, cfg.WeightDecay)
		e.logger.Info("fusion weight learning enabled",
			zap.Float64("weight_decay", cfg.WeightDecay))
	}
	return e
}

// RegisterStrategy installs or replaces the strategy for a fusion mode.
func (e *Engine) RegisterStrategy(mode types.FusionMode, s Strategy) {
	e.strategies[mode] = s
}

// Strategies returns a snapshot of the registered strategies by mode.
func (e *Engine) Strategies() map[types.FusionMode]Strategy {
	snapshot := make(map[types.FusionMode]Strategy, len(e.strategies))
	for mode, s := range e.strategies {
		snapshot[mode] = s
	}
	return snapshot
}

// Weights returns the current per-modality weights. With learning enabled the
// learner's weights are returned; otherwise the configured defaults.
func (e *Engine) Weights() map[types.Modality]float64 {
	if e.learner != nil {
		return e.learner.Weights()
	}
	snapshot := make(map[types.Modality]float64, len(e.weights))
	for m, w := range e.weights {
		snapshot[m] = w
	}
	return snapshot
}

// Fuse combines the per-modality outputs using the strategy registered for
// mode. Callers invoke it only when mode != none and at least two modalities
// produced output.
func (e *Engine) Fuse(mode types.FusionMode, outputs map[types.Modality][]types.Output) (*types.Output, error) {
	strategy, ok := e.strategies[mode]
	if !ok {
		return nil, types.NewErrorf(types.ErrFusionFailed,
			"no fusion strategy registered for mode %q", mode)
	}
	if len(outputs) == 0 {
		return nil, types.NewError(types.ErrFusionFailed, "no outputs to fuse")
	}

	fused, err := strategy.Fuse(outputs, e.Weights())
	if err != nil {
		return nil, types.NewErrorf(types.ErrFusionFailed,
			"strategy %s failed", strategy.Name()).WithCause(err)
	}

	e.logger.Debug("outputs fused",
		zap.String("strategy", strategy.Name()),
		zap.Int("modalities", len(outputs)),
		zap.Float64("confidence", fused.Confidence))

	return fused, nil
}

// Record feeds an observed result to the learner. It is a no-op when
// learning is disabled.
func (e *Engine) Record(observed map[types.Modality]float64) {
	if e.learner == nil {
		return
	}
	e.learner.Record(observed)
}
