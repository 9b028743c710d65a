// Package engine orchestrates the multimodal inference pipeline: validate,
// preprocess, dispatch per modality, fuse, postprocess, aggregate.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/modalflow/modalflow/config"
	"github.com/modalflow/modalflow/fusion"
	"github.com/modalflow/modalflow/internal/cache"
	"github.com/modalflow/modalflow/internal/ctxkeys"
	"github.com/modalflow/modalflow/internal/metrics"
	"github.com/modalflow/modalflow/processor"
	"github.com/modalflow/modalflow/routing"
	"github.com/modalflow/modalflow/transform"
	"github.com/modalflow/modalflow/types"
)

const (
	metricsNamespace   = "modalflow"
	metricsSweepPeriod = time.Minute
	statusOK           = "ok"
	statusError        = "error"
	statusCacheHit     = "cache_hit"
)

// Engine runs multimodal inference requests through the full pipeline. One
// engine serves many concurrent callers; per-request state never escapes
// Process.
type Engine struct {
	cfg        *config.Config
	logger     *zap.Logger
	processors map[types.Modality]processor.Processor
	transforms *transform.Registry
	fusion     *fusion.Engine

	registry *routing.Registry
	balancer *routing.Balancer
	router   *routing.Router
	health   *routing.HealthChecker
	probe    routing.ProbeFunc

	metricsReg prometheus.Registerer
	collector  *metrics.Collector
	cache      *cache.ResponseCache
	tracer     trace.Tracer

	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// New assembles an engine from configuration. Processors for disabled
// modalities are not installed; requests naming them fail validation of the
// dispatch stage with a processing error.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	e := &Engine{
		cfg:        cfg,
		logger:     zap.NewNop(),
		processors: make(map[types.Modality]processor.Processor),
		transforms: transform.NewRegistry(),
		metricsReg: prometheus.NewRegistry(),
		probe: func(ctx context.Context, ep routing.Endpoint) error {
			return nil
		},
	}

	if cfg.Processors.Text.Enabled {
		e.processors[types.ModalityText] = processor.NewText(cfg.Processors.Text)
	}
	if cfg.Processors.Image.Enabled {
		e.processors[types.ModalityImage] = processor.NewImage(cfg.Processors.Image)
	}
	if cfg.Processors.Audio.Enabled {
		e.processors[types.ModalityAudio] = processor.NewAudio(cfg.Processors.Audio)
	}
	if cfg.Processors.Video.Enabled {
		e.processors[types.ModalityVideo] = processor.NewVideo(cfg.Processors.Video)
	}

	e.transforms.RegisterPreprocessor(types.ModalityText, transform.TextNormalizer{})
	for _, m := range types.AllModalities() {
		e.transforms.RegisterPostprocessor(m, transform.MetadataStamper{})
	}

	// Options need the fusion engine in place; build it with a throwaway
	// logger first, then rebuild components that capture the final logger.
	e.fusion = fusion.NewEngine(cfg.Fusion, e.logger)
	for _, opt := range opts {
		opt(e)
	}
	base := e.logger
	e.logger = base.With(zap.String("component", "engine"))

	e.fusion = rebuildFusion(cfg.Fusion, e.fusion, base)
	e.collector = metrics.NewCollector(metricsNamespace, e.metricsReg, base)
	e.tracer = otel.Tracer("modalflow/engine")

	e.registry = routing.NewRegistry(base)
	strategy, err := routing.NewBalanceStrategy(cfg.Routing.LoadBalancing)
	if err != nil {
		return nil, fmt.Errorf("engine routing: %w", err)
	}
	e.balancer = routing.NewBalancer(e.registry, strategy, base)
	e.router = routing.NewRouter(e.balancer, base)
	e.health = routing.NewHealthChecker(e.registry, e.probe, cfg.Routing, base)

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	if cfg.Routing.HealthCheck {
		e.health.Start(ctx)
	}
	e.wg.Add(1)
	go e.runMetricsSweep(ctx)

	e.logger.Info("engine started",
		zap.Int("processors", len(e.processors)),
		zap.String("load_balancing", strategy.Name()),
		zap.Bool("cache", e.cache != nil))

	return e, nil
}

// rebuildFusion recreates the fusion engine with the final logger while
// preserving strategies installed through options.
func rebuildFusion(cfg config.FusionConfig, old *fusion.Engine, logger *zap.Logger) *fusion.Engine {
	rebuilt := fusion.NewEngine(cfg, logger)
	for mode, s := range old.Strategies() {
		rebuilt.RegisterStrategy(mode, s)
	}
	return rebuilt
}

// Registry exposes the endpoint registry for fleet management.
func (e *Engine) Registry() *routing.Registry { return e.registry }

// Router exposes the (task, model) route table.
func (e *Engine) Router() *routing.Router { return e.router }

// Balancer exposes the endpoint load balancer.
func (e *Engine) Balancer() *routing.Balancer { return e.balancer }

// Processors returns the installed processors keyed by modality.
func (e *Engine) Processors() map[types.Modality]processor.Processor {
	snapshot := make(map[types.Modality]processor.Processor, len(e.processors))
	for m, p := range e.processors {
		snapshot[m] = p
	}
	return snapshot
}

// Process runs one request through the pipeline. A response is always
// returned; on failure its Error field carries the structured error text and
// the same error is returned for programmatic inspection.
func (e *Engine) Process(ctx context.Context, req *types.Request) (*types.Response, error) {
	start := time.Now()

	resp := &types.Response{
		Outputs:  make(map[types.Modality][]types.Output),
		Metadata: make(map[string]string),
	}
	if req != nil {
		resp.RequestID = req.ID
		resp.ModelUsed = req.ModelID
	}

	if err := ValidateRequest(req); err != nil {
		return e.fail(resp, start, err)
	}

	ctx = ctxkeys.WithRequestID(ctx, req.ID)
	ctx = ctxkeys.WithModelID(ctx, req.ModelID)
	ctx, span := e.tracer.Start(ctx, "engine.Process",
		trace.WithAttributes(
			attribute.String("request.id", req.ID),
			attribute.String("request.model", req.ModelID),
			attribute.Int("request.modalities", len(req.Inputs)),
		))
	defer span.End()

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if e.cache != nil {
		if cached, err := e.cache.Get(ctx, req); err == nil {
			e.collector.CacheHit()
			// The stored response belongs to whichever request populated
			// the cache; the reply must echo this caller.
			cached.RequestID = req.ID
			cached.ProcessingTime = time.Since(start)
			e.collector.ObserveRequest(statusCacheHit, cached.ProcessingTime)
			if cached.Metadata == nil {
				cached.Metadata = make(map[string]string, 1)
			}
			cached.Metadata["cache"] = "hit"
			e.logger.Debug("response served from cache", zap.String("request_id", req.ID))
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn("cache lookup failed", zap.Error(err))
		}
		e.collector.CacheMiss()
	}

	inputs, err := e.preprocess(req)
	if err != nil {
		return e.fail(resp, start, err)
	}

	outputs, err := e.dispatch(ctx, req, inputs)
	if err != nil {
		return e.fail(resp, start, err)
	}
	resp.Outputs = outputs

	mode := e.fusionMode(req)
	if mode != types.FusionNone && contributing(outputs) >= 2 {
		fuseStart := time.Now()
		fused, err := e.fusion.Fuse(mode, outputs)
		if err != nil {
			return e.fail(resp, start, err)
		}
		resp.FusedOutput = fused
		e.collector.ObserveStage("fuse", time.Since(fuseStart))
		e.collector.ObserveFusion(fused.Metadata["fusion_strategy"])
	}

	if err := e.postprocess(resp); err != nil {
		return e.fail(resp, start, err)
	}

	resp.Confidence = aggregateConfidence(resp.Outputs)
	resp.ProcessingTime = time.Since(start)
	e.collector.ObserveRequest(statusOK, resp.ProcessingTime)
	e.recordObservation(resp.Outputs)

	if e.cache != nil {
		e.cache.Put(ctx, req, resp)
	}

	e.logger.Info("request processed",
		zap.String("request_id", req.ID),
		zap.Int("modalities", len(resp.Outputs)),
		zap.Bool("fused", resp.FusedOutput != nil),
		zap.Float64("confidence", resp.Confidence),
		zap.Duration("elapsed", resp.ProcessingTime))

	return resp, nil
}

// preprocess applies the per-modality preprocessors in fixed modality order.
func (e *Engine) preprocess(req *types.Request) (map[types.Modality][]types.Input, error) {
	stageStart := time.Now()
	defer func() { e.collector.ObserveStage("preprocess", time.Since(stageStart)) }()

	prepared := make(map[types.Modality][]types.Input, len(req.Inputs))
	for _, modality := range req.Modalities() {
		pre := e.transforms.Preprocessor(modality)
		inputs := make([]types.Input, 0, len(req.Inputs[modality]))
		for _, in := range req.Inputs[modality] {
			transformed, err := pre.Transform(in)
			if err != nil {
				return nil, types.NewErrorf(types.ErrPreprocessFailed,
					"preprocessor %s failed for modality %s", pre.Name(), modality).
					WithModality(modality).WithCause(err)
			}
			inputs = append(inputs, transformed)
		}
		prepared[modality] = inputs
	}
	return prepared, nil
}

// dispatch fans out per-modality processing and reassembles the results in
// fixed modality order. Any modality failure aborts the whole request.
func (e *Engine) dispatch(ctx context.Context, req *types.Request, inputs map[types.Modality][]types.Input) (map[types.Modality][]types.Output, error) {
	stageStart := time.Now()
	defer func() { e.collector.ObserveStage("dispatch", time.Since(stageStart)) }()

	modalities := req.Modalities()
	for _, modality := range modalities {
		if _, ok := e.processors[modality]; !ok {
			return nil, types.NewErrorf(types.ErrProcessingFailed,
				"no processor installed for modality %s", modality).
				WithModality(modality)
		}
	}

	results := make([][]types.Output, len(modalities))
	g, gctx := errgroup.WithContext(ctx)
	for i, modality := range modalities {
		i, modality := i, modality
		proc := e.processors[modality]
		g.Go(func() error {
			outs, err := proc.Process(gctx, inputs[modality], req.Parameters)
			if err != nil {
				return err
			}
			results[i] = outs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outputs := make(map[types.Modality][]types.Output, len(modalities))
	for i, modality := range modalities {
		outputs[modality] = results[i]
		e.collector.AddOutputs(string(modality), len(results[i]))
	}
	return outputs, nil
}

// postprocess applies the per-modality postprocessors to every output,
// including the fused one.
func (e *Engine) postprocess(resp *types.Response) error {
	stageStart := time.Now()
	defer func() { e.collector.ObserveStage("postprocess", time.Since(stageStart)) }()

	for _, modality := range types.AllModalities() {
		outs, ok := resp.Outputs[modality]
		if !ok {
			continue
		}
		post := e.transforms.Postprocessor(modality)
		for i, out := range outs {
			transformed, err := post.Transform(out)
			if err != nil {
				return types.NewErrorf(types.ErrPostprocessFailed,
					"postprocessor %s failed for modality %s", post.Name(), modality).
					WithModality(modality).WithCause(err)
			}
			outs[i] = transformed
		}
	}

	if resp.FusedOutput != nil {
		post := e.transforms.Postprocessor(resp.FusedOutput.Modality)
		transformed, err := post.Transform(*resp.FusedOutput)
		if err != nil {
			return types.NewErrorf(types.ErrPostprocessFailed,
				"postprocessor %s failed for fused output", post.Name()).WithCause(err)
		}
		resp.FusedOutput = &transformed
	}
	return nil
}

// fusionMode resolves the request's fusion mode, falling back to the
// configured default.
func (e *Engine) fusionMode(req *types.Request) types.FusionMode {
	if req.FusionMode != "" {
		return req.FusionMode
	}
	if mode := types.FusionMode(e.cfg.Fusion.DefaultMode); mode.Valid() {
		return mode
	}
	return types.FusionLate
}

// recordObservation feeds mean per-modality confidences to the fusion weight
// learner.
func (e *Engine) recordObservation(outputs map[types.Modality][]types.Output) {
	observed := make(map[types.Modality]float64, len(outputs))
	for modality, outs := range outputs {
		if len(outs) == 0 {
			continue
		}
		var sum float64
		for _, out := range outs {
			sum += out.Confidence
		}
		observed[modality] = sum / float64(len(outs))
	}
	e.fusion.Record(observed)
}

// fail finalizes a response for a pipeline error.
func (e *Engine) fail(resp *types.Response, start time.Time, err error) (*types.Response, error) {
	resp.Error = err.Error()
	resp.ProcessingTime = time.Since(start)
	e.collector.ObserveRequest(statusError, resp.ProcessingTime)
	e.logger.Warn("request failed",
		zap.String("request_id", resp.RequestID),
		zap.String("code", string(types.CodeOf(err))),
		zap.Error(err))
	return resp, err
}

// runMetricsSweep periodically publishes fleet health gauges.
func (e *Engine) runMetricsSweep(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(metricsSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts := make(map[types.Modality]int)
			for _, ep := range e.registry.Snapshot() {
				if ep.Healthy {
					counts[ep.Modality]++
				}
			}
			for _, m := range types.AllModalities() {
				e.collector.SetHealthyEndpoints(string(m), counts[m])
			}
		}
	}
}

// Close stops the background sweeps and releases owned resources. It is safe
// to call more than once.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.cancel()
		e.health.Stop()
		e.wg.Wait()
		if e.cache != nil {
			err = e.cache.Close()
		}
		e.logger.Info("engine stopped")
	})
	return err
}

// contributing counts modalities that produced at least one output.
func contributing(outputs map[types.Modality][]types.Output) int {
	n := 0
	for _, outs := range outputs {
		if len(outs) > 0 {
			n++
		}
	}
	return n
}

// aggregateConfidence is the unweighted mean confidence over all
// per-modality outputs, 0 when there are none. The fused output is excluded;
// its confidence is already a weighted combination of the same values.
func aggregateConfidence(outputs map[types.Modality][]types.Output) float64 {
	var sum float64
	var n int
	for _, outs := range outputs {
		for _, out := range outs {
			sum += out.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
