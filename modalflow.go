// Package modalflow is the public entry point for the multimodal inference
// orchestration engine. It re-exports the core types and wires the engine,
// configuration and optional response cache together so most callers only
// import this package.
package modalflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modalflow/modalflow/config"
	"github.com/modalflow/modalflow/engine"
	"github.com/modalflow/modalflow/internal/cache"
	"github.com/modalflow/modalflow/types"
)

// Version is the library version.
const Version = "0.3.0"

// Re-exported core types.
type (
	Request    = types.Request
	Response   = types.Response
	Input      = types.Input
	Output     = types.Output
	Modality   = types.Modality
	FusionMode = types.FusionMode
	Error      = types.Error
	Engine     = engine.Engine
	Option     = engine.Option
	Config     = config.Config
)

// Re-exported modality and fusion mode constants.
const (
	ModalityText  = types.ModalityText
	ModalityImage = types.ModalityImage
	ModalityAudio = types.ModalityAudio
	ModalityVideo = types.ModalityVideo

	FusionNone   = types.FusionNone
	FusionEarly  = types.FusionEarly
	FusionLate   = types.FusionLate
	FusionHybrid = types.FusionHybrid
)

// New builds an engine from cfg, attaching the redis response cache when the
// configuration enables it. A nil cfg uses the defaults.
func New(cfg *config.Config, logger *zap.Logger, opts ...engine.Option) (*engine.Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if cfg.Cache.Enabled {
		manager, err := cache.NewManager(cfg.Cache, logger)
		if err != nil {
			return nil, fmt.Errorf("modalflow: %w", err)
		}
		engineOpts = append(engineOpts, engine.WithResponseCache(
			cache.NewResponseCache(manager, logger)))
	}
	engineOpts = append(engineOpts, opts...)

	return engine.New(cfg, engineOpts...)
}

// NewRequest mints a request with a fresh ID for modelID. Inputs are added
// by the caller via AddInput.
func NewRequest(modelID string) *types.Request {
	return &types.Request{
		ID:      uuid.NewString(),
		ModelID: modelID,
		Inputs:  make(map[types.Modality][]types.Input),
	}
}

// AddInput appends an input to the request under its modality, assigning the
// next sequence number within that modality.
func AddInput(req *types.Request, in types.Input) {
	if req.Inputs == nil {
		req.Inputs = make(map[types.Modality][]types.Input)
	}
	in.Sequence = len(req.Inputs[in.Modality])
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now()
	}
	req.Inputs[in.Modality] = append(req.Inputs[in.Modality], in)
}
