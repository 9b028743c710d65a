package processor

import (
	"context"
	"time"

	"github.com/modalflow/modalflow/types"
)

// NoOp is the explicit pass-through processor: each input is echoed back as
// an output of the same modality with confidence 1.0. Use it to plug a
// modality slot without inference, for example in tests or while a real
// backend is being provisioned. Unlike a silent stub, its behavior is part of
// the contract: outputs mirror inputs byte for byte.
type NoOp struct {
	modality types.Modality
}

// NewNoOp creates a pass-through processor for the given modality.
func NewNoOp(m types.Modality) *NoOp {
	return &NoOp{modality: m}
}

func (p *NoOp) Modality() types.Modality { return p.modality }

func (p *NoOp) SupportedFormats() []string { return []string{"*/*"} }

func (p *NoOp) Capabilities() []string { return []string{"passthrough"} }

// Process echoes each input as an output. The modality check still applies.
func (p *NoOp) Process(ctx context.Context, inputs []types.Input, _ map[string]any) ([]types.Output, error) {
	outputs := make([]types.Output, 0, len(inputs))
	for _, in := range inputs {
		if ctx.Err() != nil {
			return nil, aborted(ctx, p.modality)
		}
		if err := checkInput(in, p.modality); err != nil {
			return nil, err
		}
		data := make([]byte, len(in.Data))
		copy(data, in.Data)
		outputs = append(outputs, types.Output{
			Modality:   p.modality,
			Data:       data,
			Format:     in.Format,
			Confidence: 1.0,
			Metadata:   map[string]string{"task": "passthrough"},
			Timestamp:  time.Now(),
		})
	}
	return outputs, nil
}
