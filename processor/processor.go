package processor

import (
	"context"

	"github.com/modalflow/modalflow/types"
)

// Processor executes one modality's inference tasks.
type Processor interface {
	// Modality returns the modality this processor serves.
	Modality() types.Modality
	// Process runs the task selected by params["task"] (or the modality
	// default) over inputs and returns one Output per input.
	Process(ctx context.Context, inputs []types.Input, params map[string]any) ([]types.Output, error)
	// SupportedFormats lists the input formats the processor accepts.
	SupportedFormats() []string
	// Capabilities lists the task names the processor can execute.
	Capabilities() []string
}

// confidenceProfile is the documented size-based confidence heuristic: a
// baseline raised at two input-size thresholds, plus a bump when the
// serialized result exceeds resultThreshold characters, clamped to [0, 1].
type confidenceProfile struct {
	baseline        float64
	sizeThreshold1  int
	raised1         float64
	sizeThreshold2  int
	raised2         float64
	resultThreshold int
	resultBump      float64
}

// standardProfile applies to text, audio and video outputs.
var standardProfile = confidenceProfile{
	baseline:        0.60,
	sizeThreshold1:  50_000,
	raised1:         0.75,
	sizeThreshold2:  200_000,
	raised2:         0.85,
	resultThreshold: 100,
	resultBump:      0.05,
}

// imageProfile applies to image outputs; larger inputs carry more signal, so
// the thresholds sit higher.
var imageProfile = confidenceProfile{
	baseline:        0.60,
	sizeThreshold1:  100_000,
	raised1:         0.80,
	sizeThreshold2:  500_000,
	raised2:         0.90,
	resultThreshold: 200,
	resultBump:      0.10,
}

func (p confidenceProfile) score(inputLen, resultLen int) float64 {
	if resultLen == 0 {
		return 0
	}
	if inputLen == 0 {
		return 0.5
	}
	confidence := p.baseline
	if inputLen > p.sizeThreshold1 {
		confidence = p.raised1
	}
	if inputLen > p.sizeThreshold2 {
		confidence = p.raised2
	}
	if resultLen > p.resultThreshold {
		confidence += p.resultBump
	}
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// taskFromParams selects the task from params, falling back to the modality
// default.
func taskFromParams(params map[string]any, fallback string) string {
	if params != nil {
		if task, ok := params["task"].(string); ok && task != "" {
			return task
		}
	}
	return fallback
}

// checkInput validates one input against the processor's modality before the
// backend is invoked.
func checkInput(in types.Input, want types.Modality) error {
	if in.Modality != want {
		return types.NewErrorf(types.ErrModalityMismatch,
			"expected %s input, got %s", want, in.Modality).WithModality(want)
	}
	if len(in.Data) == 0 {
		return types.NewErrorf(types.ErrEmptyInput,
			"empty %s input at sequence %d", want, in.Sequence).WithModality(want)
	}
	return nil
}

// aborted wraps a context cancellation as a processing failure so the
// pipeline reports which modality was in flight when the deadline hit.
func aborted(ctx context.Context, m types.Modality) error {
	return types.NewErrorf(types.ErrProcessingFailed,
		"%s processing aborted", m).WithModality(m).WithCause(ctx.Err())
}
