package fusion

import (
	"strconv"
	"strings"
	"time"

	"github.com/modalflow/modalflow/types"
)

// Strategy combines per-modality outputs into one. Implementations are pure
// functions: no state is retained between calls and concurrent invocation is
// safe.
type Strategy interface {
	// Name identifies the strategy in fused-output metadata.
	Name() string
	// Fuse combines outputs using the supplied per-modality weights.
	Fuse(outputs map[types.Modality][]types.Output, weights map[types.Modality]float64) (*types.Output, error)
}

// LateFusion combines outputs after inference: every text-typed output is
// concatenated into a tagged line per modality, and confidence is the
// weighted average of the contributing outputs. Modalities without a
// configured weight receive an equal share 1/N, N being the number of
// modalities present.
type LateFusion struct{}

func (LateFusion) Name() string { return "late_fusion" }

func (LateFusion) Fuse(outputs map[types.Modality][]types.Output, weights map[types.Modality]float64) (*types.Output, error) {
	if len(outputs) == 0 {
		return nil, types.NewError(types.ErrFusionFailed, "no outputs to fuse")
	}

	var (
		body            strings.Builder
		totalConfidence float64
		totalWeight     float64
	)

	// Fixed modality order keeps the fused body deterministic.
	for _, modality := range types.AllModalities() {
		outs, ok := outputs[modality]
		if !ok {
			continue
		}
		weight := weights[modality]
		if weight == 0 {
			weight = 1.0 / float64(len(outputs))
		}
		for _, out := range outs {
			if out.Modality != types.ModalityText {
				continue
			}
			body.WriteString("[" + string(modality) + "]: ")
			body.Write(out.Data)
			body.WriteString("\n")
			totalConfidence += out.Confidence * weight
			totalWeight += weight
		}
	}

	if totalWeight == 0 {
		totalWeight = 1.0
	}

	return &types.Output{
		Modality:   types.ModalityText,
		Data:       []byte(body.String()),
		Format:     "text/plain",
		Confidence: totalConfidence / totalWeight,
		Metadata: map[string]string{
			"fusion_strategy":  "late_fusion",
			"modalities_fused": strconv.Itoa(len(outputs)),
		},
		Timestamp: time.Now(),
	}, nil
}

// EarlyFusion would combine features before inference. Feature-level fusion
// is not implemented; the strategy delegates to late fusion and reports
// itself in the output metadata so callers can tell the two apart.
type EarlyFusion struct{}

func (EarlyFusion) Name() string { return "early_fusion" }

func (s EarlyFusion) Fuse(outputs map[types.Modality][]types.Output, weights map[types.Modality]float64) (*types.Output, error) {
	return delegateToLate(s.Name(), outputs, weights)
}

// HybridFusion would pick a strategy adaptively. Like EarlyFusion it
// delegates to late fusion until adaptive selection is implemented.
type HybridFusion struct{}

func (HybridFusion) Name() string { return "hybrid_fusion" }

func (s HybridFusion) Fuse(outputs map[types.Modality][]types.Output, weights map[types.Modality]float64) (*types.Output, error) {
	return delegateToLate(s.Name(), outputs, weights)
}

func delegateToLate(name string, outputs map[types.Modality][]types.Output, weights map[types.Modality]float64) (*types.Output, error) {
	fused, err := LateFusion{}.Fuse(outputs, weights)
	if err != nil {
		return nil, err
	}
	fused.Metadata["fusion_strategy"] = name
	fused.Metadata["delegated_to"] = "late_fusion"
	return fused, nil
}
