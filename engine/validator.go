package engine

import (
	"github.com/modalflow/modalflow/types"
)

// ValidateRequest rejects malformed requests before any pipeline work is
// spent on them. Every failure carries the invalid-request code with a
// message naming the violated condition.
func ValidateRequest(req *types.Request) error {
	if req == nil {
		return types.NewError(types.ErrInvalidRequest, "request is nil")
	}
	if req.ID == "" {
		return types.NewError(types.ErrInvalidRequest, "request_id is empty")
	}
	if len(req.Inputs) == 0 {
		return types.NewError(types.ErrInvalidRequest, "request has no inputs")
	}
	if req.ModelID == "" {
		return types.NewError(types.ErrInvalidRequest, "model_id is empty")
	}
	if req.FusionMode != "" && !req.FusionMode.Valid() {
		return types.NewErrorf(types.ErrInvalidRequest,
			"unknown fusion mode %q", req.FusionMode)
	}

	for modality, inputs := range req.Inputs {
		if !modality.Valid() {
			return types.NewErrorf(types.ErrInvalidRequest,
				"unknown modality %q", modality)
		}
		if len(inputs) == 0 {
			return types.NewErrorf(types.ErrInvalidRequest,
				"modality %s has no inputs", modality).WithModality(modality)
		}
		for i, in := range inputs {
			if in.Modality != modality {
				return types.NewErrorf(types.ErrInvalidRequest,
					"input %d under %s declares modality %s", i, modality, in.Modality).
					WithModality(modality)
			}
			if len(in.Data) == 0 {
				return types.NewErrorf(types.ErrInvalidRequest,
					"input %d for modality %s has no data", i, modality).
					WithModality(modality)
			}
		}
	}
	return nil
}
