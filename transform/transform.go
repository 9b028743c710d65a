// Package transform provides per-modality input and output transforms applied
// before and after modality processing. Transforms never mutate their
// argument; they return a new value. When no transform is registered for a
// modality, the identity transform is used.
package transform

import (
	"strings"
	"time"

	"github.com/modalflow/modalflow/types"
)

// Preprocessor transforms an input before modality dispatch.
type Preprocessor interface {
	Name() string
	Transform(in types.Input) (types.Input, error)
}

// Postprocessor transforms an output after modality dispatch.
type Postprocessor interface {
	Name() string
	Transform(out types.Output) (types.Output, error)
}

// IdentityPreprocessor passes inputs through unchanged.
type IdentityPreprocessor struct{}

func (IdentityPreprocessor) Name() string { return "identity" }

func (IdentityPreprocessor) Transform(in types.Input) (types.Input, error) {
	return in, nil
}

// IdentityPostprocessor passes outputs through unchanged.
type IdentityPostprocessor struct{}

func (IdentityPostprocessor) Name() string { return "identity" }

func (IdentityPostprocessor) Transform(out types.Output) (types.Output, error) {
	return out, nil
}

// TextNormalizer trims surrounding whitespace and collapses internal runs of
// whitespace in text inputs. Non-text inputs pass through unchanged.
type TextNormalizer struct{}

func (TextNormalizer) Name() string { return "text_normalizer" }

func (TextNormalizer) Transform(in types.Input) (types.Input, error) {
	if in.Modality != types.ModalityText {
		return in, nil
	}
	normalized := strings.Join(strings.Fields(string(in.Data)), " ")
	out := in.Clone()
	out.Data = []byte(normalized)
	return out, nil
}

// MetadataStamper records the postprocessing time on each output.
type MetadataStamper struct{}

func (MetadataStamper) Name() string { return "metadata_stamper" }

func (MetadataStamper) Transform(out types.Output) (types.Output, error) {
	stamped := out.Clone()
	if stamped.Metadata == nil {
		stamped.Metadata = make(map[string]string, 1)
	}
	stamped.Metadata["postprocessed_at"] = time.Now().UTC().Format(time.RFC3339)
	return stamped, nil
}

// Registry holds the registered transforms per modality and falls back to the
// identity transform for modalities without a registration.
type Registry struct {
	pre  map[types.Modality]Preprocessor
	post map[types.Modality]Postprocessor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pre:  make(map[types.Modality]Preprocessor),
		post: make(map[types.Modality]Postprocessor),
	}
}

// RegisterPreprocessor installs p for modality m, replacing any previous
// registration.
func (r *Registry) RegisterPreprocessor(m types.Modality, p Preprocessor) {
	r.pre[m] = p
}

// RegisterPostprocessor installs p for modality m, replacing any previous
// registration.
func (r *Registry) RegisterPostprocessor(m types.Modality, p Postprocessor) {
	r.post[m] = p
}

// Preprocessor returns the registered preprocessor for m, or the identity.
func (r *Registry) Preprocessor(m types.Modality) Preprocessor {
	if p, ok := r.pre[m]; ok {
		return p
	}
	return IdentityPreprocessor{}
}

// Postprocessor returns the registered postprocessor for m, or the identity.
func (r *Registry) Postprocessor(m types.Modality) Postprocessor {
	if p, ok := r.post[m]; ok {
		return p
	}
	return IdentityPostprocessor{}
}
