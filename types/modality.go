package types

// Modality identifies a category of input or output data.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
	ModalityVideo Modality = "video"
)

// AllModalities returns every supported modality in the engine's fixed
// priority order. Pipeline stages iterate this slice instead of ranging over
// request maps so that processing and response construction are deterministic.
func AllModalities() []Modality {
	return []Modality{ModalityText, ModalityImage, ModalityAudio, ModalityVideo}
}

// Valid reports whether m is one of the supported modalities.
func (m Modality) Valid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityAudio, ModalityVideo:
		return true
	}
	return false
}

// FusionMode selects how per-modality outputs are combined.
type FusionMode string

const (
	// FusionNone processes modalities separately without combining them.
	FusionNone FusionMode = "none"
	// FusionEarly combines features before inference.
	FusionEarly FusionMode = "early"
	// FusionLate combines outputs after inference.
	FusionLate FusionMode = "late"
	// FusionHybrid selects a fusion strategy adaptively.
	FusionHybrid FusionMode = "hybrid"
)

// Valid reports whether f is a known fusion mode.
func (f FusionMode) Valid() bool {
	switch f {
	case FusionNone, FusionEarly, FusionLate, FusionHybrid:
		return true
	}
	return false
}
