package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllModalitiesOrder(t *testing.T) {
	want := []Modality{ModalityText, ModalityImage, ModalityAudio, ModalityVideo}
	assert.Equal(t, want, AllModalities())
}

func TestModalityValid(t *testing.T) {
	for _, m := range AllModalities() {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, Modality("smell").Valid())
	assert.False(t, Modality("").Valid())
}

func TestFusionModeValid(t *testing.T) {
	for _, f := range []FusionMode{FusionNone, FusionEarly, FusionLate, FusionHybrid} {
		assert.True(t, f.Valid(), f)
	}
	assert.False(t, FusionMode("middle").Valid())
}

func TestRequestModalitiesFixedOrder(t *testing.T) {
	req := &Request{
		Inputs: map[Modality][]Input{
			ModalityVideo: {{Modality: ModalityVideo, Data: []byte("v")}},
			ModalityText:  {{Modality: ModalityText, Data: []byte("t")}},
			ModalityAudio: {{Modality: ModalityAudio, Data: []byte("a")}},
		},
	}

	// Deterministic regardless of map iteration order.
	for i := 0; i < 10; i++ {
		got := req.Modalities()
		require.Equal(t, []Modality{ModalityText, ModalityAudio, ModalityVideo}, got)
	}
}

func TestInputCloneIsDeep(t *testing.T) {
	in := Input{
		Modality: ModalityText,
		Data:     []byte("hello"),
		Metadata: map[string]string{"lang": "en"},
	}
	clone := in.Clone()

	clone.Data[0] = 'H'
	clone.Metadata["lang"] = "de"

	assert.Equal(t, byte('h'), in.Data[0])
	assert.Equal(t, "en", in.Metadata["lang"])
}

func TestOutputCloneIsDeep(t *testing.T) {
	out := Output{
		Modality: ModalityText,
		Data:     []byte("result"),
		Metadata: map[string]string{"task": "text_generation"},
	}
	clone := out.Clone()

	clone.Data[0] = 'R'
	clone.Metadata["task"] = "other"

	assert.Equal(t, byte('r'), out.Data[0])
	assert.Equal(t, "text_generation", out.Metadata["task"])
}

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrInvalidRequest, "request_id is empty")
	assert.Equal(t, "[INVALID_REQUEST] request_id is empty", err.Error())

	wrapped := NewError(ErrProcessingFailed, "text processing aborted").
		WithCause(errors.New("context deadline exceeded"))
	assert.Equal(t,
		"[PROCESSING_FAILED] text processing aborted: context deadline exceeded",
		wrapped.Error())
}

func TestErrorBuilder(t *testing.T) {
	err := NewErrorf(ErrNoEndpointAvailable, "no healthy endpoint for modality %s", ModalityImage).
		WithModality(ModalityImage).
		WithRetryable(true)

	assert.Equal(t, ErrNoEndpointAvailable, err.Code)
	assert.Equal(t, ModalityImage, err.Modality)
	assert.True(t, err.Retryable)
}

func TestCodeOfUnwrapsChains(t *testing.T) {
	inner := NewError(ErrEmptyInput, "empty text input at sequence 0")
	wrapped := fmt.Errorf("dispatch: %w", inner)

	assert.Equal(t, ErrEmptyInput, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	retryable := NewError(ErrNoEndpointAvailable, "none").WithRetryable(true)
	assert.True(t, IsRetryable(fmt.Errorf("pick: %w", retryable)))
	assert.False(t, IsRetryable(NewError(ErrInvalidRequest, "bad")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
