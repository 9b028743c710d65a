// Package testutil provides shared helpers and fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/modalflow/modalflow/types"
)

// TestContext returns a context cancelled when the test ends, bounded by a
// generous deadline so a hung test fails instead of stalling the run.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Logger returns a zap logger that writes through t.Log.
func Logger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t)
}

// TextInput builds a text input from a string.
func TextInput(data string) types.Input {
	return types.Input{
		Modality:  types.ModalityText,
		Data:      []byte(data),
		Format:    "text/plain",
		Timestamp: time.Now(),
	}
}

// BinaryInput builds an input of the given modality with n bytes of payload.
func BinaryInput(m types.Modality, format string, n int) types.Input {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return types.Input{
		Modality:  m,
		Data:      data,
		Format:    format,
		Timestamp: time.Now(),
	}
}

// TextRequest builds a single-modality text request.
func TextRequest(id, prompt string) *types.Request {
	return &types.Request{
		ID:      id,
		ModelID: "test-model",
		Inputs: map[types.Modality][]types.Input{
			types.ModalityText: {TextInput(prompt)},
		},
		FusionMode: types.FusionNone,
	}
}

// MultimodalRequest builds a request carrying text and image inputs with
// late fusion.
func MultimodalRequest(id string) *types.Request {
	return &types.Request{
		ID:      id,
		ModelID: "test-model",
		Inputs: map[types.Modality][]types.Input{
			types.ModalityText:  {TextInput("describe the scene")},
			types.ModalityImage: {BinaryInput(types.ModalityImage, "image/jpeg", 2048)},
		},
		FusionMode: types.FusionLate,
	}
}

// Output builds a text output with the given confidence.
func Output(data string, confidence float64) types.Output {
	return types.Output{
		Modality:   types.ModalityText,
		Data:       []byte(data),
		Format:     "text/plain",
		Confidence: confidence,
		Metadata:   map[string]string{},
		Timestamp:  time.Now(),
	}
}
