package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/modalflow/modalflow/types"
)

func TestIdentityPreprocessorIsNoOp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := types.Input{
			Modality: types.ModalityAudio,
			Data:     rapid.SliceOfN(rapid.Byte(), 0, 512).Draw(t, "data"),
			Format:   rapid.String().Draw(t, "format"),
		}
		out, err := IdentityPreprocessor{}.Transform(in)
		if err != nil {
			t.Fatalf("identity transform errored: %v", err)
		}
		if string(out.Data) != string(in.Data) || out.Format != in.Format {
			t.Fatalf("identity transform changed the input")
		}
	})
}

func TestIdentityRoundTripIsByteIdentical(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, 512).Draw(t, "payload")

		in := types.Input{Modality: types.ModalityImage, Data: payload}
		pre, err := IdentityPreprocessor{}.Transform(in)
		if err != nil {
			t.Fatalf("preprocess: %v", err)
		}

		out := types.Output{Modality: types.ModalityImage, Data: pre.Data}
		post, err := IdentityPostprocessor{}.Transform(out)
		if err != nil {
			t.Fatalf("postprocess: %v", err)
		}
		if string(post.Data) != string(payload) {
			t.Fatalf("payload changed through identity round trip")
		}
	})
}

func TestTextNormalizer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapse runs", "hello   world", "hello world"},
		{"trim edges", "  padded  ", "padded"},
		{"tabs and newlines", "a\tb\nc", "a b c"},
		{"already clean", "clean text", "clean text"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := types.Input{Modality: types.ModalityText, Data: []byte(tt.in)}
			out, err := TextNormalizer{}.Transform(in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out.Data))
		})
	}
}

func TestTextNormalizerDoesNotMutateArgument(t *testing.T) {
	in := types.Input{Modality: types.ModalityText, Data: []byte("a  b")}
	_, err := TextNormalizer{}.Transform(in)
	require.NoError(t, err)
	assert.Equal(t, "a  b", string(in.Data))
}

func TestTextNormalizerPassesNonTextThrough(t *testing.T) {
	in := types.Input{Modality: types.ModalityImage, Data: []byte{0xFF, 0xD8, 0x20, 0x20}}
	out, err := TextNormalizer{}.Transform(in)
	require.NoError(t, err)
	assert.Equal(t, in.Data, out.Data)
}

func TestMetadataStamper(t *testing.T) {
	out := types.Output{Modality: types.ModalityText, Data: []byte("x")}
	stamped, err := MetadataStamper{}.Transform(out)
	require.NoError(t, err)

	assert.NotEmpty(t, stamped.Metadata["postprocessed_at"])
	assert.Nil(t, out.Metadata, "argument must not be mutated")
}

func TestRegistryFallsBackToIdentity(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, "identity", reg.Preprocessor(types.ModalityVideo).Name())
	assert.Equal(t, "identity", reg.Postprocessor(types.ModalityVideo).Name())

	reg.RegisterPreprocessor(types.ModalityText, TextNormalizer{})
	assert.Equal(t, "text_normalizer", reg.Preprocessor(types.ModalityText).Name())
	assert.Equal(t, "identity", reg.Preprocessor(types.ModalityImage).Name())
}
