package types

import "time"

// Input is a single typed payload handed to the engine. Inputs are owned by
// the caller and treated as immutable: transforms that need to change an
// input operate on a Clone.
type Input struct {
	Modality  Modality          `json:"modality"`
	Data      []byte            `json:"data"`
	Format    string            `json:"format"`
	Encoding  string            `json:"encoding,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Sequence  int               `json:"sequence"`
}

// Clone returns a deep copy of the input. The returned value shares nothing
// with the receiver, so transforms can mutate it freely.
func (in Input) Clone() Input {
	out := in
	if in.Data != nil {
		out.Data = make([]byte, len(in.Data))
		copy(out.Data, in.Data)
	}
	if in.Metadata != nil {
		out.Metadata = make(map[string]string, len(in.Metadata))
		for k, v := range in.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Output is a single result produced by a processor or fusion strategy.
// Confidence is always within [0, 1].
type Output struct {
	Modality   Modality          `json:"modality"`
	Data       []byte            `json:"data"`
	Format     string            `json:"format"`
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Clone returns a deep copy of the output.
func (o Output) Clone() Output {
	out := o
	if o.Data != nil {
		out.Data = make([]byte, len(o.Data))
		copy(out.Data, o.Data)
	}
	if o.Metadata != nil {
		out.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
