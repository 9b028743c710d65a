package types

import "time"

// Request is a multimodal inference request. A request carries one or more
// modalities, each with an ordered list of inputs. Requests are created per
// call and never shared between calls.
type Request struct {
	ID           string               `json:"request_id"`
	Inputs       map[Modality][]Input `json:"inputs"`
	ModelID      string               `json:"model_id"`
	Task         string               `json:"task,omitempty"`
	Parameters   map[string]any       `json:"parameters,omitempty"`
	FusionMode   FusionMode           `json:"fusion_mode"`
	OutputFormat string               `json:"output_format,omitempty"`
	Priority     int                  `json:"priority,omitempty"`
	Timeout      time.Duration        `json:"timeout,omitempty"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
}

// Modalities returns the modalities present in the request, in the engine's
// fixed priority order.
func (r *Request) Modalities() []Modality {
	present := make([]Modality, 0, len(r.Inputs))
	for _, m := range AllModalities() {
		if _, ok := r.Inputs[m]; ok {
			present = append(present, m)
		}
	}
	return present
}

// Response is the aggregated result of a request. A response is always
// returned, even on failure; in that case Error is populated and Outputs may
// be partial or empty.
type Response struct {
	RequestID      string                `json:"request_id"`
	Outputs        map[Modality][]Output `json:"outputs"`
	FusedOutput    *Output               `json:"fused_output,omitempty"`
	ProcessingTime time.Duration         `json:"processing_time"`
	ModelUsed      string                `json:"model_used,omitempty"`
	Confidence     float64               `json:"confidence"`
	Metadata       map[string]string     `json:"metadata,omitempty"`
	Error          string                `json:"error,omitempty"`
}
