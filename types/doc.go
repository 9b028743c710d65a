// Package types defines the shared data model of the orchestration engine:
// modalities, inputs and outputs, the request/response pair exchanged with
// callers, and the structured error taxonomy used across all pipeline stages.
package types
