// Package processor defines the modality processor capability and the four
// concrete processor kinds (text, image, audio, video) plus an explicit NoOp
// variant.
//
// Processors are stateless task executors: every call is independent, no
// request state is retained between calls, and every implementation is safe
// for concurrent invocation. The engine treats the wrapped model backend as
// opaque; the processor contract is only the shape and confidence of each
// Output.
//
// Confidence heuristic: each produced Output scores a baseline confidence
// that is raised at two input-size thresholds and bumped once more when the
// serialized result exceeds a length threshold, clamped to [0, 1]. The exact
// thresholds per modality are documented on the profile values below.
package processor
