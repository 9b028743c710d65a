package fusion

import (
	"sync"

	"github.com/modalflow/modalflow/types"
)

// Learner adapts the per-modality fusion weights from observed per-modality
// confidences. Disabled by default; when enabled it is the only writer of the
// weight map, guarded by a read/write lock.
type Learner struct {
	mu      sync.RWMutex
	weights map[types.Modality]float64
	decay   float64
}

// NewLearner seeds a learner with the initial weights and a decay factor in
// (0, 1]; each Record moves a weight by decay toward the observed confidence
// share.
func NewLearner(initial map[types.Modality]float64, decay float64) *Learner {
	if decay <= 0 || decay > 1 {
		decay = 0.01
	}
	weights := make(map[types.Modality]float64, len(initial))
	for m, w := range initial {
		weights[m] = w
	}
	return &Learner{weights: weights, decay: decay}
}

// Weights returns a snapshot of the current weights.
func (l *Learner) Weights() map[types.Modality]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snapshot := make(map[types.Modality]float64, len(l.weights))
	for m, w := range l.weights {
		snapshot[m] = w
	}
	return snapshot
}

// Record updates the weights from one observation mapping each modality to
// the mean confidence it produced. Weights are renormalized so they keep
// summing to the same total as before the update.
func (l *Learner) Record(observed map[types.Modality]float64) {
	if len(observed) == 0 {
		return
	}

	var observedTotal float64
	for _, c := range observed {
		observedTotal += c
	}
	if observedTotal == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var before float64
	for _, w := range l.weights {
		before += w
	}

	for m, c := range observed {
		share := c / observedTotal
		l.weights[m] = (1-l.decay)*l.weights[m] + l.decay*share
	}

	var after float64
	for _, w := range l.weights {
		after += w
	}
	if after == 0 {
		return
	}
	scale := before / after
	for m := range l.weights {
		l.weights[m] *= scale
	}
}
