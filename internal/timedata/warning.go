package timedata

import (
	"sync/atomic"

	"github.com/maximewewer/timedata/pkg/mathutil"
)

// DivergenceWarning detects when peer consensus and the local clock
// disagree and latches so the operator is warned at most once per process.
type DivergenceWarning struct {
	AgreementWindow int64
	DivergenceLimit int64

	latched atomic.Bool
}

// NewDivergenceWarning creates an unlatched emitter with the default thresholds
func NewDivergenceWarning() *DivergenceWarning {
	return &DivergenceWarning{
		AgreementWindow: AgreementWindowSeconds,
		DivergenceLimit: DivergenceLimitSeconds,
	}
}

// Agrees reports whether at least one peer reports a nonzero offset within
// the agreement window, and the median itself is not beyond the divergence limit.
func (w *DivergenceWarning) Agrees(sorted []int64, median int64) bool {
	if mathutil.Abs64(median) > w.DivergenceLimit {
		return false
	}
	for _, v := range sorted {
		if v != 0 && mathutil.Abs64(v) < w.AgreementWindow {
			return true
		}
	}
	return false
}

// Check reports disagreement, and whether this call is the one that set the latch
func (w *DivergenceWarning) Check(sorted []int64, median int64) (disagree, fire bool) {
	if w.Agrees(sorted, median) {
		return false, false
	}
	return true, w.latched.CompareAndSwap(false, true)
}

// Evaluate reports whether a warning must be emitted now. It returns true
// at most once over the emitter's lifetime.
func (w *DivergenceWarning) Evaluate(sorted []int64, median int64) bool {
	_, fire := w.Check(sorted, median)
	return fire
}

// Latched reports whether the warning has fired
func (w *DivergenceWarning) Latched() bool {
	return w.latched.Load()
}
