package timedata

import "github.com/maximewewer/timedata/pkg/mathutil"

// Decision names the branch OffsetPolicy took for a median
type Decision string

const (
	// DecisionInsufficient means too few samples were stored to evaluate
	DecisionInsufficient Decision = "insufficient"

	// DecisionTrustLocal means the operator trusts the local clock, offset reset to 0
	DecisionTrustLocal Decision = "trust_local"

	// DecisionImplausible means the median exceeded the maximum adjustment, offset reset to 0
	DecisionImplausible Decision = "implausible"

	// DecisionAccepted means the median became the offset
	DecisionAccepted Decision = "accepted"

	// DecisionFrozen means the window is full and the offset was left unchanged
	DecisionFrozen Decision = "frozen"
)

// OffsetPolicy turns a candidate median into the accepted global offset.
//
// Peers may only adjust the offset while fewer than Capacity samples are
// stored. Once the window is full the offset is frozen, so the network can
// correct a static startup error but cannot drag the clock at runtime.
type OffsetPolicy struct {
	Capacity      int
	MinSamples    int
	MaxAdjustment int64
}

// DefaultOffsetPolicy returns the policy for a window of capacity samples
func DefaultOffsetPolicy(capacity int) OffsetPolicy {
	return OffsetPolicy{
		Capacity:      capacity,
		MinSamples:    MinSamples,
		MaxAdjustment: MaxAdjustmentSeconds,
	}
}

// Ready reports whether enough samples are stored to evaluate a median
func (p OffsetPolicy) Ready(sampleCount int) bool {
	return sampleCount >= p.MinSamples
}

// Evaluate returns the new global offset given the median of sampleCount
// stored samples and the offset currently in effect.
func (p OffsetPolicy) Evaluate(median int64, sampleCount int, trustLocalClock bool, current int64) (int64, Decision) {
	switch {
	case !p.Ready(sampleCount):
		return current, DecisionInsufficient
	case trustLocalClock:
		return 0, DecisionTrustLocal
	case mathutil.Abs64(median) >= p.MaxAdjustment:
		return 0, DecisionImplausible
	case sampleCount < p.Capacity:
		return median, DecisionAccepted
	default:
		return current, DecisionFrozen
	}
}
