package timedata

// Window and filter limits
const (
	// DefaultCapacity is the number of peers and samples retained
	DefaultCapacity = 200

	// MinSamples is the number of stored samples required before the offset is evaluated
	MinSamples = 5

	// DefaultSeed is the value the median filter reports before any sample is stored
	DefaultSeed int64 = 0
)

// Offset thresholds, in seconds
const (
	// MaxAdjustmentSeconds is the largest median peers may shift the local clock by
	MaxAdjustmentSeconds int64 = 70 * 60

	// AgreementWindowSeconds is how close a nonzero peer offset must be to count as agreement
	AgreementWindowSeconds int64 = 5 * 60

	// DivergenceLimitSeconds is the median beyond which the local clock is always suspect
	DivergenceLimitSeconds int64 = 15 * 60
)

// ClockWarningMessage is shown to the operator when peers and the local clock disagree
const ClockWarningMessage = "Please check that your computer's date and time are correct! If your clock is wrong the node will not work properly."
