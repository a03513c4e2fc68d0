package sampler

import "time"

// Query behavior constants
const (
	// DefaultTimeout is the default timeout for a single peer query
	DefaultTimeout = 5 * time.Second

	// DefaultResolveTimeout bounds a single DNS lookup
	DefaultResolveTimeout = 5 * time.Second

	// DefaultConcurrency is the number of peers queried in parallel
	DefaultConcurrency = 10
)

// Validation thresholds
const (
	// MaxAcceptableRTT is the maximum acceptable round-trip time
	MaxAcceptableRTT = 10 * time.Second

	// MinValidStratum is the minimum valid stratum value
	MinValidStratum = 1

	// MaxValidStratum is the maximum valid stratum value
	MaxValidStratum = 15
)

// Reasons a response is not turned into a sample
const (
	ReasonKissOfDeath    = "kiss_of_death"
	ReasonInvalidStratum = "invalid_stratum"
	ReasonValidation     = "validation_failed"
	ReasonHighRTT        = "high_rtt"
)
