package timedata

import (
	"slices"

	"github.com/maximewewer/timedata/pkg/mathutil"
)

// MedianFilter is a fixed-capacity FIFO of offsets answering median and
// sorted-order queries. It is not safe for concurrent use; Service guards it.
//
// The seed is reported as the median of an empty filter. When seedCounts is
// set the seed is stored as the first value instead, so it counts toward
// Size, takes part in the median and is the first value evicted.
type MedianFilter struct {
	capacity   int
	seed       int64
	seedCounts bool
	values     []int64 // oldest first
}

// NewMedianFilter creates a filter holding at most capacity values
func NewMedianFilter(capacity int, seed int64, seedCounts bool) *MedianFilter {
	if capacity < 1 {
		capacity = 1
	}

	f := &MedianFilter{
		capacity:   capacity,
		seed:       seed,
		seedCounts: seedCounts,
		values:     make([]int64, 0, capacity+1),
	}
	if seedCounts {
		f.values = append(f.values, seed)
	}
	return f
}

// Input appends a value, evicting the oldest one once capacity is exceeded
func (f *MedianFilter) Input(value int64) {
	f.values = append(f.values, value)
	if len(f.values) > f.capacity {
		copy(f.values, f.values[1:])
		f.values = f.values[:len(f.values)-1]
	}
}

// Size returns the number of stored values
func (f *MedianFilter) Size() int {
	return len(f.values)
}

// Capacity returns the maximum number of stored values
func (f *MedianFilter) Capacity() int {
	return f.capacity
}

// Sorted returns the stored values in ascending order
func (f *MedianFilter) Sorted() []int64 {
	sorted := slices.Clone(f.values)
	slices.Sort(sorted)
	return sorted
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. An empty filter reports the seed.
func (f *MedianFilter) Median() float64 {
	n := len(f.values)
	if n == 0 {
		return float64(f.seed)
	}

	sorted := f.Sorted()
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return mathutil.MidpointFloat64(sorted[n/2-1], sorted[n/2])
}

// TruncatedMedian is Median in whole seconds: the mean of the two middle
// values is truncated toward zero.
func (f *MedianFilter) TruncatedMedian() int64 {
	n := len(f.values)
	if n == 0 {
		return f.seed
	}

	sorted := f.Sorted()
	if n%2 == 1 {
		return sorted[n/2]
	}
	return mathutil.Midpoint64(sorted[n/2-1], sorted[n/2])
}
