package timedata

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	testutil "github.com/maximewewer/timedata/pkg/testing"
)

func TestMedianFilter_Median(t *testing.T) {
	tests := []struct {
		name      string
		input     []int64
		median    float64
		truncated int64
	}{
		{"single value", []int64{5}, 5, 5},
		{"odd count", []int64{1, 2, 3}, 2, 2},
		{"even count", []int64{1, 2, 3, 4}, 2.5, 2},
		{"unsorted input", []int64{3, 1, 2}, 2, 2},
		{"negative even count", []int64{-4, -3, -2, -1}, -2.5, -2},
		{"mixed signs", []int64{-13, 57, -4, -23, -12}, -12, -12},
		{"duplicates", []int64{7, 7, 7, 1}, 7, 7},
		{"extremes do not overflow", []int64{math.MaxInt64, math.MaxInt64 - 2}, float64(math.MaxInt64 - 1), math.MaxInt64 - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewMedianFilter(DefaultCapacity, DefaultSeed, false)
			for _, v := range tt.input {
				f.Input(v)
			}

			assert.Equal(t, tt.median, f.Median())
			assert.Equal(t, tt.truncated, f.TruncatedMedian())
		})
	}
}

func TestMedianFilter_Sorted(t *testing.T) {
	f := NewMedianFilter(10, DefaultSeed, false)
	for _, v := range []int64{30, -10, 20, 0, 20} {
		f.Input(v)
	}

	sorted := f.Sorted()
	assert.Equal(t, []int64{-10, 0, 20, 20, 30}, sorted)

	// The returned slice is a copy
	sorted[0] = 999
	assert.Equal(t, []int64{-10, 0, 20, 20, 30}, f.Sorted())
}

func TestMedianFilter_FIFOEviction(t *testing.T) {
	f := NewMedianFilter(3, DefaultSeed, false)
	for _, v := range []int64{100, 1, 2, 3} {
		f.Input(v)
	}

	assert.Equal(t, 3, f.Size())
	assert.Equal(t, []int64{1, 2, 3}, f.Sorted(), "oldest value evicted first")
	assert.Equal(t, 2.0, f.Median())
}

func TestMedianFilter_SeedExcluded(t *testing.T) {
	f := NewMedianFilter(DefaultCapacity, 42, false)

	assert.Equal(t, 0, f.Size())
	assert.Empty(t, f.Sorted())
	assert.Equal(t, 42.0, f.Median(), "empty filter reports the seed")
	assert.Equal(t, int64(42), f.TruncatedMedian())

	f.Input(7)
	assert.Equal(t, 1, f.Size())
	assert.Equal(t, 7.0, f.Median())
}

func TestMedianFilter_SeedCounted(t *testing.T) {
	f := NewMedianFilter(3, 0, true)

	assert.Equal(t, 1, f.Size())
	assert.Equal(t, []int64{0}, f.Sorted())

	f.Input(10)
	assert.Equal(t, 2, f.Size())
	assert.Equal(t, 5.0, f.Median(), "seed takes part in the median")

	f.Input(20)
	f.Input(30)
	assert.Equal(t, 3, f.Size())
	assert.Equal(t, []int64{10, 20, 30}, f.Sorted(), "seed is evicted first")
}

func TestMedianFilter_InvalidCapacity(t *testing.T) {
	f := NewMedianFilter(0, DefaultSeed, false)
	f.Input(1)
	f.Input(2)

	assert.Equal(t, 1, f.Capacity())
	assert.Equal(t, []int64{2}, f.Sorted())
}

func BenchmarkMedianFilter_Median(b *testing.B) {
	f := NewMedianFilter(DefaultCapacity, DefaultSeed, false)
	for i := 0; i < DefaultCapacity; i++ {
		f.Input(int64(i*7919) % 600)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.TruncatedMedian()
	}
}

func TestMedianFilter_MatchesSortedWindow(t *testing.T) {
	const capacity = 15
	f := NewMedianFilter(capacity, DefaultSeed, false)
	var window []int64

	for _, v := range testutil.OffsetSamples(42, 400, 5000) {
		f.Input(v)
		window = append(window, v)
		if len(window) > capacity {
			window = window[1:]
		}

		sorted := slices.Clone(window)
		slices.Sort(sorted)
		assert.Equal(t, sorted, f.Sorted())

		n := len(sorted)
		want := float64(sorted[n/2])
		if n%2 == 0 {
			want = (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
		}
		assert.Equal(t, want, f.Median())
	}
}
