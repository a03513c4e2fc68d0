package timedata

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDivergenceWarning_Agrees(t *testing.T) {
	w := NewDivergenceWarning()

	tests := []struct {
		name   string
		sorted []int64
		median int64
		want   bool
	}{
		{"one peer close", []int64{-299, 4201, 4202}, 100, true},
		{"all zero", []int64{0, 0, 0, 0, 0}, 0, false},
		{"boundary excluded", []int64{-300, 300, 600}, 300, false},
		{"all far", []int64{1000, 2000, 3000}, 2000, false},
		{"median beyond limit overrides", []int64{-299, 4201, 4202, 4203, 4204}, 4202, false},
		{"median at limit allowed", []int64{10, 900, 901}, 900, true},
		{"empty", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Agrees(tt.sorted, tt.median))
		})
	}
}

func TestDivergenceWarning_FiresOnce(t *testing.T) {
	w := NewDivergenceWarning()
	far := []int64{1000, 1000, 1000, 1000, 1000}

	assert.True(t, w.Evaluate(far, 1000))
	assert.True(t, w.Latched())

	for i := 0; i < 10; i++ {
		disagree, fire := w.Check(far, 1000)
		assert.True(t, disagree)
		assert.False(t, fire)
	}
	assert.True(t, w.Latched(), "latch never reverts")
}

func TestDivergenceWarning_AgreementDoesNotLatch(t *testing.T) {
	w := NewDivergenceWarning()

	assert.False(t, w.Evaluate([]int64{10, 20, 30}, 20))
	assert.False(t, w.Latched())
}

func TestDivergenceWarning_ConcurrentFiresOnce(t *testing.T) {
	w := NewDivergenceWarning()
	far := []int64{5000}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fired int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Evaluate(far, 5000) {
				mu.Lock()
				fired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fired)
}
