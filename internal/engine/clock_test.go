package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Start(t *testing.T) {
	tests := []struct {
		name      string
		clock     *Clock
		wantStart int64
	}{
		{"fresh", NewClock(), 0},
		{"resumed", NewClockAt(100), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStart, tt.clock.Current())
			assert.Equal(t, tt.wantStart+1, tt.clock.Next())
			assert.Equal(t, tt.wantStart+1, tt.clock.Current(), "Current does not advance")
		})
	}
}

func TestClock_ConcurrentSeqsAreDistinct(t *testing.T) {
	c := NewClock()
	const workers, perWorker = 50, 200

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for n := 0; n < perWorker; n++ {
				local = append(local, c.Next())
			}
			mu.Lock()
			for _, s := range local {
				seen[s] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	assert.Equal(t, int64(workers*perWorker), c.Current())
}
