package parallel

import (
	"fmt"
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversRange(t *testing.T) {
	tests := []struct {
		name  string
		items int
	}{
		{name: "empty", items: 0},
		{name: "single item", items: 1},
		{name: "fewer items than cores", items: 3},
		{name: "many items", items: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visited := make([]int32, tt.items)
			Parallelize(tt.items, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&visited[i], 1)
				}
			})

			for i, count := range visited {
				if count != 1 {
					t.Errorf("index %d visited %d times, want 1", i, count)
				}
			}
		})
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	var total int64
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		// Below the threshold the whole range arrives as one chunk.
		if start != 0 || end != 10 {
			t.Errorf("chunk = [%d, %d), want [0, 10)", start, end)
		}
		atomic.AddInt64(&total, int64(end-start))
	})
	if total != 10 {
		t.Errorf("processed %d items, want 10", total)
	}
}

func TestParallelizeWithError(t *testing.T) {
	// The error of the smallest failing index wins, and every index is
	// still visited.
	var visited int64
	err := ParallelizeWithError(50, func(i int) error {
		atomic.AddInt64(&visited, 1)
		if i == 7 || i == 31 {
			return fmt.Errorf("task %d failed", i)
		}
		return nil
	})

	if err == nil || err.Error() != "task 7 failed" {
		t.Errorf("ParallelizeWithError() = %v, want error of index 7", err)
	}
	if visited != 50 {
		t.Errorf("visited %d indices, want 50", visited)
	}

	if err := ParallelizeWithError(20, func(int) error { return nil }); err != nil {
		t.Errorf("ParallelizeWithError() = %v, want nil", err)
	}
}
