package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForEachIndex(t *testing.T) {
	const n = 37
	var hits [n]int32
	ForEachIndex(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})
	for i, h := range hits {
		if h != 1 {
			t.Errorf("index %d executed %d times, want 1", i, h)
		}
	}
}

func TestForEachIndexEmpty(t *testing.T) {
	called := false
	ForEachIndex(0, func(i int) { called = true })
	if called {
		t.Error("fn called for zero indices")
	}
}

func TestParallelizeCoversRange(t *testing.T) {
	const items = 1001
	var hits [items]int32
	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Errorf("item %d covered %d times, want 1", i, h)
		}
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(5, 10, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != 5 {
			t.Errorf("sequential path got range [%d, %d), want [0, 5)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("sequential path called %d times, want 1", calls)
	}
}
