package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d (GOMAXPROCS)", n, got, want)
		}
		pool.Close()
	}
}

// =============================================================================
// ExecuteAll Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	numTasks := 100

	work := make([]func(), numTasks)
	for i := range work {
		work[i] = func() {
			counter.Add(1)
		}
	}

	pool.ExecuteAll(work)

	if counter.Load() != int64(numTasks) {
		t.Errorf("counter = %d, want %d", counter.Load(), numTasks)
	}
}

func TestWorkerPool_ExecuteAll_Empty(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	// Should not panic or block
	pool.ExecuteAll(nil)
	pool.ExecuteAll([]func(){})
}

func TestWorkerPool_ExecuteAllAfterClose(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Close()

	var executed atomic.Bool
	pool.ExecuteAll([]func(){
		func() { executed.Store(true) },
	})

	if !executed.Load() {
		t.Error("work submitted after Close did not run inline")
	}
}

// =============================================================================
// ForRange Tests
// =============================================================================

func TestWorkerPool_ForRangeCoversEveryIndexOnce(t *testing.T) {
	tests := []struct {
		name     string
		workers  int
		n        int
		minChunk int
	}{
		{"single chunk", 4, 10, 64},
		{"exact multiple", 4, 1024, 64},
		{"ragged tail", 4, 1000, 7},
		{"min chunk one", 3, 50, 1},
		{"min chunk zero", 2, 50, 0},
		{"one worker", 1, 500, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers)
			defer pool.Close()

			hits := make([]int32, tt.n)
			pool.ForRange(tt.n, tt.minChunk, func(lo, hi int) {
				if lo >= hi {
					t.Errorf("empty chunk [%d,%d)", lo, hi)
				}
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times, want 1", i, h)
				}
			}
		})
	}
}

func TestWorkerPool_ForRangeChunkSize(t *testing.T) {
	pool := NewWorkerPool(8)
	defer pool.Close()

	var mu sync.Mutex
	var sizes []int
	pool.ForRange(1000, 100, func(lo, hi int) {
		mu.Lock()
		sizes = append(sizes, hi-lo)
		mu.Unlock()
	})

	if len(sizes) > 10 {
		t.Errorf("got %d chunks, want at most 10 for minChunk 100", len(sizes))
	}
	for _, s := range sizes[:len(sizes)-1] {
		if s < 100 {
			t.Errorf("chunk of %d items is below minChunk", s)
		}
	}
}

func TestWorkerPool_ForRangeScatterIsOrdered(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	out := make([]int, 10000)
	pool.ForRange(len(out), 32, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = i * 3
		}
	})
	for i, v := range out {
		if v != i*3 {
			t.Fatalf("out[%d] = %d, want %d", i, v, i*3)
		}
	}
}

func TestWorkerPool_ForRangeEmpty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	pool.ForRange(0, 8, func(lo, hi int) {
		t.Errorf("fn called for empty range [%d,%d)", lo, hi)
	})
}

// =============================================================================
// Close Tests
// =============================================================================

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(4)

	// Multiple closes should not panic
	pool.Close()
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("Pool should not be running after close")
	}
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func TestWorkerPool_Concurrent(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	numGoroutines := 10
	numTasksPerGoroutine := 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for range numGoroutines {
		go func() {
			defer wg.Done()

			work := make([]func(), numTasksPerGoroutine)
			for i := range work {
				work[i] = func() {
					counter.Add(1)
				}
			}

			pool.ExecuteAll(work)
		}()
	}

	wg.Wait()

	expected := int64(numGoroutines * numTasksPerGoroutine)
	if counter.Load() != expected {
		t.Errorf("counter = %d, want %d", counter.Load(), expected)
	}
}

func TestWorkerPool_WorkStealing(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var slowCount, fastCount atomic.Int64

	work := make([]func(), 100)
	for i := range work {
		if i%10 == 0 {
			work[i] = func() {
				time.Sleep(5 * time.Millisecond)
				slowCount.Add(1)
			}
		} else {
			work[i] = func() {
				fastCount.Add(1)
			}
		}
	}

	start := time.Now()
	pool.ExecuteAll(work)
	elapsed := time.Since(start)

	if slowCount.Load() != 10 || fastCount.Load() != 90 {
		t.Errorf("slow=%d fast=%d, want 10 and 90", slowCount.Load(), fastCount.Load())
	}
	t.Logf("Elapsed time: %v", elapsed)
}

func TestWorkerPool_NoGoroutineLeak(t *testing.T) {
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	baseline := runtime.NumGoroutine()

	for range 5 {
		pool := NewWorkerPool(4)
		pool.ForRange(1000, 10, func(int, int) {})
		pool.Close()
	}

	runtime.GC()
	time.Sleep(100 * time.Millisecond)

	// Allow for some variance (test framework goroutines, etc.)
	if final := runtime.NumGoroutine(); final > baseline+2 {
		t.Errorf("goroutine count: baseline=%d, final=%d (leak detected)", baseline, final)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkWorkerPool_ForRange(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	out := make([]float32, 100000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.ForRange(len(out), 256, func(lo, hi int) {
			for j := lo; j < hi; j++ {
				out[j] = float32(j) * 0.5
			}
		})
	}
}

func BenchmarkWorkerPool_vs_Goroutines(b *testing.B) {
	const numTasks = 100

	b.Run("WorkerPool", func(b *testing.B) {
		pool := NewWorkerPool(0)
		defer pool.Close()

		work := make([]func(), numTasks)
		for i := range work {
			work[i] = func() {}
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			pool.ExecuteAll(work)
		}
	})

	b.Run("Goroutines", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var wg sync.WaitGroup
			wg.Add(numTasks)
			for range numTasks {
				go func() { wg.Done() }()
			}
			wg.Wait()
		}
	})
}
