// Package parallel provides the fork-join worker pool behind the quad
// renderer's parallel vertex generation.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines executing submitted work.
//
// Each worker owns a queue and steals from the others when its own is
// empty, which balances chunks of uneven cost.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	mine := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drain(mine)
			return
		case work := <-mine:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drain(mine)
				return
			case work := <-mine:
				work()
			}
		}
	}
}

func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every function on the pool and waits for all of them.
// After Close the functions run on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		wrapped := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.workQueues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// ForRange splits [0,n) into contiguous chunks of at least minChunk items
// and calls fn(lo, hi) for each chunk on the pool, returning when all
// chunks are done. Chunks never overlap, so fn may write to a shared
// output slice at indices derived from [lo,hi) without synchronisation;
// results land at the same positions regardless of completion order.
func (p *WorkerPool) ForRange(n, minChunk int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	minChunk = max(minChunk, 1)

	chunks := min(p.workers*4, (n+minChunk-1)/minChunk)
	if chunks <= 1 {
		fn(0, n)
		return
	}

	size := (n + chunks - 1) / chunks
	work := make([]func(), 0, chunks)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		work = append(work, func() { fn(lo, hi) })
	}
	p.ExecuteAll(work)
}

// Close stops the workers after draining queued work. It is safe to call
// more than once.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
