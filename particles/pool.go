package particles

import (
	"runtime"
	"sync"
)

// DefaultParallelThreshold is the particle count below which Run stays on the
// calling goroutine.
const DefaultParallelThreshold = 2048

// Kernel processes particles in [start, end).
type Kernel func(start, end int)

type span struct {
	start, end int
	kernel     Kernel
	done       *sync.WaitGroup
}

// Pool runs kernels over index ranges on a fixed set of goroutines. Run is a
// barrier: it returns once every span of the kernel has finished, which is
// what orders one pass before the next. Run must not be called concurrently.
type Pool struct {
	workers   int
	threshold int

	spans   chan span
	exited  sync.WaitGroup
	running bool
}

// NewPool creates a pool. workers <= 0 uses GOMAXPROCS; threshold <= 0 uses
// DefaultParallelThreshold. Goroutines start on the first parallel Run.
func NewPool(workers, threshold int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	return &Pool{workers: workers, threshold: threshold}
}

func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) start() {
	p.spans = make(chan span, p.workers)
	p.running = true
	p.exited.Add(p.workers)
	for range p.workers {
		go func() {
			defer p.exited.Done()
			for s := range p.spans {
				s.kernel(s.start, s.end)
				s.done.Done()
			}
		}()
	}
}

// Stop ends the goroutines and waits for them. A later Run starts new ones.
func (p *Pool) Stop() {
	if !p.running {
		return
	}
	close(p.spans)
	p.exited.Wait()
	p.running = false
}

// Run executes kernel over [0, n) split into at most one span per worker.
func (p *Pool) Run(n int, kernel Kernel) {
	switch {
	case n <= 0:
		return
	case n < p.threshold || p.workers == 1:
		kernel(0, n)
		return
	}
	if !p.running {
		p.start()
	}

	var done sync.WaitGroup
	size := (n + p.workers - 1) / p.workers
	for start := 0; start < n; start += size {
		done.Add(1)
		p.spans <- span{start: start, end: min(start+size, n), kernel: kernel, done: &done}
	}
	done.Wait()
}
