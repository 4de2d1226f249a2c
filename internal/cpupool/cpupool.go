// Package cpupool provides the parallel work-stealing pool for CPU-bound
// work (market-data decoding, cryptographic derivations, route
// enumeration): a fixed-size worker-goroutine pool, grounded on the
// teacher's consumer/worker.Worker job-queue shape rather than on any
// Rayon-equivalent library (the pack carries none).
package cpupool

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

// job is a unit of CPU-bound work submitted to the pool.
type job struct {
	fn   func()
	done chan struct{}
}

// Pool is a fixed-size set of worker goroutines draining a shared job
// queue, the same jobQueue/wg shape as the teacher's consumer/worker.Worker.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

// New starts a Pool with n workers. n <= 0 is treated as runtime.NumCPU().
func New(n int) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, n*4)}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

// NewFromEnv sizes the pool from GALILEO_RAYON_THREADS: a positive integer
// overrides the thread count; empty or invalid falls back to
// runtime.NumCPU(), per spec.md §6.
func NewFromEnv() *Pool {
	return New(threadsFromEnv())
}

func threadsFromEnv() int {
	raw := os.Getenv("GALILEO_RAYON_THREADS")
	if raw == "" {
		return runtime.NumCPU()
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		j.fn()
		close(j.done)
	}
}

// Submit runs fn on a pool worker and blocks until it completes. The 2 MiB
// worker stack spec.md §5 calls for is the Go runtime's own goroutine stack
// growth behavior, not something this pool configures directly.
func (p *Pool) Submit(fn func()) {
	j := job{fn: fn, done: make(chan struct{})}
	p.jobs <- j
	<-j.done
}

// Close stops accepting new work and waits for in-flight jobs to drain.
// Submit must not be called after Close.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
