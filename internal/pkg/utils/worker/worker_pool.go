package worker

import "sync/atomic"

// WorkerPool spreads tasks round-robin over a fixed set of workers. Used to
// bound the goroutines spawned by event-triggered cache refreshes.
type WorkerPool struct {
	workers []*Worker
	next    atomic.Uint64
}

// NewWorkerPool creates a new WorkerPool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	pool := &WorkerPool{
		workers: make([]*Worker, numWorkers),
	}

	for i := 0; i < numWorkers; i++ {
		worker := NewWorker()
		worker.Start()
		pool.workers[i] = worker
	}

	return pool
}

// Stop stops all workers in the pool
func (p *WorkerPool) Stop() {
	for _, worker := range p.workers {
		worker.Stop()
	}
}

// Submit submits a task to the next worker in round-robin order
func (p *WorkerPool) Submit(task Task) {
	idx := p.next.Add(1) % uint64(len(p.workers))
	p.workers[idx].Submit(task)
}
