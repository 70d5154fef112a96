package sim

import "runtime"

// workerPool runs the compute phase across persistent goroutines. Workers
// live for the lifetime of the engine; each tick they receive disjoint
// particle ranges over workChan and signal completion on doneChan.
type workerPool struct {
	engine    *Engine
	workers   int
	scratches []scratch
	workChan  chan workItem
	doneChan  chan struct{}
	stopChan  chan struct{}
}

type workItem struct {
	start, end int
	scratch    *scratch
}

func newWorkerPool(e *Engine) *workerPool {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	p := &workerPool{
		engine:    e,
		workers:   workers,
		scratches: make([]scratch, workers),
		workChan:  make(chan workItem, workers),
		doneChan:  make(chan struct{}, workers),
		stopChan:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	for {
		select {
		case item := <-p.workChan:
			p.engine.computeChunk(item.start, item.end, item.scratch)
			p.doneChan <- struct{}{}
		case <-p.stopChan:
			return
		}
	}
}

// run splits [0, n) into one contiguous chunk per worker and blocks until
// all chunks complete.
func (p *workerPool) run(n int) {
	chunk := (n + p.workers - 1) / p.workers
	dispatched := 0
	for i := 0; i < p.workers; i++ {
		start := i * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}
		p.workChan <- workItem{start: start, end: end, scratch: &p.scratches[i]}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

func (p *workerPool) stop() {
	close(p.stopChan)
}
