package pipeline

import (
	"runtime"
	"sync"
)

// defaultParallelThreshold is the minimum work item count to fan out.
// Below this, single-threaded is faster due to goroutine overhead.
const defaultParallelThreshold = 4096

// workChunk is a range of work items for one worker.
type workChunk struct {
	start, end int
	fn         func(start, end, worker int)
}

// Pool runs data-parallel dispatches on persistent worker goroutines.
// Dispatch returns only after every chunk has finished, which is the
// barrier between consecutive passes.
type Pool struct {
	numWorkers int
	threshold  int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

// NewPool creates a pool. workers <= 0 uses GOMAXPROCS; threshold <= 0 uses the default.
func NewPool(workers, threshold int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &Pool{numWorkers: workers, threshold: threshold}
}

// Workers returns the number of worker goroutines (and scratch slots callers need).
func (p *Pool) Workers() int { return p.numWorkers }

// start launches persistent worker goroutines.
func (p *Pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop signals all workers to exit and waits for them.
func (p *Pool) Stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes chunks until stopped.
func (p *Pool) worker(workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end, workerID)
			p.doneChan <- struct{}{}
		}
	}
}

// Dispatch splits [0, n) into one contiguous chunk per worker and blocks
// until all of them complete. Small domains run inline as worker 0.
// Dispatch must not be called concurrently with itself.
func (p *Pool) Dispatch(n int, fn func(start, end, worker int)) {
	if n <= 0 {
		return
	}
	if n < p.threshold || p.numWorkers == 1 {
		fn(0, n, 0)
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// Range adapts Dispatch to callers that do not need the worker index.
func (p *Pool) Range(n int, fn func(start, end int)) {
	p.Dispatch(n, func(start, end, _ int) { fn(start, end) })
}
