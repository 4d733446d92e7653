package pipeline

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum group count to use parallel processing.
// Below this, single-threaded is faster due to channel overhead.
const parallelThreshold = 4

// workChunk represents a range of workgroups for a worker to process.
type workChunk struct {
	start, end int
	fn         func(g0, g1 int)
}

// Dispatcher runs workgroups on a persistent worker pool. It is driven from
// a single control goroutine; Run does not return until every group of the
// dispatch has finished, so dispatches never overlap.
type Dispatcher struct {
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewDispatcher creates a dispatcher with the given worker count.
// workers <= 0 uses GOMAXPROCS.
func NewDispatcher(workers int) *Dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Dispatcher{numWorkers: workers}
}

// Workers returns the worker count.
func (d *Dispatcher) Workers() int {
	return d.numWorkers
}

// start launches persistent worker goroutines.
func (d *Dispatcher) start() {
	if d.running {
		return
	}

	d.workChan = make(chan workChunk, d.numWorkers)
	d.doneChan = make(chan struct{}, d.numWorkers)
	d.stopChan = make(chan struct{})
	d.running = true

	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Stop signals all workers to exit and waits for them.
func (d *Dispatcher) Stop() {
	if !d.running {
		return
	}

	close(d.stopChan)
	d.wg.Wait()
	close(d.workChan)
	close(d.doneChan)
	d.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopChan:
			return
		case chunk, ok := <-d.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end)
			d.doneChan <- struct{}{}
		}
	}
}

// Run executes fn over workgroups [0, groups), split into one contiguous
// chunk per worker, and waits for all of them.
func (d *Dispatcher) Run(groups int, fn func(g0, g1 int)) {
	if groups <= 0 {
		return
	}
	if groups < parallelThreshold || d.numWorkers == 1 {
		fn(0, groups)
		return
	}

	// Ensure workers are running
	if !d.running {
		d.start()
	}

	chunkSize := (groups + d.numWorkers - 1) / d.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < d.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, groups)
		if start >= end {
			continue
		}

		d.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-d.doneChan
	}
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
