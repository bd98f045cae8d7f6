package concurrent

import "sync"

// WorkerPool. fixed number of goroutines draining a buffered job queue.
// usage: AddJob all jobs, Close, Start, Wait, then range over CollectResults.
type WorkerPool[T JobI, G any] struct {
	numWorkers int
	jobQueue   chan Job[T]
	results    chan G
	wg         sync.WaitGroup
	nextID     int
	closeOnce  sync.Once
}

// NewWorkerPool. queueSize bounds the number of jobs that can be added before Start.
func NewWorkerPool[T JobI, G any](numWorkers, queueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job[T], queueSize),
		results:    make(chan G, queueSize),
	}
}

func (wp *WorkerPool[T, G]) AddJob(jobItem T) {
	wp.jobQueue <- Job[T]{ID: wp.nextID, JobItem: jobItem}
	wp.nextID++
}

// Close. no more jobs, workers exit once the queue is drained.
func (wp *WorkerPool[T, G]) Close() {
	wp.closeOnce.Do(func() {
		close(wp.jobQueue)
	})
}

func (wp *WorkerPool[T, G]) Start(fn JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(fn)
	}
}

func (wp *WorkerPool[T, G]) worker(fn JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- fn(job.JobItem)
	}
}

// Wait. block until every worker returned, then close the result channel.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) CollectResults() <-chan G {
	return wp.results
}
