// Package executor bounds request concurrency over the shared Index: a
// non-blocking admission semaphore feeds a fixed-size CPU-bound worker
// pool, which is the only thing that ever touches the Index directly.
//
// Grounded on the teacher's internal/concurrency worker-pool shape (a Job
// struct handed to goroutines over a channel, results reported back,
// panics recovered per job), generalized here to run arbitrary closures
// against the index under the right lock instead of a fixed job-type
// switch.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/lirsacc/crible/internal/backend"
	"github.com/lirsacc/crible/internal/index"
)

// ErrTooManyRequests is returned by Spawn when the admission queue is full:
// Q concurrent operations are already admitted and waiting on a worker.
var ErrTooManyRequests = errors.New("executor: too many requests in flight")

// ErrReadOnly is returned by mutating operations when the Executor was
// constructed with Options.ReadOnly set.
var ErrReadOnly = errors.New("executor: server is read-only")

// Options configures an Executor. Zero values select the spec's defaults:
// Workers = runtime.NumCPU(), QueueSize = Workers * 10.
type Options struct {
	Workers   int
	QueueSize int
	ReadOnly  bool
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.QueueSize <= 0 {
		o.QueueSize = o.Workers * 10
	}
	return o
}

// job is a unit of work handed from Spawn to a worker goroutine.
type job struct {
	fn     func(*IndexHandle) (any, error)
	result chan jobResult
}

type jobResult struct {
	value any
	err   error
}

// Executor serializes access to a shared Index and Backend behind a
// bounded worker pool. The zero value is not usable; construct one with
// New.
type Executor struct {
	idxMu sync.RWMutex
	idx   *index.Index

	beMu sync.Mutex
	be   backend.Backend

	readOnly bool
	sem      *semaphore.Weighted
	jobs     chan job

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New starts opts.Workers worker goroutines and returns an Executor
// operating over idx and be. Call Close to stop the worker pool.
func New(be backend.Backend, idx *index.Index, opts Options) *Executor {
	opts = opts.withDefaults()

	e := &Executor{
		idx:      idx,
		be:       be,
		readOnly: opts.ReadOnly,
		sem:      semaphore.NewWeighted(int64(opts.QueueSize)),
		jobs:     make(chan job, opts.QueueSize),
		done:     make(chan struct{}),
	}

	for i := 0; i < opts.Workers; i++ {
		e.wg.Add(1)
		go e.runWorker()
	}
	return e
}

// ReadOnly reports whether mutating operations are rejected at the entry
// point.
func (e *Executor) ReadOnly() bool {
	return e.readOnly
}

// Close stops accepting new work and waits for in-flight worker jobs to
// drain. It does not cancel admitted-but-unstarted jobs; they still run.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		close(e.jobs)
	})
	e.wg.Wait()
}

func (e *Executor) runWorker() {
	defer e.wg.Done()
	for j := range e.jobs {
		j.result <- e.runJob(j.fn)
	}
}

// runJob executes fn, recovering a panic into an error so one bad
// operation never takes the whole worker down.
func (e *Executor) runJob(fn func(*IndexHandle) (any, error)) (res jobResult) {
	defer func() {
		if r := recover(); r != nil {
			res = jobResult{err: fmt.Errorf("executor: worker panic: %v", r)}
		}
	}()
	val, err := fn(&IndexHandle{e: e})
	return jobResult{value: val, err: err}
}

// Spawn tries to acquire an admission permit without blocking; if the
// queue is full it fails immediately with ErrTooManyRequests. On success
// it hands fn to a worker and waits for the result. If ctx is canceled
// while waiting, Spawn returns ctx.Err() without waiting for the worker:
// the worker keeps running fn to completion regardless, since a
// mid-computation Index operation cannot be safely interrupted.
func (e *Executor) Spawn(ctx context.Context, fn func(*IndexHandle) (any, error)) (any, error) {
	if !e.sem.TryAcquire(1) {
		return nil, ErrTooManyRequests
	}
	defer e.sem.Release(1)

	j := job{fn: fn, result: make(chan jobResult, 1)}

	select {
	case e.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-j.result:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IndexHandle is the only way an operation touches the shared Index. It
// enforces that every access goes through the right lock mode: Read takes
// the shared read lock, Write takes the exclusive write lock.
type IndexHandle struct {
	e *Executor
}

// Read runs fn with a read lock held over the Index.
func (h *IndexHandle) Read(fn func(*index.Index) (any, error)) (any, error) {
	h.e.idxMu.RLock()
	defer h.e.idxMu.RUnlock()
	return fn(h.e.idx)
}

// Write runs fn with the exclusive write lock held over the Index.
func (h *IndexHandle) Write(fn func(*index.Index) (any, error)) (any, error) {
	h.e.idxMu.Lock()
	defer h.e.idxMu.Unlock()
	return fn(h.e.idx)
}

// snapshot returns a deep clone of the current Index under a read lock,
// used by Flush to dump a consistent view without holding the lock during
// backend I/O.
func (h *IndexHandle) snapshot() *index.Index {
	h.e.idxMu.RLock()
	defer h.e.idxMu.RUnlock()
	return h.e.idx.Clone()
}

// replace swaps in a freshly loaded Index wholesale, used by Reload.
func (h *IndexHandle) replace(idx *index.Index) {
	h.e.idxMu.Lock()
	defer h.e.idxMu.Unlock()
	h.e.idx = idx
}
