// Package scheduler distributes independent computation requests across
// a fixed pool of workers.
//
// Each worker runs on its own goroutine and owns its executor outright;
// no mutable state is shared across the worker boundary, so duplicate
// cache fills are possible but data races are not. Dispatch picks an
// idle worker immediately or appends to an unbounded FIFO queue; there
// is no backpressure limit, only a queue-depth gauge to watch. A panic
// inside a task tears down that worker alone: the in-flight future is
// rejected and a replacement with a fresh identity (and empty caches)
// takes its place.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/anttikuosmanen-rgb/passcast/internal/metrics"
)

var (
	// ErrPoolClosed rejects tasks that were queued at Close or submitted after.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrWorkerFault rejects the task whose execution panicked. Not retried.
	ErrWorkerFault = errors.New("worker fault")
)

// Future is the pending result of a submitted task. Abandoning a wait
// does not cancel execution; dispatched tasks always run to completion.
type Future struct {
	id   uint64
	done chan struct{}
	res  Result
}

// ID returns the task id the future is paired with.
func (f *Future) ID() uint64 { return f.id }

// Wait blocks until the task resolves or ctx ends. The returned error is
// only ever a context error; task failures arrive in Result.Err.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func newFuture(id uint64) *Future {
	return &Future{id: id, done: make(chan struct{})}
}

func (f *Future) resolve(res Result) {
	f.res = res
	close(f.done)
}

// runner abstracts the executor so pool tests can observe scheduling
// without real propagation work.
type runner interface {
	execute(Request) (any, error)
}

// execRunner adapts Executor to the runner seam.
type execRunner struct{ e *Executor }

func (r execRunner) execute(req Request) (any, error) { return r.e.Execute(req) }

// task pairs a request with its resolution target. Exactly one of fut
// and clear is set: clear sub-executions resolve through their fan-out
// op instead of an own future.
type task struct {
	id    uint64
	req   Request
	fut   *Future
	clear *clearOp
}

// clearOp tracks one ClearCache fan-out across all workers.
type clearOp struct {
	id        uint64
	fut       *Future
	remaining int
}

// worker is one pool member. tasks has capacity 1 and only ever receives
// while the worker is idle, so dispatch never blocks.
type worker struct {
	id            int
	tasks         chan *task
	run           runner
	busy          bool
	pendingClears []*clearOp
}

// Pool executes requests on a fixed set of workers.
type Pool struct {
	log       *slog.Logger
	newRunner func() runner

	mu      sync.Mutex
	workers []*worker
	queue   []*task
	closed  bool
	nextWID int
	busyN   int

	nextID atomic.Uint64
}

// NewPool starts cfg.Workers workers (clamp(NumCPU, 2, 8) when zero),
// each with its own Executor.
func NewPool(cfg Config, logger *slog.Logger) *Pool {
	p := &Pool{
		log: logger,
		newRunner: func() runner {
			return execRunner{e: NewExecutor(cfg, logger)}
		},
	}
	p.start(poolSize(cfg.Workers))
	return p
}

// poolSize applies the default sizing rule.
func poolSize(configured int) int {
	if configured > 0 {
		return configured
	}
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	if n > 8 {
		return 8
	}
	return n
}

func (p *Pool) start(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < n; i++ {
		p.spawnLocked()
	}
	p.log.Info("worker pool started", "workers", n)
}

// spawnLocked creates a worker with a fresh identity and runner.
func (p *Pool) spawnLocked() *worker {
	p.nextWID++
	w := &worker{
		id:    p.nextWID,
		tasks: make(chan *task, 1),
		run:   p.newRunner(),
	}
	p.workers = append(p.workers, w)
	go p.workerLoop(w)
	return w
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Submit hands a request to the pool and returns its future immediately;
// it never blocks on worker execution. After Close every submission
// resolves with ErrPoolClosed.
func (p *Pool) Submit(req Request) *Future {
	id := p.nextID.Add(1)
	fut := newFuture(id)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		fut.resolve(Result{ID: id, Err: ErrPoolClosed})
		metrics.IncTaskCompleted(req.taskType(), "rejected")
		return fut
	}
	metrics.IncTaskSubmitted(req.taskType())

	if _, ok := req.(ClearCache); ok {
		p.submitClearLocked(id, fut)
		return fut
	}

	t := &task{id: id, req: req, fut: fut}
	if w := p.idleWorkerLocked(); w != nil {
		p.assignLocked(w, t)
	} else {
		p.queue = append(p.queue, t)
		metrics.SetQueueDepth(len(p.queue))
	}
	return fut
}

// submitClearLocked pins one clear sub-execution on every worker. Busy
// workers pick theirs up when they free; the future resolves when the
// last worker has cleared.
func (p *Pool) submitClearLocked(id uint64, fut *Future) {
	op := &clearOp{id: id, fut: fut, remaining: len(p.workers)}
	if op.remaining == 0 {
		fut.resolve(Result{ID: id})
		metrics.IncTaskCompleted(ClearCache{}.taskType(), "ok")
		return
	}
	for _, w := range p.workers {
		w.pendingClears = append(w.pendingClears, op)
		if !w.busy {
			p.dispatchLocked(w)
		}
	}
}

// idleWorkerLocked returns any idle worker, or nil.
func (p *Pool) idleWorkerLocked() *worker {
	for _, w := range p.workers {
		if !w.busy {
			return w
		}
	}
	return nil
}

// assignLocked sends a task to an idle worker.
func (p *Pool) assignLocked(w *worker, t *task) {
	w.busy = true
	p.busyN++
	metrics.SetWorkersBusy(p.busyN)
	w.tasks <- t
}

// dispatchLocked gives a freed worker its next task: pinned clears
// first, then the FIFO queue, else it stays idle.
func (p *Pool) dispatchLocked(w *worker) {
	if len(w.pendingClears) > 0 {
		op := w.pendingClears[0]
		w.pendingClears = w.pendingClears[1:]
		p.assignLocked(w, &task{id: op.id, req: ClearCache{}, clear: op})
		return
	}
	if len(p.queue) > 0 {
		t := p.queue[0]
		p.queue = p.queue[1:]
		metrics.SetQueueDepth(len(p.queue))
		p.assignLocked(w, t)
	}
}

// workerLoop executes tasks until the channel closes. A panic inside
// execute falls through to the deferred fault handler, which replaces
// this worker entirely.
func (p *Pool) workerLoop(w *worker) {
	var current *task
	defer func() {
		if r := recover(); r != nil {
			p.handleFault(w, current, r)
		}
	}()
	for t := range w.tasks {
		current = t
		value, err := w.run.execute(t.req)
		p.complete(w, t, value, err)
		current = nil
	}
}

// complete resolves a finished task and frees the worker.
func (p *Pool) complete(w *worker, t *task, value any, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resolveLocked(t, value, err)
	p.freeLocked(w)
}

// resolveLocked routes a completed task to its future or fan-out op.
func (p *Pool) resolveLocked(t *task, value any, err error) {
	if t.clear != nil {
		t.clear.remaining--
		if t.clear.remaining == 0 {
			t.clear.fut.resolve(Result{ID: t.clear.id})
			metrics.IncTaskCompleted(ClearCache{}.taskType(), "ok")
		}
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.fut.resolve(Result{ID: t.id, Value: value, Err: err})
	metrics.IncTaskCompleted(t.req.taskType(), outcome)
}

// freeLocked marks a worker idle and immediately redispatches.
func (p *Pool) freeLocked(w *worker) {
	w.busy = false
	p.busyN--
	metrics.SetWorkersBusy(p.busyN)
	if !p.closed {
		p.dispatchLocked(w)
	}
}

// handleFault replaces a panicked worker. The in-flight task is rejected
// with ErrWorkerFault; a clear sub-execution instead counts as done,
// since the replacement starts with empty caches anyway.
func (p *Pool) handleFault(w *worker, current *task, cause any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.Error("worker fault", "worker_id", w.id, "panic", cause)
	metrics.IncWorkerFaults()

	if current != nil {
		if current.clear != nil {
			current.clear.remaining--
			if current.clear.remaining == 0 {
				current.clear.fut.resolve(Result{ID: current.clear.id})
				metrics.IncTaskCompleted(ClearCache{}.taskType(), "ok")
			}
		} else {
			current.fut.resolve(Result{ID: current.id, Err: ErrWorkerFault})
			metrics.IncTaskCompleted(current.req.taskType(), "fault")
		}
	}

	// Pending clears on the dead worker are satisfied by replacement:
	// a fresh executor has nothing to clear.
	for _, op := range w.pendingClears {
		op.remaining--
		if op.remaining == 0 {
			op.fut.resolve(Result{ID: op.id})
			metrics.IncTaskCompleted(ClearCache{}.taskType(), "ok")
		}
	}

	p.removeLocked(w)
	if p.closed {
		return
	}
	fresh := p.spawnLocked()
	p.log.Info("worker replaced", "old_id", w.id, "new_id", fresh.id)
	p.dispatchLocked(fresh)
}

// removeLocked drops a worker from the set, fixing busy accounting.
func (p *Pool) removeLocked(dead *worker) {
	if dead.busy {
		p.busyN--
		metrics.SetWorkersBusy(p.busyN)
	}
	for i, w := range p.workers {
		if w == dead {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			return
		}
	}
}

// Close stops the pool. Running tasks finish and resolve normally;
// queued and later submissions resolve with ErrPoolClosed. Safe to call
// more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for _, t := range p.queue {
		t.fut.resolve(Result{ID: t.id, Err: ErrPoolClosed})
		metrics.IncTaskCompleted(t.req.taskType(), "rejected")
	}
	p.queue = nil
	metrics.SetQueueDepth(0)

	// Unfinished clear fan-outs cannot complete once workers stop.
	seen := map[*clearOp]bool{}
	for _, w := range p.workers {
		for _, op := range w.pendingClears {
			if !seen[op] {
				seen[op] = true
				op.fut.resolve(Result{ID: op.id, Err: ErrPoolClosed})
				metrics.IncTaskCompleted(ClearCache{}.taskType(), "rejected")
			}
		}
		w.pendingClears = nil
		close(w.tasks)
	}
	p.log.Info("worker pool closed")
}
