// Package executor marshals work from any goroutine onto the single
// goroutine that owns the host application state. The host's scripting
// engine is not safe to touch concurrently, so every command — no matter
// which connection it arrived on — funnels through this one pump.
package executor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/denizumutdereli/nukebridge/pkg/core"
	"github.com/denizumutdereli/nukebridge/pkg/protocol"
)

// Job is one unit of work executed exclusively on the owning goroutine.
type Job func() protocol.Response

// workItem pairs a job with the slot its result is delivered through.
// The result channel is buffered so the pump never blocks on a caller
// that gave up waiting (timeout or shutdown).
type workItem struct {
	job    Job
	result chan protocol.Response
}

// MainThread is the owning-goroutine pump. Jobs submitted from any
// goroutine execute strictly one at a time, in FIFO submission order,
// on whichever goroutine called Run.
type MainThread struct {
	items      chan *workItem
	jobTimeout time.Duration

	attached atomic.Bool
	stopped  atomic.Bool
	done     chan struct{}

	// Stats
	jobsProcessed uint64
	lastJob       time.Time
	mu            sync.RWMutex
}

// New creates a pump with the given queue depth. jobTimeout bounds how long
// Submit waits for one job; 0 disables the deadline.
func New(queueSize int, jobTimeout time.Duration) *MainThread {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &MainThread{
		items:      make(chan *workItem, queueSize),
		jobTimeout: jobTimeout,
		done:       make(chan struct{}),
	}
}

// Run executes queued work on the calling goroutine and blocks until Stop.
// The caller becomes the owning thread: Run must be invoked from the one
// goroutine that is allowed to touch host state. Calling Run twice, or
// after Stop, returns an error without pumping.
func (m *MainThread) Run() error {
	if m.stopped.Load() {
		return core.ErrExecutorStopped
	}
	if !m.attached.CompareAndSwap(false, true) {
		return fmt.Errorf("owning thread already attached")
	}
	defer m.attached.Store(false)

	for {
		select {
		case <-m.done:
			m.drain()
			return nil

		case item := <-m.items:
			m.process(item)
		}
	}
}

// process runs a single job, recovering any fault at the pump boundary so
// the waiting caller is always released and the pump survives.
func (m *MainThread) process(item *workItem) {
	m.mu.Lock()
	m.jobsProcessed++
	m.lastJob = time.Now()
	m.mu.Unlock()

	item.result <- runJob(item.job)
}

func runJob(job Job) (resp protocol.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = protocol.Failure(fmt.Sprintf("%v", rec))
		}
	}()
	return job()
}

// drain completes remaining queued work before the pump exits, so no
// submitted caller is left waiting across shutdown.
func (m *MainThread) drain() {
	for {
		select {
		case item := <-m.items:
			m.process(item)
		default:
			return
		}
	}
}

// Submit queues a job and blocks until the owning goroutine has executed it,
// returning the job's response. Callable from any goroutine. When no pump is
// attached the call fails immediately instead of blocking forever.
func (m *MainThread) Submit(job Job) protocol.Response {
	if m.stopped.Load() || !m.attached.Load() {
		return protocol.Failure(core.ErrExecutorUnavailable.Error())
	}

	item := &workItem{
		job:    job,
		result: make(chan protocol.Response, 1),
	}

	select {
	case m.items <- item:
	case <-m.done:
		return protocol.Failure(core.ErrExecutorUnavailable.Error())
	}

	if m.jobTimeout > 0 {
		timer := time.NewTimer(m.jobTimeout)
		defer timer.Stop()
		select {
		case resp := <-item.result:
			return resp
		case <-timer.C:
			// The job stays queued and will still run; only this caller
			// stops waiting for it.
			return protocol.Failure("command timed out after " + m.jobTimeout.String())
		}
	}

	select {
	case resp := <-item.result:
		return resp
	case <-m.done:
		// Shutdown raced the enqueue. The drain pass usually still delivers
		// the result; give it a bounded grace instead of stranding the caller.
		select {
		case resp := <-item.result:
			return resp
		case <-time.After(time.Second):
			return protocol.Failure(core.ErrExecutorUnavailable.Error())
		}
	}
}

// Attached reports whether an owning goroutine is currently pumping.
func (m *MainThread) Attached() bool {
	return m.attached.Load()
}

// Stop shuts the pump down. Queued work is drained before Run returns.
// Safe to call more than once and safe before Run was ever called.
func (m *MainThread) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		close(m.done)
	}
}

// Stats returns pump statistics.
func (m *MainThread) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]any{
		"jobs_processed": m.jobsProcessed,
		"last_job":       m.lastJob,
		"queue_length":   len(m.items),
		"queue_capacity": cap(m.items),
		"attached":       m.attached.Load(),
	}
}
