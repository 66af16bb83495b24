// Package sequence provides the single goroutine that all controller and
// tool state transitions run on.
package sequence

import (
	"sync"
	"time"

	"browser-actor/internal/application/port/output"

	"k8s.io/utils/clock"
)

var _ output.TaskRunner = (*Runner)(nil)

// Runner executes posted closures one at a time, in post order, on a
// dedicated goroutine. The queue is unbounded so a task may post further
// tasks without blocking.
type Runner struct {
	clock clock.WithDelayedExecution

	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}
	timers map[*delayed]struct{}
}

type delayed struct {
	timer clock.Timer
}

func New(clk clock.WithDelayedExecution) *Runner {
	if clk == nil {
		clk = clock.RealClock{}
	}
	r := &Runner{
		clock:  clk,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		timers: make(map[*delayed]struct{}),
	}
	go r.loop()
	return r
}

func (r *Runner) PostTask(task func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, task)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) PostDelayedTask(task func(), delay time.Duration) {
	if delay <= 0 {
		r.PostTask(task)
		return
	}

	d := &delayed{}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.timers[d] = struct{}{}
	d.timer = r.clock.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, d)
		r.mu.Unlock()
		r.PostTask(task)
	})
	r.mu.Unlock()
}

// Flush blocks until every task posted before the call has run.
func (r *Runner) Flush() {
	ch := make(chan struct{})
	r.PostTask(func() { close(ch) })

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return
	}
	select {
	case <-ch:
	case <-r.done:
	}
}

// Close stops the runner. Pending delayed tasks are cancelled and queued
// tasks that have not started are dropped. Close waits for the running
// task to return, so it must not be called from a task on this runner.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for d := range r.timers {
		d.timer.Stop()
	}
	r.timers = nil
	r.queue = nil
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	<-r.done
}

func (r *Runner) loop() {
	defer close(r.done)
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		if len(r.queue) == 0 {
			r.mu.Unlock()
			<-r.wake
			continue
		}
		task := r.queue[0]
		r.queue[0] = nil
		r.queue = r.queue[1:]
		r.mu.Unlock()

		task()
	}
}
