package rlog

import (
	"sync"
	"time"
)

// lane runs submitted tasks one at a time, in submission order, on a single
// worker goroutine. The queue is unbounded: submit never blocks.
type lane struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{} // capacity 1, coalesces wakeups
	done chan struct{} // closed when the worker exits

	onPanic func(any)
}

// newLane starts the worker
func newLane(onPanic func(any)) *lane {
	l := &lane{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onPanic: onPanic,
	}
	go l.run()
	return l
}

// submit enqueues a task. Returns false once the lane is closed.
func (l *lane) submit(task func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	l.signal()
	return true
}

// pending returns the number of queued tasks not yet picked up by the worker
func (l *lane) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// barrier waits until every task submitted before the call has run
func (l *lane) barrier(timeout time.Duration) error {
	reached := make(chan struct{})
	if !l.submit(func() { close(reached) }) {
		return ErrClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-reached:
		return nil
	case <-timer.C:
		return fmtErrorf("timeout waiting for dispatch lane to drain (%v)", timeout)
	}
}

// close stops accepting tasks, lets the worker drain what is queued and
// waits up to timeout for it to exit
func (l *lane) close(timeout time.Duration) error {
	l.mu.Lock()
	alreadyClosed := l.closed
	l.closed = true
	l.mu.Unlock()

	if !alreadyClosed {
		l.signal()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.done:
		return nil
	case <-timer.C:
		return fmtErrorf("dispatch lane did not drain within timeout (%v)", timeout)
	}
}

func (l *lane) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop
func (l *lane) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		if len(batch) == 0 {
			if closed {
				return
			}
			<-l.wake
			continue
		}

		for i := range batch {
			l.exec(batch[i])
			batch[i] = nil
		}
	}
}

// exec runs one task, containing any panic to that task
func (l *lane) exec(task func()) {
	defer func() {
		if r := recover(); r != nil && l.onPanic != nil {
			l.onPanic(r)
		}
	}()
	task()
}
