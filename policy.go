package rlog

import (
	"fmt"
	"time"
)

// Policy selects how a Dispatcher serializes delivery
type Policy int

const (
	// Synchronous delivers on the caller's goroutine under a re-entrant lock
	Synchronous Policy = iota
	// Asynchronous delivers on one serial background lane, in call order
	Asynchronous
)

// String returns the policy name
func (p Policy) String() string {
	switch p {
	case Synchronous:
		return "sync"
	case Asynchronous:
		return "async"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// delivery is the runtime side of a Policy
type delivery interface {
	run(task func())
	flush(timeout time.Duration) error
	close(timeout time.Duration) error
}

func newDelivery(p Policy, onPanic func(any)) delivery {
	if p == Asynchronous {
		return &asyncDelivery{lane: newLane(onPanic)}
	}
	return &syncDelivery{mu: newReentrantMutex(), onPanic: onPanic}
}

// syncDelivery runs tasks inline. The lock is re-entrant so a producer may
// log through the same dispatcher.
type syncDelivery struct {
	mu      *reentrantMutex
	onPanic func(any)
}

func (s *syncDelivery) run(task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil && s.onPanic != nil {
			s.onPanic(r)
		}
	}()
	task()
}

func (s *syncDelivery) flush(time.Duration) error { return nil }

// close waits for an in-flight delivery by taking the lock once
func (s *syncDelivery) close(time.Duration) error {
	s.mu.Lock()
	s.mu.Unlock()
	return nil
}

// asyncDelivery queues tasks on a serial lane
type asyncDelivery struct {
	lane *lane
}

func (a *asyncDelivery) run(task func()) {
	a.lane.submit(task)
}

func (a *asyncDelivery) flush(timeout time.Duration) error {
	return a.lane.barrier(timeout)
}

func (a *asyncDelivery) close(timeout time.Duration) error {
	return a.lane.close(timeout)
}
