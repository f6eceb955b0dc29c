package rlog

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// reentrantMutex is a mutex the owning goroutine may acquire repeatedly.
// Each Lock must be paired with an Unlock from the same goroutine.
type reentrantMutex struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner uint64 // 0 when free
	depth int
}

func newReentrantMutex() *reentrantMutex {
	m := &reentrantMutex{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Lock acquires the mutex, or deepens the hold if the caller already owns it
func (m *reentrantMutex) Lock() {
	id := goroutineID()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.owner == id {
		m.depth++
		return
	}
	for m.owner != 0 {
		m.cond.Wait()
	}
	m.owner = id
	m.depth = 1
}

// Unlock releases one level of hold
func (m *reentrantMutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.depth == 0 {
		panic("rlog: unlock of unlocked reentrant mutex")
	}
	m.depth--
	if m.depth == 0 {
		m.owner = 0
		m.cond.Signal()
	}
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine id from the stack header
// "goroutine 123 [running]:"
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		panic("rlog: cannot parse goroutine id: " + err.Error())
	}
	return id
}
