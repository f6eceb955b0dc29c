package rlog

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Levels = "bogus"
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrInvalidLevel)

	cfg = DefaultConfig()
	cfg.Levels = "info,error"
	cfg.Async = true
	d, err := New(cfg)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, Asynchronous, d.Policy())
	assert.Equal(t, LevelInfo|LevelError, d.Levels())
	assert.True(t, d.Enabled())
}

// Only severities in the level set reach the sinks
func TestGate(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, false, LevelVerbose.Union(LevelWarning))

	d.LogFunc(LevelInfo, func() string { return "dropped" })
	assert.Empty(t, sink.snapshot())

	d.LogFunc(LevelWarning, func() string { return "kept" })
	assert.Equal(t, []string{"kept"}, sink.texts())
}

func TestGateProperty(t *testing.T) {
	levels := []Level{LevelVerbose, LevelDebug, LevelInfo, LevelWarning, LevelError, LevelFatal, CustomLevel(9)}
	sets := []Level{LevelOff, LevelAll, LevelInfo, LevelWarning | LevelError, CustomLevel(9) | LevelDebug}

	for _, set := range sets {
		for _, enabled := range []bool{true, false} {
			d, sink, _ := createTestDispatcher(t, false, set)
			d.SetEnabled(enabled)

			for _, lvl := range levels {
				calls := 0
				before := len(sink.snapshot())
				d.Log(lvl, func() Message { calls++; return Text("m") })

				want := enabled && set.Contains(lvl)
				if want {
					assert.Equal(t, 1, calls)
					assert.Len(t, sink.snapshot(), before+1)
				} else {
					assert.Equal(t, 0, calls, "producer must not run when gated")
					assert.Len(t, sink.snapshot(), before)
				}
			}
		}
	}
}

func TestLevelOffAcceptsNothing(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, false, LevelOff)

	d.Verbosef("a")
	d.Debugf("b")
	d.Infof("c")
	d.Warningf("d")
	d.Errorf("e")
	d.Fatalf("f")
	d.Event(LevelError, "g")
	assert.Empty(t, sink.snapshot())
	assert.False(t, d.Accepts(LevelFatal))
}

func TestFormattingIsLazy(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, false, LevelError)

	var stringCalls atomic.Int32
	arg := stringerFunc(func() string { stringCalls.Add(1); return "arg" })

	d.Infof("value %s", arg)
	assert.Equal(t, int32(0), stringCalls.Load())

	d.Errorf("value %s", arg)
	assert.Equal(t, int32(1), stringCalls.Load())
	assert.Equal(t, []string{"value arg"}, sink.texts())
}

type stringerFunc func() string

func (f stringerFunc) String() string { return f() }

func TestConvenienceMethods(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, false, LevelAll)

	d.Verbose(func() Message { return Text("v") })
	d.Debug(func() Message { return Text("d") })
	d.Info(func() Message { return Text("i") })
	d.Warning(func() Message { return Text("w") })
	d.Error(func() Message { return Text("e") })
	d.Fatal(func() Message { return Text("f") })
	d.Verbosef("%s", "vf")
	d.Debugf("%s", "df")
	d.Infof("%s", "if")
	d.Warningf("%s", "wf")
	d.Errorf("%s", "ef")
	d.Fatalf("%s", "ff")
	d.Logf(CustomLevel(12), "custom %d", 12)
	d.Event(LevelInfo, "ev", "k", "v")

	want := []Level{
		LevelVerbose, LevelDebug, LevelInfo, LevelWarning, LevelError, LevelFatal,
		LevelVerbose, LevelDebug, LevelInfo, LevelWarning, LevelError, LevelFatal,
		CustomLevel(12), LevelInfo,
	}
	entries := sink.snapshot()
	require.Len(t, entries, len(want))
	for i, e := range entries {
		assert.Equal(t, want[i], e.Level, "entry %d", i)
	}
	assert.Equal(t, "custom 12", entries[12].Text())
	assert.Equal(t, `ev: [k: "v"]`, entries[13].Text())
}

func TestCallSiteCapture(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, false, LevelAll)

	d.Infof("here")
	d.Log(LevelInfo, func() Message { return Text("there") })
	d.LogAt(LevelInfo, CallSite{File: "/x/custom.go", Function: "Custom", Line: 7}, func() Message { return Text("explicit") })

	entries := sink.snapshot()
	require.Len(t, entries, 3)
	for _, e := range entries[:2] {
		assert.Equal(t, "dispatcher_test.go", filepath.Base(e.CallSite.File))
		assert.Equal(t, "TestCallSiteCapture", e.CallSite.Function)
	}
	assert.Equal(t, "custom.go:7", entries[2].CallSite.String())
}

func TestEntryTimeIsCallTime(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, true, LevelAll)

	before := time.Now()
	d.Infof("stamped")
	after := time.Now()
	require.NoError(t, d.Flush(time.Second))

	entries := sink.snapshot()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Time.Before(before))
	assert.False(t, entries[0].Time.After(after))
}

func TestSinksInRegistrationOrder(t *testing.T) {
	var order []string
	first := &recordingSink{name: "first", order: &order}
	second := &recordingSink{name: "second", order: &order}

	d, err := NewBuilder().Sink(first).Sink(second).Build()
	require.NoError(t, err)
	defer d.Close()

	d.Infof("one")
	d.Infof("two")
	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
	assert.Len(t, d.Sinks(), 2)
}

func TestMute(t *testing.T) {
	d := Mute()
	defer d.Close()

	assert.Equal(t, LevelOff, d.Levels())
	assert.False(t, d.Enabled())
	assert.Empty(t, d.Sinks())
	assert.Equal(t, Synchronous, d.Policy())

	called := false
	d.Log(LevelFatal, func() Message { called = true; return Text("x") })
	assert.False(t, called)
	assert.NoError(t, d.Flush(time.Second))
}

func TestSetLevelsAndEnabled(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, false, LevelError)

	d.Infof("dropped")
	d.SetLevels(LevelInfo)
	d.Infof("kept")
	d.SetEnabled(false)
	d.Infof("disabled")
	d.SetEnabled(true)
	d.Infof("enabled")

	assert.Equal(t, []string{"kept", "enabled"}, sink.texts())
}

// A producer that logs through the same synchronous dispatcher does not
// deadlock; the nested entry is delivered first
func TestSyncReentrancy(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, false, LevelAll)

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Log(LevelInfo, func() Message {
			d.Debugf("nested")
			return Text("outer")
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested logging deadlocked")
	}
	assert.Equal(t, []string{"nested", "outer"}, sink.texts())
}

func TestSyncProducerRunsOnCaller(t *testing.T) {
	d, _, _ := createTestDispatcher(t, false, LevelAll)

	caller := goroutineID()
	var producer uint64
	d.Log(LevelInfo, func() Message { producer = goroutineID(); return Text("x") })
	assert.Equal(t, caller, producer)
}

// Concurrent synchronous callers never interleave inside a sink
func TestSyncSerializesCallers(t *testing.T) {
	var inside, overlap atomic.Int32
	sink := SinkFunc(func(Entry) {
		if inside.Add(1) > 1 {
			overlap.Add(1)
		}
		time.Sleep(time.Millisecond)
		inside.Add(-1)
	})
	d, err := NewBuilder().Sink(sink).Build()
	require.NoError(t, err)
	defer d.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				d.Infof("x")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), overlap.Load())
}

// Six async calls at distinct severities arrive in submission order
func TestAsyncOrdering(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, true, LevelAll)

	d.Verbosef("1")
	d.Debugf("2")
	d.Infof("3")
	d.Warningf("4")
	d.Errorf("5")
	d.Fatalf("6")

	require.NoError(t, d.Flush(time.Second))
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, sink.texts())

	var levels []Level
	for _, e := range sink.snapshot() {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []Level{LevelVerbose, LevelDebug, LevelInfo, LevelWarning, LevelError, LevelFatal}, levels)
}

func TestAsyncManyProducers(t *testing.T) {
	d, sink, _ := createTestDispatcher(t, true, LevelAll)

	const producers, perProducer = 10, 100
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				d.Infof("%d", i)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, d.Flush(5*time.Second))
	assert.Len(t, sink.snapshot(), producers*perProducer)
}

func TestAsyncProducerRunsOnLane(t *testing.T) {
	d, _, _ := createTestDispatcher(t, true, LevelAll)

	caller := goroutineID()
	var producer atomic.Uint64
	d.Log(LevelInfo, func() Message { producer.Store(goroutineID()); return Text("x") })
	require.NoError(t, d.Flush(time.Second))
	assert.NotEqual(t, caller, producer.Load())
}

func TestProducerPanicRecovered(t *testing.T) {
	for _, async := range []bool{false, true} {
		t.Run(map[bool]string{false: "sync", true: "async"}[async], func(t *testing.T) {
			d, sink, errs := createTestDispatcher(t, async, LevelAll)

			assert.NotPanics(t, func() {
				d.Log(LevelError, func() Message { panic("producer failed") })
			})
			d.Infof("after")
			require.NoError(t, d.Flush(time.Second))

			assert.Equal(t, []string{"after"}, sink.texts())
			require.Len(t, errs.all(), 1)
			assert.Contains(t, errs.all()[0].Error(), "producer failed")
		})
	}
}

func TestSinkPanicDoesNotStopOthers(t *testing.T) {
	errs := &errorCollector{}
	after := &recordingSink{}
	d, err := NewBuilder().
		ErrorHandler(errs.handle).
		Sink(SinkFunc(func(Entry) { panic("sink failed") })).
		Sink(after).
		Build()
	require.NoError(t, err)
	defer d.Close()

	d.Infof("delivered")
	assert.Equal(t, []string{"delivered"}, after.texts())
	require.Len(t, errs.all(), 1)
	assert.Contains(t, errs.all()[0].Error(), "sink failed")
}

type closingSink struct {
	recordingSink
	closed atomic.Int32
}

func (c *closingSink) Close() error {
	c.closed.Add(1)
	return nil
}

func TestClose(t *testing.T) {
	sink := &closingSink{}
	d, err := NewBuilder().Async(true).Sink(sink).Build()
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		d.Infof("%d", i)
	}
	require.NoError(t, d.Close(time.Second))
	assert.Len(t, sink.snapshot(), 50, "pending entries are drained")
	assert.Equal(t, int32(1), sink.closed.Load())

	require.NoError(t, d.Close(), "second close is a no-op")
	assert.Equal(t, int32(1), sink.closed.Load())

	d.Infof("ignored")
	assert.Len(t, sink.snapshot(), 50)
	assert.ErrorIs(t, d.Flush(time.Second), ErrClosed)
	assert.False(t, d.Accepts(LevelInfo))
}

func TestCloseTimeoutLeavesSinksOpen(t *testing.T) {
	release := make(chan struct{})
	sink := &closingSink{}
	d, err := NewBuilder().
		Async(true).
		Sink(SinkFunc(func(Entry) { <-release })).
		Sink(sink).
		Build()
	require.NoError(t, err)

	d.Infof("blocks")
	err = d.Close(20 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not drain")
	assert.Equal(t, int32(0), sink.closed.Load(), "sinks stay open while the lane may still write")

	close(release)
	<-d.delivery.(*asyncDelivery).lane.done
	assert.Equal(t, []string{"blocks"}, sink.texts(), "the in-flight entry still reaches later sinks")
	assert.Equal(t, int32(0), sink.closed.Load())
	require.NoError(t, d.Close(), "second close is a no-op")
}

type syncingSink struct {
	recordingSink
	syncs atomic.Int32
}

func (s *syncingSink) Sync() error {
	s.syncs.Add(1)
	return nil
}

func TestFlushSyncsSinks(t *testing.T) {
	sink := &syncingSink{}
	d, err := NewBuilder().Sink(sink).Build()
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Flush(time.Second))
	assert.Equal(t, int32(1), sink.syncs.Load())
}

func TestFlushTimeout(t *testing.T) {
	release := make(chan struct{})
	d, err := NewBuilder().Async(true).Sink(SinkFunc(func(Entry) { <-release })).Build()
	require.NoError(t, err)

	d.Infof("blocks")
	err = d.Flush(20 * time.Millisecond)
	assert.Error(t, err)

	close(release)
	require.NoError(t, d.Close(time.Second))
}
