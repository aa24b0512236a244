package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tiroq/mutewatch/internal/probe"
)

// fakeChecker returns a scripted sequence of outcomes and counts calls.
type fakeChecker struct {
	mu       sync.Mutex
	outcomes []probe.Outcome
	calls    int
	delay    time.Duration
	inFlight int32
	overlap  int32
}

func (f *fakeChecker) Check(ctx context.Context) probe.Outcome {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := probe.Outcome{State: probe.StateUnknown, Detail: "exhausted"}
	if f.calls < len(f.outcomes) {
		out = f.outcomes[f.calls]
	} else if len(f.outcomes) > 0 {
		out = f.outcomes[len(f.outcomes)-1]
	}
	f.calls++
	return out
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunProbesImmediatelyAndPublishes(t *testing.T) {
	fc := &fakeChecker{outcomes: []probe.Outcome{{State: probe.StateMuted}}}

	published := make(chan probe.Outcome, 16)
	m := New(fc, time.Hour, func(out probe.Outcome) { published <- out })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	select {
	case out := <-published:
		if out.State != probe.StateMuted {
			t.Errorf("published state: got %s, want muted", out.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no outcome published before the first interval elapsed")
	}

	if got := m.LastOutcome(); got.State != probe.StateMuted {
		t.Errorf("LastOutcome: got %s, want muted", got.State)
	}
}

func TestLastOutcomeKeepsOnlyNewest(t *testing.T) {
	fc := &fakeChecker{outcomes: []probe.Outcome{
		{State: probe.StateUnknown, Detail: "Zoom is not running"},
		{State: probe.StateUnmuted},
	}}

	var done sync.WaitGroup
	done.Add(2)
	seen := 0
	m := New(fc, 10*time.Millisecond, nil)
	m.publish = func(probe.Outcome) {
		if seen < 2 {
			done.Done()
		}
		seen++
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitDone(t, &done, 2*time.Second)

	if got := m.LastOutcome(); got.State != probe.StateUnmuted {
		t.Errorf("LastOutcome after overwrite: got %+v, want unmuted", got)
	}
}

func TestSetIntervalReplacesTimer(t *testing.T) {
	fc := &fakeChecker{outcomes: []probe.Outcome{{State: probe.StateUnmuted}}}
	m := New(fc, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// Let the fast timer produce a few ticks first.
	deadline := time.Now().Add(2 * time.Second)
	for fc.callCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("fast timer never ticked")
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.SetInterval(time.Hour)

	// Allow an in-flight tick and the swap itself to settle, then verify
	// the old cadence is gone: the call count must stop moving.
	time.Sleep(100 * time.Millisecond)
	before := fc.callCount()
	time.Sleep(200 * time.Millisecond)
	after := fc.callCount()

	if after != before {
		t.Errorf("ticks continued at the old period after the switch: %d -> %d", before, after)
	}
	if got := m.Interval(); got != time.Hour {
		t.Errorf("Interval: got %v, want 1h", got)
	}
}

func TestProbesNeverOverlap(t *testing.T) {
	// Each probe takes far longer than the tick period; the loop must
	// still run them strictly one at a time.
	fc := &fakeChecker{
		outcomes: []probe.Outcome{{State: probe.StateMuted}},
		delay:    30 * time.Millisecond,
	}
	m := New(fc, 10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	m.Run(ctx)

	if atomic.LoadInt32(&fc.overlap) != 0 {
		t.Error("observed concurrent probes")
	}
	if fc.callCount() < 2 {
		t.Errorf("expected several sequential probes, got %d", fc.callCount())
	}
}

func TestSetIntervalLatestWins(t *testing.T) {
	fc := &fakeChecker{outcomes: []probe.Outcome{{State: probe.StateMuted}}, delay: 50 * time.Millisecond}
	m := New(fc, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// Pile up changes while the loop is busy in the first probe; the
	// last one must be the one that sticks.
	m.SetInterval(time.Minute)
	m.SetInterval(30 * time.Minute)
	m.SetInterval(2 * time.Hour)

	deadline := time.Now().Add(2 * time.Second)
	for m.Interval() != 2*time.Hour {
		if time.Now().After(deadline) {
			t.Fatalf("interval never settled, got %v", m.Interval())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func waitDone(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for publishes")
	}
}
