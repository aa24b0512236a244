// Package monitor drives the poll loop: one ticker, one probe in flight,
// one retained outcome. It is the owner of all mutable runtime state the
// configuration menu needs to read back.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/tiroq/mutewatch/internal/diaglog"
	"github.com/tiroq/mutewatch/internal/probe"
)

// DefaultProbeTimeout bounds a single poll. The accessibility query is
// expected to complete well under a second; expiry maps to an unknown
// outcome with a timeout detail.
const DefaultProbeTimeout = 2 * time.Second

// Checker is the prober seam; tests inject fakes.
type Checker interface {
	Check(ctx context.Context) probe.Outcome
}

// Monitor runs Check on a fixed cadence and hands every outcome to the
// publish hook. Ticks never overlap: the loop goroutine runs each probe
// synchronously to completion before the next tick is considered.
type Monitor struct {
	checker Checker
	publish func(probe.Outcome)
	timeout time.Duration
	logger  *diaglog.Logger

	mu       sync.Mutex
	last     probe.Outcome
	interval time.Duration

	intervalCh chan time.Duration
}

// New creates a Monitor. publish is invoked on the loop goroutine after
// every probe, including the immediate one at startup; it may be nil.
func New(checker Checker, interval time.Duration, publish func(probe.Outcome)) *Monitor {
	return &Monitor{
		checker:    checker,
		publish:    publish,
		timeout:    DefaultProbeTimeout,
		logger:     diaglog.NewNoOp(),
		interval:   interval,
		intervalCh: make(chan time.Duration, 1),
	}
}

// SetLogger wires the structured diagnostic logger.
func (m *Monitor) SetLogger(l *diaglog.Logger) {
	if l != nil {
		m.logger = l
	}
}

// SetProbeTimeout overrides the per-poll deadline.
func (m *Monitor) SetProbeTimeout(d time.Duration) {
	if d > 0 {
		m.timeout = d
	}
}

// Run blocks until ctx is cancelled. The first probe fires immediately
// so the presenter never shows a stale default for a full interval.
func (m *Monitor) Run(ctx context.Context) {
	m.tick(ctx)

	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case d := <-m.intervalCh:
			// Stop the old ticker completely before starting the
			// replacement so no tick at the old period can fire after
			// the switch.
			ticker.Stop()
			ticker = time.NewTicker(d)
			m.mu.Lock()
			m.interval = d
			m.mu.Unlock()
			m.logger.Log(diaglog.LogEntry{
				Component: diaglog.ComponentMonitor,
				Event:     diaglog.EventIntervalChange,
				Payload:   map[string]interface{}{"interval_ms": d.Milliseconds()},
			})

		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// SetInterval requests an atomic timer replacement. Latest wins if the
// loop is mid-probe when several changes arrive.
func (m *Monitor) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	for {
		select {
		case m.intervalCh <- d:
			return
		default:
			select {
			case <-m.intervalCh:
			default:
			}
		}
	}
}

// Interval returns the current poll period.
func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// LastOutcome returns the most recent probe result. The error-detail
// viewer reads this; it never triggers a new probe.
func (m *Monitor) LastOutcome() probe.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Monitor) tick(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	out := m.checker.Check(pctx)

	m.mu.Lock()
	m.last = out
	m.mu.Unlock()

	m.logger.Log(diaglog.LogEntry{
		Component: diaglog.ComponentProbe,
		Event:     diaglog.EventProbeResult,
		Payload: map[string]interface{}{
			"state":  out.State.String(),
			"detail": out.Detail,
		},
	})

	if m.publish != nil {
		m.publish(out)
	}
}
