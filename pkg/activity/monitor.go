// Package activity tracks when the user last touched the keyboard or mouse.
package activity

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Source reports how long the user has been idle.
type Source interface {
	IdleTime(ctx context.Context) (time.Duration, error)
}

// Fallback tries each source in order.
type Fallback []Source

// IdleTime returns the first successful reading.
func (f Fallback) IdleTime(ctx context.Context) (time.Duration, error) {
	var lastErr error = errors.New("no idle source configured")
	for _, s := range f {
		idle, err := s.IdleTime(ctx)
		if err == nil {
			return idle, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

// Monitor polls a Source and keeps a single last-input timestamp that only
// moves forward.
type Monitor struct {
	source   Source
	interval time.Duration
	now      func() time.Time

	last    atomic.Int64 // unix nanoseconds
	lastErr atomic.Value // string
}

// NewMonitor starts with the last input set to now, so a fresh tracker
// begins ACTIVE.
func NewMonitor(source Source, interval time.Duration) *Monitor {
	return newMonitor(source, interval, time.Now)
}

func newMonitor(source Source, interval time.Duration, now func() time.Time) *Monitor {
	m := &Monitor{source: source, interval: interval, now: now}
	m.last.Store(now().UnixNano())
	m.lastErr.Store("")
	return m
}

// LastInput returns the most recent observed input time.
func (m *Monitor) LastInput() time.Time {
	return time.Unix(0, m.last.Load())
}

// Observe records input at t unless a later input is already known.
func (m *Monitor) Observe(t time.Time) {
	n := t.UnixNano()
	for {
		cur := m.last.Load()
		if n <= cur || m.last.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Poll reads the source once. When idle time cannot be read the user is
// assumed present, so tracking never drifts into AFK on a broken source.
func (m *Monitor) Poll(ctx context.Context) {
	now := m.now()
	idle, err := m.source.IdleTime(ctx)
	if err != nil {
		if msg := err.Error(); msg != m.lastErr.Load().(string) {
			log.Printf("Idle time unavailable, assuming activity: %v", err)
			m.lastErr.Store(msg)
		}
		m.Observe(now)
		return
	}
	if idle < 0 {
		idle = 0
	}
	m.Observe(now.Add(-idle))
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}
