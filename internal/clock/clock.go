// Package clock abstracts time so schedulers can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock provides the time operations the scheduler depends on.
type Clock interface {
	Now() time.Time
	// After waits for d to elapse and then sends the current time on the returned channel.
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

// New returns a Clock backed by the system time.
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Mock is a manually controlled Clock. After advances the mock by d and fires immediately,
// so code that sleeps through a Mock runs without wall-clock delay.
type Mock struct {
	mu      sync.RWMutex
	current time.Time
	waits   []time.Duration
}

// NewMock creates a Mock set to t.
func NewMock(t time.Time) *Mock {
	return &Mock{current: t}
}

// Now returns the mock's current time.
func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// After advances the clock by d and returns a channel that already holds the new time.
func (m *Mock) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	if d > 0 {
		m.current = m.current.Add(d)
	}
	m.waits = append(m.waits, d)
	now := m.current
	m.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Set moves the clock to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// Waits returns every duration passed to After, in order.
func (m *Mock) Waits() []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Duration(nil), m.waits...)
}
