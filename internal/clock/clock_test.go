package clock

import (
	"testing"
	"time"
)

func TestMockAfterAdvances(t *testing.T) {
	start := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	m := NewMock(start)

	got := <-m.After(90 * time.Second)
	if !got.Equal(start.Add(90 * time.Second)) {
		t.Fatalf("expected fired time %v, got %v", start.Add(90*time.Second), got)
	}
	if !m.Now().Equal(got) {
		t.Fatalf("After should move the clock, now=%v", m.Now())
	}

	m.Advance(time.Hour)
	if m.Now().Sub(start) != time.Hour+90*time.Second {
		t.Fatalf("unexpected now %v", m.Now())
	}
	if w := m.Waits(); len(w) != 1 || w[0] != 90*time.Second {
		t.Fatalf("unexpected waits %v", w)
	}
}

func TestRealClock(t *testing.T) {
	c := New()
	before := time.Now()
	if c.Now().Before(before) {
		t.Fatalf("real clock went backwards")
	}
	select {
	case <-c.After(time.Millisecond):
	case <-time.After(time.Second):
		t.Fatalf("After never fired")
	}
}
