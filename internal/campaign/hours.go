package campaign

import (
	"fmt"
	"time"

	"github.com/acme/coldcall-agent/internal/domain"
)

// clockTime is a minute-of-day parsed from "HH:MM".
type clockTime int

func parseClock(s string) (clockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("call hours %q must be HH:MM", s)
	}
	return clockTime(t.Hour()*60 + t.Minute()), nil
}

type window struct {
	start, end clockTime
}

func parseWindow(h domain.CallHours) (window, error) {
	start, err := parseClock(h.Start)
	if err != nil {
		return window{}, err
	}
	end, err := parseClock(h.End)
	if err != nil {
		return window{}, err
	}
	return window{start: start, end: end}, nil
}

// contains reports whether local falls inside the window. Both ends are inclusive to the minute, so
// 09:00-17:00 still dials at 17:00. A window whose end is not after its start spans midnight.
func (w window) contains(local time.Time) bool {
	minute := clockTime(local.Hour()*60 + local.Minute())
	if w.end <= w.start {
		return minute >= w.start || minute <= w.end
	}
	return minute >= w.start && minute <= w.end
}

// nextOpen returns the earliest instant at or after local when the window is open.
func (w window) nextOpen(local time.Time) time.Time {
	if w.contains(local) {
		return local
	}
	y, m, d := local.Date()
	open := time.Date(y, m, d, int(w.start)/60, int(w.start)%60, 0, 0, local.Location())
	if !open.After(local) {
		open = time.Date(y, m, d+1, int(w.start)/60, int(w.start)%60, 0, 0, local.Location())
	}
	return open
}

// nextDayOpen returns when the window first opens on the local day after local.
func (w window) nextDayOpen(local time.Time) time.Time {
	y, m, d := local.Date()
	return w.nextOpen(time.Date(y, m, d+1, 0, 0, 0, 0, local.Location()))
}

func dayKey(local time.Time) string {
	return local.Format(time.DateOnly)
}
