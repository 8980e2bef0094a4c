package schedule

import "time"

// Window is the half-open interval [Start, End) that scopes an
// achievement query. A zero Start means "everything up to End".
type Window struct {
	Start time.Time
	End   time.Time
}

// CurrentWindow is the period achievements are being collected for right
// now: from the most recent occurrence strictly before now up to the next
// occurrence at or after now. When no prior occurrence exists (schedule
// just created, or its start date is ahead of every candidate) the window
// starts at the schedule's start date, or at the zero time without one;
// callers treat that as "collect everything so far".
func (s *Schedule) CurrentWindow(now time.Time) Window {
	w := Window{End: s.Next(now)}
	if prev, ok := s.Previous(now); ok {
		w.Start = prev
	} else {
		w.Start = s.start
	}
	return w
}

// WindowBefore is the historical collection period ending at the given
// occurrence, used when regenerating the document for a past occurrence.
func (s *Schedule) WindowBefore(occurrence time.Time) Window {
	w := Window{End: occurrence}
	if prev, ok := s.Previous(occurrence); ok {
		w.Start = prev
	} else {
		w.Start = s.start
	}
	return w
}

// LastSevenDays is the fixed-offset alternate window mode. It bypasses
// occurrence computation entirely.
func LastSevenDays(now time.Time) Window {
	return Window{Start: now.Add(-7 * 24 * time.Hour), End: now}
}
