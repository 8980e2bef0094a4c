package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyMask   = errors.New("schedule: weekday mask enables no days")
	ErrBadTime     = errors.New("schedule: meeting time must be HH:MM in 24-hour form")
	ErrBadTimezone = errors.New("schedule: unknown timezone")
)

// Schedule is an immutable recurrence definition: the weekdays a standup
// fires on, its local wall-clock time and the timezone that wall clock is
// read in, plus an optional start date before which no occurrence exists.
//
// All methods take the reference instant explicitly; nothing here reads
// the wall clock, so every computation is reproducible under test.
type Schedule struct {
	mask   Mask
	hour   int
	minute int
	loc    *time.Location
	start  time.Time
}

// New validates and builds a Schedule. meetingTime is "HH:MM" (24-hour),
// timezone an IANA name. startDate may be zero; only its civil date in
// the schedule's timezone matters.
func New(mask Mask, meetingTime, timezone string, startDate time.Time) (*Schedule, error) {
	if mask == 0 {
		return nil, ErrEmptyMask
	}
	hour, minute, err := parseMeetingTime(meetingTime)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadTimezone, timezone)
	}
	return &Schedule{mask: mask, hour: hour, minute: minute, loc: loc, start: startDate}, nil
}

func parseMeetingTime(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	hour, err1 := strconv.Atoi(hh)
	minute, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	return hour, minute, nil
}

func (s *Schedule) Mask() Mask               { return s.mask }
func (s *Schedule) Location() *time.Location { return s.loc }
func (s *Schedule) StartDate() time.Time     { return s.start }

// MeetingTime returns the wall-clock time in "HH:MM" form.
func (s *Schedule) MeetingTime() string {
	return fmt.Sprintf("%02d:%02d", s.hour, s.minute)
}

// Next returns the first occurrence at or after now. It scans eight civil
// days (not seven) so that a single-day mask whose meeting time already
// passed today is still found one week out. With a valid mask the scan
// always succeeds unless the start date pushes every candidate away, in
// which case the scan restarts from the start date.
func (s *Schedule) Next(now time.Time) time.Time {
	base := now.In(s.loc)
	if sd, ok := s.startFloor(); ok && sd.After(base) {
		base = sd
	}
	y, mo, d := base.Date()
	for i := 0; i < 8; i++ {
		day := time.Date(y, mo, d+i, 12, 0, 0, 0, s.loc)
		if !s.mask.Enabled(day.Weekday()) || s.beforeStart(day) {
			continue
		}
		cand := resolveLocal(day.Year(), day.Month(), day.Day(), s.hour, s.minute, s.loc)
		if !cand.Before(now) {
			return cand
		}
	}
	return time.Time{}
}

// Previous returns the most recent occurrence strictly before now, or
// false when none exists (the start date cut off every candidate).
func (s *Schedule) Previous(now time.Time) (time.Time, bool) {
	local := now.In(s.loc)
	y, mo, d := local.Date()
	for i := 0; i < 8; i++ {
		day := time.Date(y, mo, d-i, 12, 0, 0, 0, s.loc)
		if s.beforeStart(day) {
			// every earlier day is cut off as well
			return time.Time{}, false
		}
		if !s.mask.Enabled(day.Weekday()) {
			continue
		}
		cand := resolveLocal(day.Year(), day.Month(), day.Day(), s.hour, s.minute, s.loc)
		if cand.Before(now) {
			return cand, true
		}
	}
	return time.Time{}, false
}

// Between enumerates every occurrence inside [start, end], ascending.
// An inverted range yields an empty slice, not an error.
func (s *Schedule) Between(start, end time.Time) []time.Time {
	out := []time.Time{}
	if start.After(end) {
		return out
	}
	ls, le := start.In(s.loc), end.In(s.loc)
	y, mo, d := ls.Date()
	days := civilDaysBetween(ls, le)
	for i := 0; i <= days; i++ {
		day := time.Date(y, mo, d+i, 12, 0, 0, 0, s.loc)
		if !s.mask.Enabled(day.Weekday()) || s.beforeStart(day) {
			continue
		}
		cand := resolveLocal(day.Year(), day.Month(), day.Day(), s.hour, s.minute, s.loc)
		if !cand.Before(start) && !cand.After(end) {
			out = append(out, cand)
		}
	}
	return out
}

// startFloor returns noon of the start date in the schedule's timezone.
func (s *Schedule) startFloor() (time.Time, bool) {
	if s.start.IsZero() {
		return time.Time{}, false
	}
	sd := s.start.In(s.loc)
	return time.Date(sd.Year(), sd.Month(), sd.Day(), 12, 0, 0, 0, s.loc), true
}

// beforeStart reports whether day's civil date precedes the start date's.
func (s *Schedule) beforeStart(day time.Time) bool {
	sd, ok := s.startFloor()
	if !ok {
		return false
	}
	return civilDate(day).Before(civilDate(sd))
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// civilDaysBetween counts the whole civil days from a's date to b's date.
func civilDaysBetween(a, b time.Time) int {
	return int(civilDate(b).Sub(civilDate(a)) / (24 * time.Hour))
}
