package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCurrentWindow(t *testing.T) {
	s := mustSchedule(t, Weekdays, "09:00", "America/New_York")
	now := time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC) // Wednesday noon EST

	w := s.CurrentWindow(now)
	require.Equal(t, time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC), w.Start)
	require.Equal(t, time.Date(2024, 1, 11, 14, 0, 0, 0, time.UTC), w.End)
	require.True(t, w.Start.Before(w.End))
	require.True(t, !w.Start.After(now) && now.Before(w.End))
}

func TestCurrentWindowOverWeekend(t *testing.T) {
	s := mustSchedule(t, Weekdays, "09:00", "America/New_York")
	now := time.Date(2024, 1, 7, 3, 0, 0, 0, time.UTC) // Saturday evening EST

	w := s.CurrentWindow(now)
	require.Equal(t, time.Date(2024, 1, 5, 14, 0, 0, 0, time.UTC), w.Start) // Friday
	require.Equal(t, time.Date(2024, 1, 8, 14, 0, 0, 0, time.UTC), w.End)  // Monday
}

func TestCurrentWindowNoPriorOccurrence(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	s, err := New(Weekdays, "09:00", "America/New_York", start)
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	w := s.CurrentWindow(now)
	require.Equal(t, start, w.Start)
	require.Equal(t, time.Date(2024, 6, 3, 13, 0, 0, 0, time.UTC), w.End)

	// Without a start date a prior occurrence always exists within the
	// backward scan, so the fallback never fires.
	s2 := mustSchedule(t, MaskOf(time.Monday), "09:00", "UTC")
	w2 := s2.CurrentWindow(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC))
	require.Equal(t, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), w2.Start)
	require.True(t, w2.Start.Before(w2.End))
}

func TestWindowBefore(t *testing.T) {
	s := mustSchedule(t, MaskOf(time.Monday, time.Thursday), "10:00", "Europe/Berlin")
	// Thursday Jan 11 2024 10:00 Berlin = 09:00 UTC; the occurrence
	// before it is Monday Jan 8.
	occ := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	w := s.WindowBefore(occ)
	require.Equal(t, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), w.Start)
	require.Equal(t, occ, w.End)
}

func TestLastSevenDays(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	w := LastSevenDays(now)
	require.Equal(t, now.AddDate(0, 0, -7), w.Start)
	require.Equal(t, now, w.End)
}
