package schedule

import (
	"strings"
	"time"
)

// Mask selects the days of the week a standup fires on. Bit numbering
// follows time.Weekday: bit 0 is Sunday, bit 6 is Saturday. The zero
// mask enables no days and is rejected by New.
type Mask uint8

// Named masks for the common configurations.
const (
	Weekdays Mask = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday
	EveryDay Mask = Weekdays | 1<<time.Saturday | 1<<time.Sunday
)

// MaskOf builds a mask from the given weekdays.
func MaskOf(days ...time.Weekday) Mask {
	var m Mask
	for _, d := range days {
		m |= 1 << uint(d)
	}
	return m
}

// Enabled reports whether the mask includes the given weekday.
func (m Mask) Enabled(d time.Weekday) bool {
	return m&(1<<uint(d)) != 0
}

// Days returns the enabled weekdays in Sunday-first order.
func (m Mask) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if m.Enabled(d) {
			out = append(out, d)
		}
	}
	return out
}

func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	parts := make([]string, 0, 7)
	for _, d := range m.Days() {
		parts = append(parts, d.String()[:3])
	}
	return strings.Join(parts, ",")
}
