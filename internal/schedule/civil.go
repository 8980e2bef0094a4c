package schedule

import "time"

// resolveLocal converts a civil date plus wall-clock time in loc into the
// corresponding UTC instant.
//
// DST policy (fixed, independent of time.Date normalization quirks):
//   - a wall time skipped by a spring-forward transition resolves to the
//     first valid instant after the gap
//   - a wall time repeated by a fall-back transition resolves to the
//     earlier of the two instants
func resolveLocal(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	// The wall time reinterpreted as UTC; subtracting a candidate zone
	// offset from it yields the instant that offset would imply.
	pseudo := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)

	// Enumerate the distinct UTC offsets in effect around this date and
	// keep every interpretation that round-trips back to the requested
	// wall time. A unique wall time produces one candidate, a fall-back
	// overlap produces two.
	var valid, tried []time.Time
	seen := make(map[int]bool)
	for _, probe := range []time.Duration{-30 * time.Hour, 0, 30 * time.Hour} {
		_, off := pseudo.Add(probe).In(loc).Zone()
		if seen[off] {
			continue
		}
		seen[off] = true
		u := pseudo.Add(-time.Duration(off) * time.Second)
		tried = append(tried, u)
		l := u.In(loc)
		if l.Year() == year && l.Month() == month && l.Day() == day &&
			l.Hour() == hour && l.Minute() == minute {
			valid = append(valid, u)
		}
	}
	if len(valid) > 0 {
		earliest := valid[0]
		for _, c := range valid[1:] {
			if c.Before(earliest) {
				earliest = c
			}
		}
		return earliest.UTC()
	}

	// No interpretation round-trips: the wall time falls inside a gap.
	// The failed interpretations bracket the transition; binary-search
	// for its instant, which is the first valid moment after the gap.
	lo, hi := tried[0], tried[0]
	for _, u := range tried[1:] {
		if u.Before(lo) {
			lo = u
		}
		if u.After(hi) {
			hi = u
		}
	}
	_, target := hi.In(loc).Zone()
	for hi.Sub(lo) > time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		if _, off := mid.In(loc).Zone(); off == target {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi.Truncate(time.Second).UTC()
}
