package cronexpr

import "time"

const (
	lastSecond = 59
	lastMinute = 59
	lastHour   = 23
	lastDay    = 31
	lastMonth  = 12
)

// Next returns the earliest wall-clock time in [from, to] matching the
// schedule. Only the wall-clock readings of from and to are used; the result
// carries from's location. Use NextInZone when DST transitions matter.
func (s *Schedule) Next(from, to time.Time) (time.Time, bool) {
	start := wallClock(ceilSecond(from))
	found, ok := s.search(start, wallClock(to))
	if !ok {
		return time.Time{}, false
	}
	y, m, d := found.Date()
	hh, mm, ss := found.Clock()
	return time.Date(y, m, d, hh, mm, ss, 0, from.Location()), true
}

// search walks UTC wall-clock readings. Each field takes the next permitted
// value at or after its current one; running past the top wraps to the field
// minimum and carries into the parent. Whenever a field moves forward, every
// lower field restarts at its minimum.
func (s *Schedule) search(start, end time.Time) (time.Time, bool) {
	if start.After(end) {
		return time.Time{}, false
	}

	hour32 := uint64(s.hour)
	month16 := uint64(s.month)

	minSecond := nextSetBit(s.second, 0, lastSecond)
	minMinute := nextSetBit(s.minute, 0, lastMinute)
	minHour := nextSetBit(hour32, 0, lastHour)
	minMonth := nextSetBit(month16, 1, lastMonth)

	y, mon, day := start.Date()
	year, month := y, int(mon)
	hour, minute, second := start.Clock()

	if v := nextSetBit(s.second, second, lastSecond); v >= 0 {
		second = v
	} else {
		second = minSecond
		minute++
	}

	if v := nextSetBit(s.minute, minute, lastMinute); v >= 0 {
		if v > minute {
			second = minSecond
		}
		minute = v
	} else {
		second, minute = minSecond, minMinute
		hour++
	}

	if v := nextSetBit(hour32, hour, lastHour); v >= 0 {
		if v > hour {
			second, minute = minSecond, minMinute
		}
		hour = v
	} else {
		second, minute, hour = minSecond, minMinute, minHour
		day++
	}

	resetTime := func() {
		second, minute, hour = minSecond, minMinute, minHour
	}

	// Day validity depends on the month and year, so a rejected day moves on to
	// the next permitted month and the day is derived again.
	for {
		if v := nextSetBit(month16, month, lastMonth); v < 0 {
			year++
			month, day = minMonth, 1
			resetTime()
		} else if v > month {
			month, day = v, 1
			resetTime()
		}

		if time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).After(end) {
			return time.Time{}, false
		}

		v := nextSetBit(s.dayMask(year, month), day, lastDay)
		if v < 0 {
			month++
			day = 1
			resetTime()
			continue
		}
		if v > day {
			day = v
			resetTime()
		}

		found := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
		if found.After(end) {
			return time.Time{}, false
		}
		return found, true
	}
}
