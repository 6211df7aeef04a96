package cronexpr

import "time"

const daysPerWeek = 7

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// weekday returns 0 (Sunday) .. 6 (Saturday).
func weekday(year, month, day int) int {
	return int(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday())
}

// nearestWeekday moves a weekend day to the closest weekday of the same month.
// Saturday goes back to Friday unless it is the 1st, Sunday goes forward to
// Monday unless it is the last day.
func nearestWeekday(day, wd, lastDay int) int {
	switch time.Weekday(wd) {
	case time.Sunday:
		if day == lastDay {
			return day - 2
		}
		return day + 1
	case time.Saturday:
		if day == 1 {
			return day + 2
		}
		return day - 1
	}
	return day
}

// isLastWeekdayOfMonth reports whether no later day of the month shares day's weekday.
func isLastWeekdayOfMonth(day, lastDay int) bool {
	return day+daysPerWeek > lastDay
}

// isNthWeekdayOfMonth reports whether day is the nth occurrence of its weekday.
func isNthWeekdayOfMonth(day, n int) bool {
	return day-daysPerWeek*n < 1 && day-daysPerWeek*(n-1) >= 1
}

// wallClock returns the wall-clock reading of t as a UTC time, truncated to seconds.
func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

// ceilSecond rounds t up to a whole second.
func ceilSecond(t time.Time) time.Time {
	if ns := t.Nanosecond(); ns != 0 {
		return t.Add(time.Second - time.Duration(ns))
	}
	return t
}

// wallAt returns the wall-clock reading of instant t under a fixed offset (seconds east of UTC).
func wallAt(t time.Time, offset int) time.Time {
	return time.Unix(t.Unix()+int64(offset), 0).UTC()
}

// instantOf is the inverse of wallAt.
func instantOf(wall time.Time, offset int) time.Time {
	return time.Unix(wall.Unix()-int64(offset), 0)
}
