package cronexpr

import "time"

// Flags records how the expression was written where the bitsets alone cannot tell.
type Flags struct {
	SecondStar bool // seconds field starts with "*"
	MinuteStar bool
	HourStar   bool

	DayOfMonthStar     bool
	DayOfMonthQuestion bool
	DayOfMonthLast     bool // "L" or "L-n" present
	NearestWeekday     bool // trailing "W"

	DayOfWeekStar     bool
	DayOfWeekQuestion bool
	DayOfWeekLast     bool // trailing "L"
}

// Schedule is a parsed cron expression. It is immutable and safe for concurrent use.
type Schedule struct {
	expr   string
	fields int

	second     uint64 // bits 0..59
	minute     uint64 // bits 0..59
	hour       uint32 // bits 0..23
	dayOfMonth uint32 // bits 1..31, static values only
	month      uint16 // bits 1..12
	dayOfWeek  uint8  // bits 0..7, 0 and 7 are both Sunday

	// lastDayOffset applies when flags.DayOfMonthLast is set: the last day of
	// the month minus this many days also matches.
	lastDayOffset int
	nthDayOfWeek  int // 1..5, 0 when unused

	flags Flags

	// Classic cron ORs day-of-month and day-of-week only when neither is a bare
	// "*" or "?".
	domRestricted bool
	dowRestricted bool

	// interval selects the fall-back policy that fires at both occurrences.
	interval bool
}

// String returns the expression the schedule was parsed from.
func (s *Schedule) String() string { return s.expr }

// Fields returns 5 or 6.
func (s *Schedule) Fields() int { return s.fields }

func (s *Schedule) Flags() Flags { return s.flags }

// NthDayOfWeek returns the n of a "#n" suffix, or 0.
func (s *Schedule) NthDayOfWeek() int { return s.nthDayOfWeek }

// Interval reports whether seconds, minutes and hours are all "*"-based. An
// omitted seconds field counts as "*" here.
func (s *Schedule) Interval() bool { return s.interval }

// Matches reports whether the wall clock of t satisfies every field.
func (s *Schedule) Matches(t time.Time) bool {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return hasBit(s.second, ss) &&
		hasBit(s.minute, mm) &&
		hasBit(uint64(s.hour), hh) &&
		hasBit(uint64(s.month), int(m)) &&
		hasBit(s.dayMask(y, int(m)), d)
}

// dayMask returns the days of the given month (bits 1..31) on which the
// schedule may fire.
func (s *Schedule) dayMask(year, month int) uint64 {
	lastDay := daysInMonth(year, month)
	dom := s.daysOfMonth(year, month, lastDay)
	dow := s.daysOfWeek(year, month, lastDay)
	if s.domRestricted && s.dowRestricted {
		return dom | dow
	}
	return dom & dow
}

func (s *Schedule) daysOfMonth(year, month, lastDay int) uint64 {
	days := uint64(s.dayOfMonth) & rangeMask(1, lastDay)
	if s.flags.DayOfMonthLast {
		if d := lastDay - s.lastDayOffset; d >= 1 {
			days |= uint64(1) << uint(d)
		}
	}
	if !s.flags.NearestWeekday {
		return days
	}
	// "W" only follows a single value, so at most one day is set here.
	d := nextSetBit(days, 1, lastDay)
	if d < 0 {
		return 0
	}
	return uint64(1) << uint(nearestWeekday(d, weekday(year, month, d), lastDay))
}

func (s *Schedule) daysOfWeek(year, month, lastDay int) uint64 {
	first := weekday(year, month, 1)
	var days uint64
	for d := 1; d <= lastDay; d++ {
		if !hasBit(uint64(s.dayOfWeek), (first+d-1)%daysPerWeek) {
			continue
		}
		if s.flags.DayOfWeekLast && !isLastWeekdayOfMonth(d, lastDay) {
			continue
		}
		if s.nthDayOfWeek != 0 && !isNthWeekdayOfMonth(d, s.nthDayOfWeek) {
			continue
		}
		days |= uint64(1) << uint(d)
	}
	return days
}
