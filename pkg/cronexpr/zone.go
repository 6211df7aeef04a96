package cronexpr

import "time"

// NextInZone returns the earliest instant in [from, to] at which the schedule
// fires in loc. A nil loc means UTC.
//
// Local times that do not exist (spring-forward gap) fire once, at the
// transition instant. Local times that occur twice (fall-back overlap) fire at
// both occurrences for interval schedules and only at the earlier one
// otherwise.
func (s *Schedule) NextInZone(from, to time.Time, loc *time.Location) (time.Time, bool) {
	from = ceilSecond(from)
	if from.After(to) {
		return time.Time{}, false
	}
	if loc == nil || loc == time.UTC {
		found, ok := s.search(wallClock(from.UTC()), wallClock(to.UTC()))
		if !ok {
			return time.Time{}, false
		}
		return found, true
	}

	// Walk the zone's offset periods. Inside one period wall clock and instant
	// move together, so the calendar search applies directly.
	cur := from.In(loc)
	if fireAtGap(s, cur, loc) {
		return cur, true
	}
	for !cur.After(to) {
		_, offset := cur.Zone()
		periodStart, periodEnd := cur.ZoneBounds()

		last := to
		if !periodEnd.IsZero() && periodEnd.Add(-time.Second).Before(last) {
			last = periodEnd.Add(-time.Second)
		}

		startWall := wallAt(cur, offset)
		if !s.interval && !periodStart.IsZero() {
			// After a fall-back the first wall times of this period are
			// ambiguous; they already fired under the earlier offset.
			_, prevOffset := periodStart.Add(-time.Second).In(loc).Zone()
			if prevOffset > offset {
				if overlapEnd := wallAt(periodStart, prevOffset); overlapEnd.After(startWall) {
					startWall = overlapEnd
				}
			}
		}

		if found, ok := s.search(startWall, wallAt(last, offset)); ok {
			return instantOf(found, offset).In(loc), true
		}

		if periodEnd.IsZero() || periodEnd.After(to) {
			return time.Time{}, false
		}

		// Wall times skipped by a spring-forward are invalid; a match there
		// fires at the transition itself.
		next := periodEnd.In(loc)
		if _, nextOffset := next.Zone(); nextOffset > offset {
			gapStart := wallAt(periodEnd, offset)
			gapEnd := wallAt(periodEnd, nextOffset).Add(-time.Second)
			if _, ok := s.search(gapStart, gapEnd); ok {
				return next, true
			}
		}
		cur = next
	}
	return time.Time{}, false
}

// fireAtGap reports whether cur is a spring-forward transition instant whose
// skipped wall times contain a match. The loop in NextInZone only checks a gap
// when leaving a period, so a search starting exactly at the transition needs
// this check.
func fireAtGap(s *Schedule, cur time.Time, loc *time.Location) bool {
	periodStart, _ := cur.ZoneBounds()
	if periodStart.IsZero() || !cur.Equal(periodStart) {
		return false
	}
	_, offset := cur.Zone()
	_, prevOffset := periodStart.Add(-time.Second).In(loc).Zone()
	if prevOffset >= offset {
		return false
	}
	_, ok := s.search(wallAt(periodStart, prevOffset), wallAt(periodStart, offset).Add(-time.Second))
	return ok
}
