package trigger

import (
	"sync"
	"time"

	"cronpulse/pkg/cronexpr"
)

// cronSchedule adapts a cronexpr schedule to cron.Schedule.
//
// robfig/cron asks for the following occurrence right before it starts the
// job for the current one, so the adapter keeps the previous answer around:
// due() is the occurrence the running job belongs to.
type cronSchedule struct {
	s       *cronexpr.Schedule
	loc     *time.Location
	horizon time.Duration

	mu   sync.Mutex
	prev time.Time
	next time.Time
}

func newCronSchedule(s *cronexpr.Schedule, loc *time.Location, horizon time.Duration) *cronSchedule {
	return &cronSchedule{s: s, loc: loc, horizon: horizon}
}

// Next returns the first occurrence strictly after t, or the zero time when
// there is none within the horizon (robfig/cron then never runs the entry).
func (c *cronSchedule) Next(t time.Time) time.Time {
	n := nextAfter(c.s, c.loc, t, c.horizon)
	c.mu.Lock()
	c.prev, c.next = c.next, n
	c.mu.Unlock()
	return n
}

func (c *cronSchedule) due() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prev
}

func nextAfter(s *cronexpr.Schedule, loc *time.Location, t time.Time, horizon time.Duration) time.Time {
	from := t.Truncate(time.Second).Add(time.Second)
	got, ok := s.NextInZone(from, from.Add(horizon), loc)
	if !ok {
		return time.Time{}
	}
	return got
}

// Occurrences lists up to n occurrences of s in loc within [from, until].
// n <= 0 means no count limit.
func Occurrences(s *cronexpr.Schedule, loc *time.Location, from, until time.Time, n int) []time.Time {
	var out []time.Time
	for n <= 0 || len(out) < n {
		got, ok := s.NextInZone(from, until, loc)
		if !ok {
			break
		}
		out = append(out, got)
		from = got.Add(time.Second)
	}
	return out
}
