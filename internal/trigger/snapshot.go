package trigger

import (
	"sort"
	"time"
)

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	tz := s.cfg.Timezone
	if s.loc != nil {
		tz = s.loc.String()
	} else if tz == "" {
		tz = time.Local.String()
	}

	items := make([]ScheduleInfo, 0, len(s.entries))
	for _, e := range s.entries {
		it := ScheduleInfo{Name: e.name, Expr: e.expr, Zone: e.tz, Fired: e.fired.Load(), Late: e.late.Load()}
		if e.adapter != nil {
			it.Zone = e.adapter.loc.String()
		}
		if s.c != nil && e.entryID != 0 {
			ce := s.c.Entry(e.entryID)
			it.Next = ce.Next
			it.Prev = ce.Prev
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	return Snapshot{
		Enabled:   s.cfg.Enabled,
		Running:   s.c != nil,
		Timezone:  tz,
		Horizon:   s.cfg.Horizon,
		Schedules: items,
	}
}
