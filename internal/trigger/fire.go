package trigger

import (
	"time"

	"cronpulse/internal/eventbus"
	logx "cronpulse/pkg/logx"
)

// fire runs on robfig/cron's job goroutine. It must not take s.mu: Stop and
// restart wait for running jobs while holding it.
func (s *Service) fire(e *entry, cs *cronSchedule) {
	now := s.now()
	scheduled := cs.due()
	if scheduled.IsZero() {
		scheduled = now
	}
	late := now.Sub(scheduled)
	if late < 0 {
		late = 0
	}

	e.fired.Add(1)
	ev := Fired{
		Name:      e.name,
		Expr:      e.expr,
		Zone:      cs.loc.String(),
		Scheduled: scheduled.In(cs.loc),
		Fired:     now,
		Late:      late,
	}
	s.bus.Publish(eventbus.Event{Type: eventbus.TypeScheduleFired, Time: now, Data: ev})

	if late <= time.Duration(s.lateAfter.Load()) {
		s.log.Debug("schedule fired", logx.String("name", e.name), logx.Time("scheduled", ev.Scheduled))
		return
	}
	e.late.Add(1)
	// Late fires come in bursts after a suspend or clock jump; keep the log readable.
	if lim := s.lateWarn.Load(); lim == nil || lim.Allow() {
		s.log.Warn("schedule fired late",
			logx.String("name", e.name),
			logx.Time("scheduled", ev.Scheduled),
			logx.Duration("late", late),
			logx.Uint64("late_total", e.late.Load()),
		)
	}
}
