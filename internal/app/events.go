package app

import (
	"context"
	"fmt"
	"time"

	"cronpulse/internal/eventbus"
	"cronpulse/internal/trigger"
	logx "cronpulse/pkg/logx"
)

// startEventLoop prints fire and missed events to Options.Events, or logs
// every event at debug level when no writer is set.
func (a *App) startEventLoop() {
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go("events", func(c context.Context) error {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				if a.opts.Events == nil {
					a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
					continue
				}
				if line := formatEvent(e); line != "" {
					_, _ = fmt.Fprintln(a.opts.Events, line)
				}
			}
		}
	})
}

func formatEvent(e eventbus.Event) string {
	switch d := e.Data.(type) {
	case trigger.Fired:
		line := fmt.Sprintf("%s  fired   %s", d.Scheduled.Format(time.RFC3339), d.Name)
		if d.Late > 0 {
			line += fmt.Sprintf(" (late %s)", d.Late.Truncate(time.Millisecond))
		}
		return line
	case trigger.Missed:
		return fmt.Sprintf("%s  missed  %s", d.Scheduled.Format(time.RFC3339), d.Name)
	default:
		return ""
	}
}
