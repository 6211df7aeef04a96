package app

import (
	"context"
	"time"

	"cronpulse/internal/eventbus"
	"cronpulse/internal/runtime/supervisor"
	"cronpulse/internal/storage"
	"cronpulse/internal/trigger"
)

const statusRecent = 20

// Status is served on the debug server's /status endpoint.
type Status struct {
	Started    time.Time            `json:"started"`
	Uptime     string               `json:"uptime"`
	Trigger    trigger.Snapshot     `json:"trigger"`
	Bus        eventbus.Stats       `json:"bus"`
	Goroutines supervisor.Counters  `json:"goroutines"`
	Recent     []storage.FireRecord `json:"recent,omitempty"`
}

func (a *App) Status() Status {
	st := Status{
		Started: a.start,
		Uptime:  time.Since(a.start).Truncate(time.Second).String(),
		Trigger: a.trig.Snapshot(),
		Bus:     a.bus.Stats(),
	}
	if a.sup != nil {
		st.Goroutines = a.sup.Counters()
	}
	if a.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if recs, err := a.store.Recent(ctx, "", statusRecent); err == nil {
			st.Recent = recs
		}
	}
	return st
}
