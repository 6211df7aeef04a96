package app

import (
	"context"
	"strings"

	"cronpulse/internal/config"
	"cronpulse/internal/eventbus"
	logx "cronpulse/pkg/logx"
)

func (a *App) reloadLoop(c context.Context, sub <-chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-c.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			newCfg = latest(sub, newCfg)
			a.applyConfig(c, lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

// latest coalesces a burst of reloads down to the newest config.
func latest(sub <-chan *config.Config, cfg *config.Config) *config.Config {
	for {
		select {
		case newer, ok := <-sub:
			if !ok {
				return cfg
			}
			if newer != nil {
				cfg = newer
			}
		default:
			return cfg
		}
	}
}

func (a *App) applyConfig(c context.Context, prev, next *config.Config) {
	a.logs.Apply(LogConfig(next.Logging))

	settings, err := next.Scheduler.Resolve()
	if err != nil {
		a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
	} else {
		wasEnabled := a.trig.Enabled()
		a.trig.Apply(TriggerConfig(settings))
		a.mu.Lock()
		a.settings = settings
		a.mu.Unlock()
		if wasEnabled != settings.Enabled {
			a.log.Info("scheduler toggled via config", logx.Bool("enabled", settings.Enabled))
		}
	}

	res, err := a.trig.Sync(Definitions(next))
	if err != nil {
		a.log.Warn("schedules rejected; keeping previous", logx.Err(err))
	}

	prevSt, _, _ := mapStorageConfig(prev)
	nextSt, _, _ := mapStorageConfig(next)
	if prevSt != nextSt {
		a.log.Warn("storage config changed; restart required for changes to take effect")
	}

	a.dbg.Reconfigure(c, debugConfig(next))

	a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigApplied, Time: a.opts.Now(), Data: res})
	a.sdn.status(len(a.trig.Definitions()))

	if res.Changed() {
		a.log.Info("config reloaded",
			logx.String("added", strings.Join(res.Added, ",")),
			logx.String("updated", strings.Join(res.Updated, ",")),
			logx.String("removed", strings.Join(res.Removed, ",")),
		)
	} else {
		a.log.Info("config reloaded (no schedule changes)")
	}
}
