package app

import (
	"cronpulse/internal/config"
	"cronpulse/internal/observability/debugserver"
	"cronpulse/internal/trigger"
	logx "cronpulse/pkg/logx"
)

func LogConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}

func TriggerConfig(s config.SchedulerSettings) trigger.Config {
	return trigger.Config{
		Enabled:        s.Enabled,
		Timezone:       s.Timezone,
		Horizon:        s.Horizon,
		LateAfter:      s.LateAfter,
		LateWarnPerSec: s.LateWarnPerSec,
	}
}

// Definitions returns the schedules of cfg that are not disabled.
func Definitions(cfg *config.Config) []trigger.Definition {
	out := make([]trigger.Definition, 0, len(cfg.Schedules))
	for _, sc := range cfg.Schedules {
		if sc.Disabled {
			continue
		}
		out = append(out, trigger.Definition{Name: sc.Name, Expr: sc.Expr, Timezone: sc.Timezone})
	}
	return out
}

func debugConfig(cfg *config.Config) debugserver.Config {
	if cfg == nil || cfg.Debug == nil {
		return debugserver.Config{}
	}
	d := cfg.Debug
	return debugserver.Config{
		Enabled:       d.Enabled,
		Addr:          d.Addr,
		Token:         d.Token,
		AllowInsecure: d.AllowInsecure,
		Pprof:         d.Pprof,
	}
}
