package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultHorizon        = 8760 * time.Hour
	DefaultLateAfter      = time.Second
	DefaultLateWarnPerSec = 1.0
)

// SchedulerSettings is SchedulerConfig with durations parsed and defaults applied.
type SchedulerSettings struct {
	Enabled        bool
	Timezone       string
	Horizon        time.Duration
	LateAfter      time.Duration
	LateWarnPerSec float64
	CatchUp        time.Duration
}

// Resolve parses the duration fields of c. Errors carry the JSON path.
func (c SchedulerConfig) Resolve() (SchedulerSettings, error) {
	out := SchedulerSettings{
		Enabled:        c.Enabled,
		Timezone:       strings.TrimSpace(c.Timezone),
		LateWarnPerSec: c.LateWarnPerSec,
	}
	var err error
	if out.Horizon, err = ParseDurationOrDefault("scheduler.horizon", c.Horizon, DefaultHorizon); err != nil {
		return SchedulerSettings{}, err
	}
	if out.LateAfter, err = ParseDurationOrDefault("scheduler.late_after", c.LateAfter, DefaultLateAfter); err != nil {
		return SchedulerSettings{}, err
	}
	if out.CatchUp, err = ParseDurationField("scheduler.catch_up", c.CatchUp); err != nil {
		return SchedulerSettings{}, err
	}
	if out.LateWarnPerSec < 0 {
		return SchedulerSettings{}, fmt.Errorf("scheduler.late_warn_per_sec: must be >= 0")
	}
	if out.LateWarnPerSec == 0 {
		out.LateWarnPerSec = DefaultLateWarnPerSec
	}
	return out, nil
}

// ParseDurationField parses raw as a Go duration; empty input yields 0.
// Errors are prefixed with path.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with def substituted for zero.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
