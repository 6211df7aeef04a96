package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"cronpulse/pkg/cronexpr"
	logx "cronpulse/pkg/logx"
)

// Validate checks everything that can be checked without side effects:
// log level, durations, zones, storage driver and every schedule expression.
// All problems are reported, each prefixed with its JSON path.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error

	if !logx.ValidLevel(cfg.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level))
	}

	if _, err := cfg.Scheduler.Resolve(); err != nil {
		errs = append(errs, err)
	}
	if err := checkZone("scheduler.timezone", cfg.Scheduler.Timezone); err != nil {
		errs = append(errs, err)
	}

	if st := cfg.Storage; st != nil {
		switch strings.ToLower(strings.TrimSpace(st.Driver)) {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(st.Path) == "" {
				errs = append(errs, errors.New("storage.path: required"))
			}
		default:
			errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", st.Driver))
		}
		if _, err := ParseDurationField("storage.busy_timeout", st.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}

	if d := cfg.Debug; d != nil && d.Enabled {
		if addr := strings.TrimSpace(d.Addr); addr != "" {
			if _, _, err := net.SplitHostPort(addr); err != nil {
				errs = append(errs, fmt.Errorf("debug.addr: %w", err))
			}
		}
	}

	seen := make(map[string]int, len(cfg.Schedules))
	for i, sc := range cfg.Schedules {
		path := fmt.Sprintf("schedules[%d]", i)
		name := strings.TrimSpace(sc.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("%s.name: required", path))
		case seen[name] > 0:
			errs = append(errs, fmt.Errorf("%s.name: duplicate %q (first at schedules[%d])", path, name, seen[name]-1))
		default:
			seen[name] = i + 1
		}
		if _, err := cronexpr.Parse(sc.Expr); err != nil {
			errs = append(errs, fmt.Errorf("%s.expr: %w", path, err))
		}
		if err := checkZone(path+".timezone", sc.Timezone); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkZone(path, tz string) error {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
