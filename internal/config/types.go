package config

// Config is the on-disk cronpulse configuration (JSON, or YAML coerced to JSON).
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`

	// Storage enables the fire history. Omit to keep nothing on disk.
	//
	// Example:
	//
	//	"storage": { "driver": "sqlite", "path": "./data/cronpulse.db" }
	Storage *StorageConfig `json:"storage,omitempty"`

	// Debug enables the local status/pprof HTTP server.
	Debug *DebugConfig `json:"debug,omitempty"`

	Schedules []ScheduleConfig `json:"schedules"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SchedulerConfig controls the trigger service.
//
// Durations are Go duration strings (e.g. "500ms", "10s", "24h").
//
// Defaults (when fields are omitted/zero):
//   - timezone: Local
//   - horizon: "8760h" (how far ahead a single search may look)
//   - late_after: "1s"
//   - late_warn_per_sec: 1
//   - catch_up: "0s" (disabled; needs storage)
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`

	// Default IANA zone for schedules that do not set their own.
	Timezone string `json:"timezone,omitempty"`

	Horizon        string  `json:"horizon,omitempty"`
	LateAfter      string  `json:"late_after,omitempty"`
	LateWarnPerSec float64 `json:"late_warn_per_sec,omitempty"`

	// CatchUp bounds how far back missed occurrences are reported on start.
	CatchUp string `json:"catch_up,omitempty"`
}

// ScheduleConfig is one named cron expression.
type ScheduleConfig struct {
	Name     string `json:"name"`
	Expr     string `json:"expr"`
	Timezone string `json:"timezone,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// StorageConfig controls the fire history store.
//
// Driver values: "file" (JSON lines) or "sqlite". Empty or "none" disables it.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// DebugConfig controls the optional status and pprof HTTP server.
//
// Binding to a non-loopback address requires Token or AllowInsecure.
type DebugConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"` // default 127.0.0.1:6061
	Token         string `json:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
	Pprof         bool   `json:"pprof,omitempty"`
}
