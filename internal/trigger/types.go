package trigger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"cronpulse/internal/eventbus"
	"cronpulse/pkg/cronexpr"
	logx "cronpulse/pkg/logx"
)

// Config controls the trigger service.
type Config struct {
	Enabled bool
	// Timezone is the IANA zone for definitions without their own. Empty means Local.
	Timezone string
	// Horizon bounds a single occurrence search. An expression with no
	// occurrence inside it (e.g. "0 0 30 2 *") never fires.
	Horizon time.Duration
	// LateAfter is how far behind its occurrence a fire may be observed
	// before it is reported as late.
	LateAfter time.Duration
	// LateWarnPerSec rate-limits late warnings across all schedules.
	LateWarnPerSec float64
}

const (
	defaultHorizon   = 8760 * time.Hour
	defaultLateAfter = time.Second
)

func (c Config) withDefaults() Config {
	if c.Horizon <= 0 {
		c.Horizon = defaultHorizon
	}
	if c.LateAfter <= 0 {
		c.LateAfter = defaultLateAfter
	}
	if c.LateWarnPerSec <= 0 {
		c.LateWarnPerSec = 1
	}
	return c
}

// Definition is a named expression, usually one config entry.
type Definition struct {
	Name     string
	Expr     string
	Timezone string // empty: the service zone
}

// Fired is the payload of eventbus.TypeScheduleFired.
type Fired struct {
	Name      string
	Expr      string
	Zone      string
	Scheduled time.Time // the occurrence, in Zone
	Fired     time.Time // when it was observed
	Late      time.Duration
}

// Missed is the payload of eventbus.TypeScheduleMissed.
type Missed struct {
	Name      string
	Expr      string
	Zone      string
	Scheduled time.Time
}

type entry struct {
	name string
	expr string
	tz   string // as configured
	s    *cronexpr.Schedule

	// guarded by Service.mu
	adapter *cronSchedule
	entryID cron.EntryID

	fired atomic.Uint64
	late  atomic.Uint64
}

func (e *entry) def() Definition { return Definition{Name: e.name, Expr: e.expr, Timezone: e.tz} }

type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config
	loc *time.Location
	bus eventbus.Bus

	c       *cron.Cron
	entries map[string]*entry

	// read by fire without s.mu
	lateWarn  atomic.Pointer[rate.Limiter]
	lateAfter atomic.Int64
	now       func() time.Time
}

type ScheduleInfo struct {
	Name  string
	Expr  string
	Zone  string
	Next  time.Time
	Prev  time.Time
	Fired uint64
	Late  uint64
}

type Snapshot struct {
	Enabled   bool
	Running   bool
	Timezone  string
	Horizon   time.Duration
	Schedules []ScheduleInfo
}

// SyncResult lists the names touched by Sync.
type SyncResult struct {
	Added   []string
	Updated []string
	Removed []string
}

func (r SyncResult) Changed() bool {
	return len(r.Added)+len(r.Updated)+len(r.Removed) > 0
}
