package trigger

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"cronpulse/internal/eventbus"
	logx "cronpulse/pkg/logx"
)

func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if bus == nil {
		bus = eventbus.New()
	}
	cfg = cfg.withDefaults()
	s := &Service{
		cfg:     cfg,
		log:     log,
		bus:     bus,
		entries: map[string]*entry{},
		now:     time.Now,
	}
	s.lateWarn.Store(newLimiter(cfg.LateWarnPerSec))
	s.lateAfter.Store(int64(cfg.LateAfter))
	return s
}

func newLimiter(perSec float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

// Enabled reports the current config flag.
func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Running reports whether the trigger loop is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c != nil
}

// Apply swaps the config. The loop is started or stopped to follow Enabled,
// and restarted when the zone or horizon changes.
func (s *Service) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	s.lateWarn.Store(newLimiter(cfg.LateWarnPerSec))
	s.lateAfter.Store(int64(cfg.LateAfter))

	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	running := s.c != nil
	switch {
	case running && !cfg.Enabled:
		c := s.c
		s.c = nil
		s.clearEntryIDsLocked()
		s.mu.Unlock()
		<-c.Stop().Done()
		s.log.Info("service stopped (disabled)")
		return
	case !running && cfg.Enabled:
		s.startLocked()
	case running && (strings.TrimSpace(old.Timezone) != strings.TrimSpace(cfg.Timezone) || old.Horizon != cfg.Horizon):
		s.restartLocked()
	}
	s.mu.Unlock()
}

// Start starts triggering every registered definition.
func (s *Service) Start(ctx context.Context) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.startLocked()
}

func (s *Service) startLocked() {
	loc := s.loadLocationLocked()
	s.loc = loc
	cl := cronLogger{log: s.log}
	s.c = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
	for _, e := range s.entries {
		s.registerLocked(e)
	}
	s.c.Start()
	s.log.Info("service started", logx.String("tz", loc.String()), logx.Int("schedules", len(s.entries)), logx.Duration("horizon", s.cfg.Horizon))
}

// Stop stops triggering. Definitions are kept for the next Start.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.log.Info("stop requested")

	s.mu.Lock()
	c := s.c
	s.c = nil
	s.clearEntryIDsLocked()
	s.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	s.log.Info("service stopped", logx.Duration("took", time.Since(start)))
}

func (s *Service) restartLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	s.clearEntryIDsLocked()
	s.startLocked()
	s.log.Info("service restarted", logx.String("tz", s.loc.String()))
}

func (s *Service) clearEntryIDsLocked() {
	for _, e := range s.entries {
		e.entryID = 0
		e.adapter = nil
	}
}

// registerLocked adds e to the running cron. Call with s.mu held and s.c set.
func (s *Service) registerLocked(e *entry) {
	cs := newCronSchedule(e.s, s.entryLocationLocked(e), s.cfg.Horizon)
	e.adapter = cs
	e.entryID = s.c.Schedule(cs, cron.FuncJob(func() { s.fire(e, cs) }))
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

// entryLocationLocked resolves the zone of e. Zones are validated in Add, so
// a failure here can only come from a tz database that changed underneath us.
func (s *Service) entryLocationLocked(e *entry) *time.Location {
	if e.tz == "" {
		if s.loc != nil {
			return s.loc
		}
		return s.loadLocationLocked()
	}
	loc, err := time.LoadLocation(e.tz)
	if err != nil {
		s.log.Warn("schedule timezone unavailable; using service zone", logx.String("name", e.name), logx.String("tz", e.tz), logx.Err(err))
		return s.loadLocationLocked()
	}
	return loc
}
