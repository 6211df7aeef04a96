package trigger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cronpulse/internal/eventbus"
	"cronpulse/pkg/cronexpr"
	logx "cronpulse/pkg/logx"
)

// Add parses expr and registers it under name, replacing any definition with
// the same name. tz overrides the service zone when not empty.
func (s *Service) Add(name, expr, tz string) (string, error) {
	e, err := newEntry(Definition{Name: name, Expr: expr, Timezone: tz})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(e.name)
	s.entries[e.name] = e
	if s.c != nil {
		s.registerLocked(e)
		args := []logx.Field{logx.String("name", e.name), logx.String("expr", e.expr), logx.String("tz", e.adapter.loc.String())}
		if next := s.previewLocked(e, 3); next != "" {
			args = append(args, logx.String("next", next))
		}
		s.log.Debug("schedule registered", args...)
	}
	return e.name, nil
}

func newEntry(d Definition) (*entry, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, errors.New("name required")
	}
	sched, err := cronexpr.Parse(d.Expr)
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", name, err)
	}
	tz := strings.TrimSpace(d.Timezone)
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", name, err)
		}
	}
	return &entry{name: name, expr: d.Expr, tz: tz, s: sched}, nil
}

// Remove unregisters name. It returns true if something was removed.
func (s *Service) Remove(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	s.mu.Lock()
	removed := s.removeLocked(name)
	s.mu.Unlock()
	if removed {
		s.log.Debug("schedule removed", logx.String("name", name))
	}
	return removed
}

func (s *Service) removeLocked(name string) bool {
	e, ok := s.entries[name]
	if !ok {
		return false
	}
	if s.c != nil && e.entryID != 0 {
		s.c.Remove(e.entryID)
	}
	delete(s.entries, name)
	return true
}

// Sync makes defs the complete set of definitions. Every definition is
// checked first; on any error nothing changes. Unchanged definitions keep
// their registration and counters.
func (s *Service) Sync(defs []Definition) (SyncResult, error) {
	want := make(map[string]*entry, len(defs))
	var errs []error
	for _, d := range defs {
		e, err := newEntry(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := want[e.name]; dup {
			errs = append(errs, fmt.Errorf("schedule %q: duplicate name", e.name))
			continue
		}
		want[e.name] = e
	}
	if err := errors.Join(errs...); err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	s.mu.Lock()
	for name := range s.entries {
		if _, ok := want[name]; !ok {
			s.removeLocked(name)
			res.Removed = append(res.Removed, name)
		}
	}
	for name, e := range want {
		cur, ok := s.entries[name]
		switch {
		case !ok:
			res.Added = append(res.Added, name)
		case cur.def() == e.def():
			continue
		default:
			s.removeLocked(name)
			res.Updated = append(res.Updated, name)
		}
		s.entries[name] = e
		if s.c != nil {
			s.registerLocked(e)
		}
	}
	s.mu.Unlock()

	sort.Strings(res.Added)
	sort.Strings(res.Updated)
	sort.Strings(res.Removed)
	if res.Changed() {
		s.log.Info("schedules synced",
			logx.Int("added", len(res.Added)), logx.Int("updated", len(res.Updated)), logx.Int("removed", len(res.Removed)))
	}
	return res, nil
}

// Definitions returns the registered definitions sorted by name.
func (s *Service) Definitions() []Definition {
	s.mu.Lock()
	out := make([]Definition, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.def())
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Preview returns the next n occurrences of expr at or after from, in tz or
// the service zone.
func (s *Service) Preview(expr, tz string, from time.Time, n int) ([]time.Time, error) {
	sched, err := cronexpr.Parse(expr)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	loc := s.loadLocationLocked()
	horizon := s.cfg.Horizon
	s.mu.Unlock()
	if tz = strings.TrimSpace(tz); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return nil, err
		}
	}
	if n <= 0 {
		n = 1
	}
	return Occurrences(sched, loc, from, from.Add(horizon), n), nil
}

// ReportMissed publishes a Missed event for every occurrence of name in
// (since, until], at most limit of them, and returns how many were reported.
func (s *Service) ReportMissed(name string, since, until time.Time, limit int) (int, error) {
	s.mu.Lock()
	e, ok := s.entries[name]
	loc := time.Local
	if ok {
		loc = s.entryLocationLocked(e)
	}
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("schedule %q not found", name)
	}
	if !until.After(since) {
		return 0, nil
	}

	missed := Occurrences(e.s, loc, since.Add(time.Second), until, limit)
	for _, at := range missed {
		s.bus.Publish(eventbus.Event{
			Type: eventbus.TypeScheduleMissed,
			Time: s.now(),
			Data: Missed{Name: e.name, Expr: e.expr, Zone: loc.String(), Scheduled: at},
		})
	}
	if len(missed) > 0 {
		s.log.Warn("missed occurrences", logx.String("name", e.name), logx.Int("count", len(missed)),
			logx.Time("first", missed[0]), logx.Time("last", missed[len(missed)-1]))
	}
	return len(missed), nil
}

// previewLocked renders the next n occurrences of a registered entry for logs.
func (s *Service) previewLocked(e *entry, n int) string {
	if !s.log.Enabled(logx.LevelDebug) || e.adapter == nil {
		return ""
	}
	occ := Occurrences(e.s, e.adapter.loc, s.now(), s.now().Add(s.cfg.Horizon), n)
	parts := make([]string, 0, len(occ))
	for _, t := range occ {
		parts = append(parts, t.Format("2006-01-02 15:04:05 MST"))
	}
	return strings.Join(parts, ", ")
}
