package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

const sampleJSON = `{
  "logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}},
  "scheduler": {"enabled": true, "timezone": "Europe/Berlin", "horizon": "720h"},
  "storage": {"driver": "file", "path": "./data/history"},
  "schedules": [
    {"name": "nightly", "expr": "0 30 2 * * *"},
    {"name": "month-end", "expr": "0 18 L * *", "timezone": "America/New_York"}
  ]
}`

const sampleYAML = `
logging:
  level: debug
  console: true
  file:
    enabled: false
    path: ""
scheduler:
  enabled: true
  timezone: Europe/Berlin
  horizon: 720h
storage:
  driver: file
  path: ./data/history
schedules:
  - name: nightly
    expr: "0 30 2 * * *"
  - name: month-end
    expr: "0 18 L * *"
    timezone: America/New_York
`

func TestDecodeJSONAndYAMLAgree(t *testing.T) {
	t.Parallel()
	j, err := Decode("cronpulse.json", []byte(sampleJSON))
	if err != nil {
		t.Fatalf("Decode json: %v", err)
	}
	y, err := Decode("cronpulse.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode yaml: %v", err)
	}
	if hashConfig(j) != hashConfig(y) {
		t.Fatalf("json and yaml decode differently:\n%+v\n%+v", j, y)
	}
	if len(j.Schedules) != 2 || j.Schedules[1].Timezone != "America/New_York" || j.Storage == nil {
		t.Fatalf("unexpected config %+v", j)
	}
	if err := Validate(j); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDecodeStrict(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, path, data string
	}{
		{"unknown field", "c.json", `{"schedules": [], "extra": 1}`},
		{"unknown nested field", "c.json", `{"scheduler": {"workers": 2}}`},
		{"trailing data", "c.json", `{} {}`},
		{"yaml unknown field", "c.yml", "scheduler:\n  enabled: true\n  retry: 3\n"},
		{"yaml scalar root", "c.yaml", "just a string\n"},
	}
	for _, tt := range tests {
		if _, err := Decode(tt.path, []byte(tt.data)); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
	if cfg, err := Decode("empty.yaml", nil); err != nil || cfg == nil {
		t.Fatalf("empty yaml: cfg=%v err=%v", cfg, err)
	}
}

func TestValidateReportsPaths(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Logging:   LoggingConfig{Level: "chatty"},
		Scheduler: SchedulerConfig{Timezone: "Mars/Olympus", Horizon: "soon"},
		Storage:   &StorageConfig{Driver: "redis"},
		Schedules: []ScheduleConfig{
			{Name: "a", Expr: "* * * * *"},
			{Name: "a", Expr: "61 * * * *"},
			{Name: "", Expr: "* * * * *", Timezone: "Nowhere/Land"},
		},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{
		"logging.level",
		"scheduler.horizon",
		"scheduler.timezone",
		"storage.driver",
		`schedules[1].name: duplicate "a" (first at schedules[0])`,
		"schedules[1].expr: cronexpr: invalid minute",
		"schedules[2].name: required",
		"schedules[2].timezone",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q does not mention %q", msg, want)
		}
	}
}

func TestSchedulerResolveDefaults(t *testing.T) {
	t.Parallel()
	s, err := SchedulerConfig{Enabled: true, Timezone: " UTC "}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Horizon != DefaultHorizon || s.LateAfter != DefaultLateAfter || s.LateWarnPerSec != DefaultLateWarnPerSec || s.CatchUp != 0 || s.Timezone != "UTC" {
		t.Fatalf("defaults = %+v", s)
	}

	s, err = SchedulerConfig{Horizon: "48h", LateAfter: "250ms", CatchUp: "6h", LateWarnPerSec: 0.5}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Horizon != 48*time.Hour || s.LateAfter != 250*time.Millisecond || s.CatchUp != 6*time.Hour || s.LateWarnPerSec != 0.5 {
		t.Fatalf("resolved = %+v", s)
	}

	if _, err := (SchedulerConfig{LateAfter: "-1s"}).Resolve(); err == nil || !strings.HasPrefix(err.Error(), "scheduler.late_after") {
		t.Fatalf("negative duration error = %v", err)
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestManagerReload(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cronpulse.json")
	writeFile(t, path, sampleJSON)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Get() != cfg {
		t.Fatal("Get does not return the loaded config")
	}

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	// Same content: nothing to publish.
	if changed, err := m.Reload(context.Background()); err != nil || changed {
		t.Fatalf("Reload unchanged = %v, %v", changed, err)
	}

	m.SetValidator(func(_ context.Context, c *Config) error { return Validate(c) })
	writeFile(t, path, strings.Replace(sampleJSON, "0 30 2 * * *", "0 99 2 * * *", 1))
	if _, err := m.Reload(context.Background()); err == nil {
		t.Fatal("expected validator rejection")
	}
	if m.Get() != cfg {
		t.Fatal("rejected config must not be committed")
	}

	writeFile(t, path, strings.Replace(sampleJSON, "0 30 2 * * *", "0 45 2 * * *", 1))
	changed, err := m.Reload(context.Background())
	if err != nil || !changed {
		t.Fatalf("Reload = %v, %v", changed, err)
	}
	select {
	case got := <-ch:
		if got.Schedules[0].Expr != "0 45 2 * * *" {
			t.Fatalf("published expr = %q", got.Schedules[0].Expr)
		}
	default:
		t.Fatal("no config published")
	}
}

func TestManagerParseMissingFile(t *testing.T) {
	t.Parallel()
	m := NewManager(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := m.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load error = %v, want ErrNotExist", err)
	}
}

func TestManagerPublishKeepsNewest(t *testing.T) {
	t.Parallel()
	m := NewManager("unused.json")
	ch := m.Subscribe(1)
	a, b := &Config{}, &Config{}
	m.publish(a)
	m.publish(b)
	if got := <-ch; got != b {
		t.Fatal("slow subscriber should receive the newest config")
	}
	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
}

func TestManagerWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("filesystem watch")
	}
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cronpulse.yaml")
	writeFile(t, path, sampleYAML)

	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, path, strings.Replace(sampleYAML, "horizon: 720h", "horizon: 24h", 1))

	select {
	case got := <-ch:
		if got.Scheduler.Horizon != "24h" {
			t.Fatalf("horizon = %q", got.Scheduler.Horizon)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not publish the change")
	}
}
