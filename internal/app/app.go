// Package app wires the cronpulse daemon: config, logging, storage, trigger
// service, fire history, debug server and systemd notification.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cronpulse/internal/config"
	"cronpulse/internal/eventbus"
	"cronpulse/internal/history"
	"cronpulse/internal/observability/debugserver"
	"cronpulse/internal/runtime/supervisor"
	"cronpulse/internal/storage"
	"cronpulse/internal/trigger"
	logx "cronpulse/pkg/logx"
)

// Options tune NewApp.
type Options struct {
	// Events receives one line per fired or missed occurrence. Nil disables it.
	Events io.Writer
	// Now overrides the clock used for catch-up.
	Now func() time.Time
}

type App struct {
	cfgPath string
	opts    Options

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	trig  *trigger.Service
	rec   *history.Recorder
	dbg   *debugserver.Service
	sdn   sdNotifier
	start time.Time

	mu       sync.Mutex
	settings config.SchedulerSettings
}

func NewApp(cfgPath string, opts Options) (*App, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s:\n%w", cfgPath, err)
	}
	settings, err := cfg.Scheduler.Resolve()
	if err != nil {
		return nil, err
	}
	sc, storeEnabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(LogConfig(cfg.Logging))
	log = log.With(logx.String("comp", "app"))
	bus := eventbus.New()

	var store storage.Store
	if storeEnabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	trig := trigger.New(TriggerConfig(settings), log.With(logx.String("comp", "trigger")), bus)
	if _, err := trig.Sync(Definitions(cfg)); err != nil {
		if store != nil {
			_ = store.Close()
		}
		_ = logSvc.Close()
		return nil, err
	}

	a := &App{
		cfgPath:  cfgPath,
		opts:     opts,
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		bus:      bus,
		store:    store,
		trig:     trig,
		sdn:      sdNotifier{log: log.With(logx.String("comp", "systemd"))},
		settings: settings,
	}
	if store != nil {
		a.rec = history.NewRecorder(store, bus, log.With(logx.String("comp", "history")))
	}
	a.dbg = debugserver.New(debugConfig(cfg), func() any { return a.Status() }, log.With(logx.String("comp", "debug")))
	return a, nil
}

func (a *App) Trigger() *trigger.Service { return a.trig }

func (a *App) Bus() eventbus.Bus { return a.bus }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.start = a.opts.Now()
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)
	// transactional reload: a file that fails validation is never committed
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return config.Validate(cfg)
	})

	if a.rec != nil {
		a.sup.Go("history.record", a.rec.Run)
	}
	a.startEventLoop()

	if err := a.catchUp(a.sup.Context()); err != nil {
		return err
	}

	if a.trig.Enabled() {
		a.trig.Start(a.sup.Context())
	} else {
		a.log.Info("scheduler disabled; schedules are loaded but not triggered")
	}
	a.dbg.Reconfigure(a.sup.Context(), debugConfig(a.cfgm.Get()))

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
		return nil
	})
	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go("systemd.watchdog", a.sdn.watchdog)

	n := len(a.trig.Definitions())
	a.sdn.ready(n)
	a.log.Info("app started", logx.String("config", a.cfgPath), logx.Int("schedules", n))
	return nil
}

// catchUp reports occurrences missed while the daemon was down. It needs
// storage to know the last fire of each schedule.
func (a *App) catchUp(ctx context.Context) error {
	a.mu.Lock()
	window := a.settings.CatchUp
	a.mu.Unlock()
	if a.store == nil || window <= 0 {
		return nil
	}
	n, err := history.CatchUp(ctx, a.trig, a.store, a.opts.Now(), window, a.log.With(logx.String("comp", "catchup")))
	if err != nil {
		return fmt.Errorf("catch-up: %w", err)
	}
	if n > 0 {
		a.log.Info("catch-up reported missed occurrences", logx.Int("count", n), logx.Duration("window", window))
	}
	return nil
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sdn.stopping()

	// no new fires once the loops unwind
	a.step(ctx, "trigger", 2*time.Second, func(c context.Context) error { a.trig.Stop(c); return nil })
	a.sup.Cancel()
	a.step(ctx, "debug", time.Second, func(c context.Context) error { a.dbg.Stop(c); return nil })
	// waits for the recorder, so it runs before the store closes
	a.step(ctx, "supervisor", 2*time.Second, a.sup.Wait)
	a.step(ctx, "storage", time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

// step runs one shutdown step with an upper bound so one component can't
// stall the whole stop. It never extends the caller's deadline.
func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < max {
			max = rem
		}
	}
	if max <= 0 {
		a.log.Warn("stop step skipped (deadline reached)", logx.String("name", name))
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
	}
}
