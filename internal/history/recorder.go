// Package history connects the trigger service to the fire history store.
package history

import (
	"context"
	"time"

	"cronpulse/internal/eventbus"
	"cronpulse/internal/storage"
	"cronpulse/internal/trigger"
	logx "cronpulse/pkg/logx"
)

const writeTimeout = 2 * time.Second

// Recorder persists fire and missed events published on the bus.
type Recorder struct {
	store storage.Store
	log   logx.Logger

	ch    <-chan eventbus.Event
	unsub func()
}

// NewRecorder subscribes to bus right away, so events published before Run
// starts are buffered rather than lost.
func NewRecorder(store storage.Store, bus eventbus.Bus, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	ch, unsub := bus.Subscribe(256)
	return &Recorder{store: store, log: log, ch: ch, unsub: unsub}
}

// Run records events until ctx is done, then unsubscribes.
func (r *Recorder) Run(ctx context.Context) error {
	defer r.unsub()
	return r.consume(ctx, r.ch)
}

func (r *Recorder) consume(ctx context.Context, ch <-chan eventbus.Event) error {
	for {
		select {
		case <-ctx.Done():
			r.drain(ch)
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			r.record(ctx, ev)
		}
	}
}

// drain writes whatever is already buffered, so fires just before shutdown
// are not lost.
func (r *Recorder) drain(ch <-chan eventbus.Event) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.record(context.Background(), ev)
		default:
			return
		}
	}
}

func (r *Recorder) record(ctx context.Context, ev eventbus.Event) {
	rec, ok := recordOf(ev)
	if !ok {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	err := r.store.AppendFire(wctx, rec)
	cancel()
	if err != nil {
		r.log.Warn("fire history write failed", logx.String("name", rec.Schedule), logx.Err(err))
	}
}

func recordOf(ev eventbus.Event) (storage.FireRecord, bool) {
	switch d := ev.Data.(type) {
	case trigger.Fired:
		return storage.FireRecord{Schedule: d.Name, Expr: d.Expr, Zone: d.Zone, Scheduled: d.Scheduled, Fired: d.Fired}, true
	case trigger.Missed:
		return storage.FireRecord{Schedule: d.Name, Expr: d.Expr, Zone: d.Zone, Scheduled: d.Scheduled, Missed: true}, true
	default:
		return storage.FireRecord{}, false
	}
}
