package history

import (
	"context"
	"time"

	"cronpulse/internal/storage"
	"cronpulse/internal/trigger"
	logx "cronpulse/pkg/logx"
)

// maxMissedPerSchedule caps how many missed occurrences one schedule reports.
const maxMissedPerSchedule = 100

// CatchUp reports, for every registered schedule, the occurrences between
// its last recorded fire and now. Nothing older than window is reported, and
// schedules that never fired are skipped: there is no baseline to compare to.
// It returns the total number reported.
func CatchUp(ctx context.Context, svc *trigger.Service, store storage.Store, now time.Time, window time.Duration, log logx.Logger) (int, error) {
	if store == nil || window <= 0 {
		return 0, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	floor := now.Add(-window)
	total := 0
	for _, d := range svc.Definitions() {
		last, ok, err := store.LastFire(ctx, d.Name)
		if err != nil {
			return total, err
		}
		if !ok {
			continue
		}
		since := last.Scheduled
		if since.Before(floor) {
			since = floor
		}
		n, err := svc.ReportMissed(d.Name, since, now, maxMissedPerSchedule)
		if err != nil {
			log.Warn("catch-up failed", logx.String("name", d.Name), logx.Err(err))
			continue
		}
		total += n
	}
	return total, nil
}
