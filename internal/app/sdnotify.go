package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "cronpulse/pkg/logx"
)

// sdNotifier reports state to systemd. Without NOTIFY_SOCKET every call is a no-op.
type sdNotifier struct {
	log logx.Logger
}

func (n sdNotifier) send(state string) {
	sent, err := daemon.SdNotify(false, state)
	switch {
	case err != nil:
		n.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
	case sent:
		n.log.Trace("sd_notify", logx.String("state", state))
	}
}

func (n sdNotifier) ready(schedules int) {
	n.send(daemon.SdNotifyReady + "\n" + statusLine(schedules))
}

func (n sdNotifier) stopping() { n.send(daemon.SdNotifyStopping) }

func (n sdNotifier) status(schedules int) { n.send(statusLine(schedules)) }

func statusLine(schedules int) string {
	return fmt.Sprintf("STATUS=triggering %d schedules", schedules)
}

// watchdog pings systemd at half the configured WatchdogSec until ctx is done.
func (n sdNotifier) watchdog(ctx context.Context) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.log.Warn("systemd watchdog misconfigured", logx.Err(err))
		return nil
	}
	if interval <= 0 {
		return nil
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
