package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logx "cronpulse/pkg/logx"
)

var ErrClosed = errors.New("storage closed")

// Config configures storage. An empty or "none" driver disables it.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// FireRecord is one observed (or missed) occurrence of a schedule.
type FireRecord struct {
	Schedule  string    `json:"schedule"`
	Expr      string    `json:"expr"`
	Zone      string    `json:"zone"`
	Scheduled time.Time `json:"scheduled"`
	Fired     time.Time `json:"fired,omitempty"`
	Missed    bool      `json:"missed,omitempty"`
}

// Store is the persistence API used by the daemon and the CLI.
type Store interface {
	AppendFire(ctx context.Context, r FireRecord) error
	// LastFire returns the most recent record for schedule by Scheduled time.
	LastFire(ctx context.Context, schedule string) (FireRecord, bool, error)
	// Recent returns up to limit records, newest first. An empty schedule
	// matches all of them.
	Recent(ctx context.Context, schedule string, limit int) ([]FireRecord, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
