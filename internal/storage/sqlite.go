package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	logx "cronpulse/pkg/logx"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// sqliteKeep is how many rows survive a prune.
const sqliteKeep = 50000

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger

	opCount    atomic.Uint64
	pruneEvery uint64
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &sqliteStore{db: db, log: log, pruneEvery: 500}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendFire(ctx context.Context, r FireRecord) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	var fired any
	if !r.Fired.IsZero() {
		fired = r.Fired.UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fires(schedule, expr, zone, scheduled, fired, missed) VALUES(?,?,?,?,?,?)`,
		r.Schedule, r.Expr, r.Zone, r.Scheduled.UnixMilli(), fired, boolInt(r.Missed),
	)
	if err == nil && s.opCount.Add(1)%s.pruneEvery == 0 {
		pctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		if perr := s.prune(pctx); perr != nil {
			s.log.Debug("fire history prune failed", logx.Err(perr))
		}
		cancel()
	}
	return err
}

func (s *sqliteStore) LastFire(ctx context.Context, schedule string) (FireRecord, bool, error) {
	if s == nil || s.db == nil {
		return FireRecord{}, false, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT schedule, expr, zone, scheduled, fired, missed FROM fires
		 WHERE schedule = ? ORDER BY scheduled DESC, id DESC LIMIT 1`, schedule)
	if err != nil {
		return FireRecord{}, false, err
	}
	recs, err := scanFires(rows)
	if err != nil || len(recs) == 0 {
		return FireRecord{}, false, err
	}
	return recs[0], true, nil
}

func (s *sqliteStore) Recent(ctx context.Context, schedule string, limit int) ([]FireRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	q := `SELECT schedule, expr, zone, scheduled, fired, missed FROM fires`
	args := []any{}
	if schedule != "" {
		q += ` WHERE schedule = ?`
		args = append(args, schedule)
	}
	q += ` ORDER BY scheduled DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanFires(rows)
}

func (s *sqliteStore) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM fires WHERE id <= (SELECT id FROM fires ORDER BY id DESC LIMIT 1 OFFSET ?)`, sqliteKeep)
	return err
}

func scanFires(rows *sql.Rows) ([]FireRecord, error) {
	defer rows.Close()
	var out []FireRecord
	for rows.Next() {
		var (
			r         FireRecord
			scheduled int64
			fired     sql.NullInt64
			missed    int
		)
		if err := rows.Scan(&r.Schedule, &r.Expr, &r.Zone, &scheduled, &fired, &missed); err != nil {
			return nil, err
		}
		r.Scheduled = time.UnixMilli(scheduled).UTC()
		if fired.Valid {
			r.Fired = time.UnixMilli(fired.Int64).UTC()
		}
		r.Missed = missed != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
