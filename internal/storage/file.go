package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	logx "cronpulse/pkg/logx"
)

// fileKeep is how many records the file driver retains.
const fileKeep = 2000

// fileStore keeps the fire history in <prefix>.fires.jsonl (JSON Lines).
//
// The most recent fileKeep records are held in memory. Once the file has
// grown past twice that, it is rewritten from memory.
type fileStore struct {
	log logx.Logger

	mu      sync.Mutex
	path    string
	f       *os.File
	records []FireRecord // append order
	lines   int          // lines in the file
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{log: log, path: filepath.Join(dir, base+".fires.jsonl")}
	if err := s.replay(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	s.f = f
	return s, nil
}

func (s *fileStore) replay() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s.lines++
		var r FireRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil || r.Schedule == "" {
			continue
		}
		s.records = append(s.records, r)
	}
	if len(s.records) > fileKeep {
		s.records = append([]FireRecord(nil), s.records[len(s.records)-fileKeep:]...)
	}
	return sc.Err()
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *fileStore) AppendFire(ctx context.Context, r FireRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return ErrClosed
	}
	if err := json.NewEncoder(s.f).Encode(r); err != nil {
		return err
	}
	s.lines++
	s.records = append(s.records, r)
	if len(s.records) > fileKeep {
		s.records = s.records[len(s.records)-fileKeep:]
	}
	if s.lines >= 2*fileKeep {
		if err := s.compactLocked(); err != nil {
			s.log.Debug("fire history compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) LastFire(ctx context.Context, schedule string) (FireRecord, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return FireRecord{}, false, ErrClosed
	}
	var (
		best FireRecord
		ok   bool
	)
	for _, r := range s.records {
		if r.Schedule == schedule && (!ok || r.Scheduled.After(best.Scheduled)) {
			best, ok = r, true
		}
	}
	return best, ok, nil
}

func (s *fileStore) Recent(ctx context.Context, schedule string, limit int) ([]FireRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil, ErrClosed
	}
	var out []FireRecord
	for _, r := range s.records {
		if schedule == "" || r.Schedule == schedule {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Scheduled.After(out[j].Scheduled) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// compactLocked rewrites the file from the in-memory records.
func (s *fileStore) compactLocked() error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for _, r := range s.records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	nf, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_ = s.f.Close()
	s.f = nf
	s.lines = len(s.records)
	return nil
}
