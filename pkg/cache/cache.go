// Package cache provides the key-value store backing daily-target
// recommendations: an in-process otter cache in front of a gob snapshot
// file. Entries survive restarts via load-on-open and periodic saves;
// validity rules (calendar day, algorithm version) belong to the caller,
// the cache only bounds entry lifetime with a coarse TTL.
package cache

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
)

const snapshotFile = "targets.gob"

// Entry wraps a stored value with its write time so snapshot loads can
// re-apply the TTL cutoff.
type Entry struct {
	Data     []byte
	StoredAt time.Time
}

// Store is a string-keyed byte store with snapshot persistence. Reads and
// writes are safe for concurrent use.
type Store struct {
	hot        otter.Cache[string, Entry]
	logger     *slog.Logger
	dir        string // empty means memory-only
	ttl        time.Duration
	saveEvery  time.Duration
	saveCancel context.CancelFunc
	saveWg     sync.WaitGroup
	mu         sync.Mutex // serializes snapshot writes
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithTTL bounds how long an entry may live regardless of caller validity
// rules. Default 48h, comfortably past the one-day target lifecycle.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithSaveInterval sets the period of the background snapshot goroutine.
func WithSaveInterval(d time.Duration) Option {
	return func(s *Store) { s.saveEvery = d }
}

func newStore(dir string, opts ...Option) *Store {
	s := &Store{
		logger:    slog.Default(),
		dir:       dir,
		ttl:       48 * time.Hour,
		saveEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	hot := otter.Must(&otter.Options[string, Entry]{
		MaximumSize:      10_000,
		InitialCapacity:  256,
		ExpiryCalculator: otter.ExpiryWriting[string, Entry](s.ttl),
	})
	s.hot = *hot
	return s
}

// NewMemory builds a memory-only store with no disk snapshot, for tests and
// cache-disabled runs. Close is still safe to call.
func NewMemory(opts ...Option) *Store {
	return newStore("", opts...)
}

// Open builds a store persisted under dir: the snapshot is loaded
// immediately and saved every interval plus once on Close.
func Open(ctx context.Context, dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	s := newStore(dir, opts...)
	if err := s.loadSnapshot(ctx); err != nil {
		s.logger.Warn("cache snapshot load failed, starting empty", "error", err)
	}
	s.logger.Debug("cache opened", "dir", dir, "entries", s.hot.EstimatedSize())
	s.startPeriodicSave(ctx)
	return s, nil
}

// Get returns the value for key if present and within TTL.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	entry, ok := s.hot.GetIfPresent(key)
	if !ok {
		return nil, false, nil
	}
	if time.Since(entry.StoredAt) > s.ttl {
		s.hot.Invalidate(key)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores value under key, replacing any previous entry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.hot.Set(key, Entry{Data: value, StoredAt: time.Now()})
	return nil
}

// Delete removes key if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.hot.Invalidate(key)
	return nil
}

// Len reports the approximate number of live entries.
func (s *Store) Len() int {
	return s.hot.EstimatedSize()
}

// Close stops the snapshot goroutine and writes a final snapshot.
func (s *Store) Close() error {
	if s.saveCancel != nil {
		s.saveCancel()
	}
	s.saveWg.Wait()
	if s.dir == "" {
		return nil
	}
	if err := s.saveSnapshot(); err != nil {
		s.logger.Error("final cache snapshot failed", "error", err)
		return err
	}
	s.logger.Debug("cache closed", "entries", s.hot.EstimatedSize())
	return nil
}

func (s *Store) startPeriodicSave(ctx context.Context) {
	saveCtx, cancel := context.WithCancel(ctx)
	s.saveCancel = cancel

	s.saveWg.Add(1)
	go func() {
		defer s.saveWg.Done()
		ticker := time.NewTicker(s.saveEvery)
		defer ticker.Stop()
		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := s.saveSnapshot(); err != nil {
					s.logger.Error("periodic cache snapshot failed", "error", err)
				}
			}
		}
	}()
}

// loadSnapshot reads the gob file, retrying transient I/O errors. A missing
// file is a clean first run; a corrupt file is discarded.
func (s *Store) loadSnapshot(ctx context.Context) error {
	path := filepath.Join(s.dir, snapshotFile)

	var entries map[string]Entry
	err := retry.Do(
		func() error {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := file.Close(); closeErr != nil {
					s.logger.Debug("failed to close snapshot file", "error", closeErr)
				}
			}()
			return gob.NewDecoder(file).Decode(&entries)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool { return !os.IsNotExist(err) }),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Debug("retrying snapshot load", "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading snapshot: %w", err)
	}

	now := time.Now()
	live := 0
	for key, entry := range entries {
		if now.Sub(entry.StoredAt) <= s.ttl {
			s.hot.Set(key, entry)
			live++
		}
	}
	s.logger.Debug("cache snapshot loaded", "path", path, "total", len(entries), "live", live)
	return nil
}

// saveSnapshot writes every live entry to a temp file and atomically renames
// it over the snapshot, retrying transient failures with backoff.
func (s *Store) saveSnapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make(map[string]Entry)
	now := time.Now()
	s.hot.All()(func(key string, entry Entry) bool {
		if now.Sub(entry.StoredAt) <= s.ttl {
			entries[key] = entry
		}
		return true
	})

	path := filepath.Join(s.dir, snapshotFile)
	err := retry.Do(
		func() error { return writeSnapshotFile(path, entries) },
		retry.Attempts(4),
		retry.Delay(200*time.Millisecond),
		retry.MaxDelay(3*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Debug("retrying snapshot save", "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	s.logger.Debug("cache snapshot saved", "entries", len(entries), "path", path)
	return nil
}

func writeSnapshotFile(path string, entries map[string]Entry) (err error) {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tmp); removeErr != nil && !os.IsNotExist(removeErr) {
			err = errors.Join(err, removeErr)
		}
	}()

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		_ = file.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
