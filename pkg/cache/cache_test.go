package cache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMemoryRoundTrip(t *testing.T) {
	store := NewMemory(WithLogger(discardLogger()))
	defer func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()
	ctx := context.Background()

	if err := store.Set(ctx, "steps:2026-06-15", []byte(`{"target":4500}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	data, ok, err := store.Get(ctx, "steps:2026-06-15")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if string(data) != `{"target":4500}` {
		t.Errorf("Get() = %q, want %q", data, `{"target":4500}`)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestGetMissingKey(t *testing.T) {
	store := NewMemory(WithLogger(discardLogger()))
	defer store.Close()

	_, ok, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true for missing key, want false")
	}
}

func TestDelete(t *testing.T) {
	store := NewMemory(WithLogger(discardLogger()))
	defer store.Close()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("Get() ok = true after Delete, want false")
	}
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(ctx, dir, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Set(ctx, "sleep:2026-06-15", []byte("7.5")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(ctx, dir, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() after close error = %v", err)
	}
	defer reopened.Close()

	data, ok, err := reopened.Get(ctx, "sleep:2026-06-15")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("entry did not survive reopen")
	}
	if string(data) != "7.5" {
		t.Errorf("Get() = %q, want %q", data, "7.5")
	}
}

func TestExpiredEntriesDroppedOnLoad(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(ctx, dir, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Set(ctx, "stale", []byte("old")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen with a TTL shorter than the entry's age.
	reopened, err := Open(ctx, dir, WithLogger(discardLogger()), WithTTL(time.Nanosecond))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	if _, ok, _ := reopened.Get(ctx, "stale"); ok {
		t.Error("expired entry survived reload")
	}
}

func TestCorruptSnapshotStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, snapshotFile), []byte("not a gob stream"), 0o600); err != nil {
		t.Fatalf("writing corrupt snapshot: %v", err)
	}

	store, err := Open(context.Background(), dir, WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("Open() with corrupt snapshot error = %v", err)
	}
	defer store.Close()

	if store.Len() != 0 {
		t.Errorf("Len() = %d after corrupt snapshot, want 0", store.Len())
	}
}

func TestCanceledContext(t *testing.T) {
	store := NewMemory(WithLogger(discardLogger()))
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "k", []byte("v")); err == nil {
		t.Error("Set() with canceled context error = nil, want error")
	}
	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Error("Get() with canceled context error = nil, want error")
	}
}
