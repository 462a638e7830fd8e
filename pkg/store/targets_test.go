package store

import (
	"context"
	"testing"

	"github.com/ampedlife/amped/pkg/target"
)

// The targets table must be usable wherever the snapshot cache is.
var _ target.Store = (*TargetStore)(nil)

func TestTargetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	targets := db.Targets()
	ctx := context.Background()

	if err := targets.Set(ctx, "steps:day", []byte(`{"target_value":4500}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	entry, ok, err := targets.Get(ctx, "steps:day")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get ok = false, want true")
	}
	if string(entry) != `{"target_value":4500}` {
		t.Errorf("entry = %s, want the stored payload", entry)
	}
}

func TestTargetOverwrite(t *testing.T) {
	db := openTestDB(t)
	targets := db.Targets()
	ctx := context.Background()

	if err := targets.Set(ctx, "sleep_duration:day", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := targets.Set(ctx, "sleep_duration:day", []byte("v2")); err != nil {
		t.Fatalf("Set (overwrite): %v", err)
	}

	entry, ok, err := targets.Get(ctx, "sleep_duration:day")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(entry) != "v2" {
		t.Errorf("entry = %s, want v2", entry)
	}
}

func TestTargetDelete(t *testing.T) {
	db := openTestDB(t)
	targets := db.Targets()
	ctx := context.Background()

	if err := targets.Set(ctx, "steps:year", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := targets.Delete(ctx, "steps:year"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := targets.Get(ctx, "steps:year"); ok {
		t.Error("Get ok = true after delete")
	}
}

func TestTargetGetMissing(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.Targets().Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get ok = true for missing key")
	}
}
