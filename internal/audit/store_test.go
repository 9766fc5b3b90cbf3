package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func getStore(t *testing.T) *Store {
	tempDir, err := os.MkdirTemp("", "audit_test_")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	dbPath := filepath.Join(tempDir, "test.db")
	store, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestRecordPruneThenRecent(t *testing.T) {
	store := getStore(t)

	at := time.Unix(1700000000, 0)
	if err := store.RecordPrune(at, 3, 1699999000); err != nil {
		t.Fatal(err)
	}

	events, err := store.Recent(10)
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events))
	}

	got := events[0]
	if !got.OccurredAt.Equal(at) {
		t.Errorf("OccurredAt = %v, want %v", got.OccurredAt, at)
	}
	if got.DroppedCount != 3 {
		t.Errorf("DroppedCount = %d, want 3", got.DroppedCount)
	}
	if got.OldestTimestamp != 1699999000 {
		t.Errorf("OldestTimestamp = %d, want 1699999000", got.OldestTimestamp)
	}
}

func TestRecentOrdersNewestFirstAndRespectsLimit(t *testing.T) {
	store := getStore(t)

	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		if err := store.RecordPrune(at, i, 0); err != nil {
			t.Fatal(err)
		}
	}

	events, err := store.Recent(3)
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 3 {
		t.Fatalf("want 3 events, got %d", len(events))
	}

	for i := 0; i < len(events)-1; i++ {
		if events[i].OccurredAt.Before(events[i+1].OccurredAt) {
			t.Errorf("events not ordered newest first: %v before %v", events[i].OccurredAt, events[i+1].OccurredAt)
		}
	}

	if events[0].DroppedCount != 4 {
		t.Errorf("newest DroppedCount = %d, want 4", events[0].DroppedCount)
	}
}

func TestRecentOnEmptyStoreReturnsNoRows(t *testing.T) {
	store := getStore(t)

	events, err := store.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("want 0 events, got %d", len(events))
	}
}
