package retention

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"mercator-hq/conduit/pkg/evidence"
	"mercator-hq/conduit/pkg/evidence/storage"
)

var now = time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedAges stores one record per age in days.
func seedAges(t *testing.T, s evidence.Storage, ages ...int) {
	t.Helper()
	for i, age := range ages {
		err := s.Store(context.Background(), &evidence.Record{
			ID:          fmt.Sprintf("rec-%d", i),
			RequestID:   fmt.Sprintf("req-%d", i),
			RequestTime: now.AddDate(0, 0, -age),
			Backend:     "claude",
			Outcome:     evidence.OutcomeSuccess,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func newPruner(s evidence.Storage, cfg Config) *Pruner {
	p := NewPruner(s, cfg, quietLogger())
	p.now = func() time.Time { return now }
	return p
}

func TestPruner_ByAge(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedAges(t, s, 1, 10, 29, 31, 60)

	deleted, err := newPruner(s, Config{RetentionDays: 30}).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if s.Size() != 3 {
		t.Errorf("remaining = %d, want 3", s.Size())
	}
}

func TestPruner_KeepForever(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedAges(t, s, 1, 400, 4000)

	deleted, err := newPruner(s, Config{RetentionDays: -1}).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 0 || s.Size() != 3 {
		t.Errorf("deleted = %d, remaining = %d", deleted, s.Size())
	}
}

func TestPruner_ByCount(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedAges(t, s, 1, 2, 3, 4, 5)

	deleted, err := newPruner(s, Config{MaxRecords: 3}).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	remaining, _ := s.Query(context.Background(), &evidence.Query{SortOrder: "asc"})
	if len(remaining) != 3 || remaining[0].ID != "rec-2" {
		t.Errorf("oldest remaining = %v", remaining)
	}
}

func TestPruner_AgeThenCount(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedAges(t, s, 1, 2, 3, 40, 50)

	deleted, err := newPruner(s, Config{RetentionDays: 30, MaxRecords: 2}).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}
	if s.Size() != 2 {
		t.Errorf("remaining = %d, want 2", s.Size())
	}
}

func TestPruner_UnderLimit(t *testing.T) {
	s := storage.NewMemoryStorage()
	seedAges(t, s, 1, 2)

	deleted, err := newPruner(s, Config{RetentionDays: 30, MaxRecords: 10}).Prune(context.Background())
	if err != nil || deleted != 0 {
		t.Errorf("Prune() = %d, %v", deleted, err)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	p := newPruner(storage.NewMemoryStorage(), Config{RetentionDays: 30, PruneSchedule: "0 3 * * *"})
	s := NewScheduler(p)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler not running after Start")
	}
	if next := s.NextRun(); next == nil {
		t.Error("NextRun() = nil")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
}

func TestScheduler_EmptySchedule(t *testing.T) {
	s := NewScheduler(newPruner(storage.NewMemoryStorage(), Config{}))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler running without a schedule")
	}
	if s.NextRun() != nil {
		t.Error("NextRun() should be nil without a schedule")
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(newPruner(storage.NewMemoryStorage(), Config{PruneSchedule: "not a cron"}))
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestScheduler_RunPrunesImmediately(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedAges(t, store, 1, 90)
	s := NewScheduler(newPruner(store, Config{RetentionDays: 30, PruneSchedule: "0 3 * * *"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for store.Size() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Size() != 1 {
		t.Errorf("remaining = %d, want 1", store.Size())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
