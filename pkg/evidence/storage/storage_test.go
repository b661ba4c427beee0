package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/conduit/pkg/evidence"
)

var baseTime = time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)

func newRecord(i int, backend, outcome string) *evidence.Record {
	return &evidence.Record{
		ID:              fmt.Sprintf("rec-%03d", i),
		RequestID:       fmt.Sprintf("req-%03d", i),
		RequestTime:     baseTime.Add(time.Duration(i) * time.Minute),
		RecordedTime:    baseTime.Add(time.Duration(i)*time.Minute + time.Second),
		Method:          "POST",
		Path:            "/v1/chat/" + backend,
		RemoteAddr:      "127.0.0.1:5000",
		Backend:         backend,
		BackendType:     "anthropic",
		Model:           "claude-opus-4-20250514",
		MessageCount:    2,
		HasSystem:       i%2 == 0,
		UpstreamStatus:  200,
		ResponseStatus:  200,
		Outcome:         outcome,
		Deltas:          i,
		Bytes:           int64(i * 10),
		UpstreamLatency: time.Duration(i) * time.Millisecond,
		FirstDelta:      time.Duration(i) * 2 * time.Millisecond,
		Duration:        time.Duration(10-i) * time.Second,
	}
}

type factory func(t *testing.T) evidence.Storage

func backends() map[string]factory {
	return map[string]factory{
		"memory": func(t *testing.T) evidence.Storage {
			return NewMemoryStorage()
		},
		"sqlite": func(t *testing.T) evidence.Storage {
			s, err := NewSQLiteStorage(SQLiteConfig{
				Path:    filepath.Join(t.TempDir(), "nested", "evidence.db"),
				WALMode: true,
			})
			if err != nil {
				t.Fatalf("NewSQLiteStorage() error = %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func seed(t *testing.T, s evidence.Storage) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		backend, outcome := "claude", evidence.OutcomeSuccess
		if i%3 == 0 {
			backend = "gemini"
		}
		if i == 4 || i == 5 {
			outcome = evidence.OutcomeUpstreamError
		}
		r := newRecord(i, backend, outcome)
		if outcome != evidence.OutcomeSuccess {
			r.Error = "Gemini API error: quota exceeded"
		}
		if err := s.Store(ctx, r); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}
}

func TestStorage_StoreAndQueryRoundTrip(t *testing.T) {
	for name, newStorage := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStorage(t)
			want := newRecord(3, "claude", evidence.OutcomeStreamError)
			want.Error = "stream interrupted"
			want.UserAgent = "curl/8.0"

			if err := s.Store(context.Background(), want); err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			got, err := s.Query(context.Background(), &evidence.Query{RequestID: "req-003"})
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("Query() returned %d records, want 1", len(got))
			}

			r := got[0]
			if !r.RequestTime.Equal(want.RequestTime) || !r.RecordedTime.Equal(want.RecordedTime) {
				t.Errorf("timestamps = %v/%v, want %v/%v", r.RequestTime, r.RecordedTime, want.RequestTime, want.RecordedTime)
			}
			r.RequestTime, r.RecordedTime = want.RequestTime, want.RecordedTime
			if *r != *want {
				t.Errorf("record mismatch\n got: %+v\nwant: %+v", *r, *want)
			}
		})
	}
}

func TestStorage_QueryFilters(t *testing.T) {
	start := baseTime.Add(2 * time.Minute)
	end := baseTime.Add(4 * time.Minute)

	tests := []struct {
		name    string
		query   evidence.Query
		wantIDs []string
	}{
		{
			name:    "all newest first",
			query:   evidence.Query{},
			wantIDs: []string{"rec-005", "rec-004", "rec-003", "rec-002", "rec-001", "rec-000"},
		},
		{
			name:    "backend",
			query:   evidence.Query{Backend: "gemini"},
			wantIDs: []string{"rec-003", "rec-000"},
		},
		{
			name:    "status error",
			query:   evidence.Query{Status: "error"},
			wantIDs: []string{"rec-005", "rec-004"},
		},
		{
			name:    "status success oldest first",
			query:   evidence.Query{Status: "success", SortOrder: "asc"},
			wantIDs: []string{"rec-000", "rec-001", "rec-002", "rec-003"},
		},
		{
			name:    "outcome",
			query:   evidence.Query{Outcome: evidence.OutcomeUpstreamError, SortOrder: "asc"},
			wantIDs: []string{"rec-004", "rec-005"},
		},
		{
			name:    "time range inclusive",
			query:   evidence.Query{StartTime: &start, EndTime: &end, SortOrder: "asc"},
			wantIDs: []string{"rec-002", "rec-003", "rec-004"},
		},
		{
			name:    "limit and offset",
			query:   evidence.Query{Limit: 2, Offset: 1},
			wantIDs: []string{"rec-004", "rec-003"},
		},
		{
			name:    "offset only",
			query:   evidence.Query{Offset: 4},
			wantIDs: []string{"rec-001", "rec-000"},
		},
		{
			name:    "offset past end",
			query:   evidence.Query{Offset: 10},
			wantIDs: []string{},
		},
		{
			name:    "sort by duration ascending",
			query:   evidence.Query{SortBy: "duration", SortOrder: "asc", Limit: 2},
			wantIDs: []string{"rec-005", "rec-004"},
		},
	}

	for name, newStorage := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStorage(t)
			seed(t, s)

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := s.Query(context.Background(), &tt.query)
					if err != nil {
						t.Fatalf("Query() error = %v", err)
					}
					ids := make([]string, len(got))
					for i, r := range got {
						ids[i] = r.ID
					}
					if fmt.Sprint(ids) != fmt.Sprint(tt.wantIDs) {
						t.Errorf("IDs = %v, want %v", ids, tt.wantIDs)
					}
				})
			}
		})
	}
}

func TestStorage_CountAndDelete(t *testing.T) {
	for name, newStorage := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStorage(t)
			seed(t, s)
			ctx := context.Background()

			count, err := s.Count(ctx, &evidence.Query{Backend: "claude"})
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if count != 4 {
				t.Errorf("Count(claude) = %d, want 4", count)
			}

			cutoff := baseTime.Add(time.Minute)
			deleted, err := s.Delete(ctx, &evidence.Query{EndTime: &cutoff})
			if err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if deleted != 2 {
				t.Errorf("Delete() = %d, want 2", deleted)
			}

			total, err := s.Count(ctx, &evidence.Query{})
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if total != 4 {
				t.Errorf("remaining = %d, want 4", total)
			}
		})
	}
}

func TestStorage_Ping(t *testing.T) {
	for name, newStorage := range backends() {
		t.Run(name, func(t *testing.T) {
			if err := newStorage(t).Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evidence.db")

	s, err := NewSQLiteStorage(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	if err := s.Store(context.Background(), newRecord(1, "claude", evidence.OutcomeSuccess)); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = NewSQLiteStorage(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	count, err := s.Count(context.Background(), &evidence.Query{})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() after reopen = %d, want 1", count)
	}
}

func TestSQLiteStorage_DuplicateID(t *testing.T) {
	s, err := NewSQLiteStorage(SQLiteConfig{Path: filepath.Join(t.TempDir(), "evidence.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer s.Close()

	r := newRecord(1, "claude", evidence.OutcomeSuccess)
	if err := s.Store(context.Background(), r); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	err = s.Store(context.Background(), r)
	var storageErr *evidence.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("duplicate Store() error = %v, want StorageError", err)
	}
	if storageErr.Operation != "store" {
		t.Errorf("Operation = %q, want store", storageErr.Operation)
	}
}

func TestNewSQLiteStorage_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStorage(SQLiteConfig{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestMemoryStorage_StoreCopies(t *testing.T) {
	s := NewMemoryStorage()
	r := newRecord(1, "claude", evidence.OutcomeSuccess)
	if err := s.Store(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	r.Backend = "mutated"

	got, _ := s.Query(context.Background(), &evidence.Query{})
	if got[0].Backend != "claude" {
		t.Errorf("stored record was mutated: %q", got[0].Backend)
	}
	if s.Size() != 1 {
		t.Errorf("Size() = %d", s.Size())
	}
}
