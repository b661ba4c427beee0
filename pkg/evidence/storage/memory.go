package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/conduit/pkg/evidence"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// Records do not survive a restart.
type MemoryStorage struct {
	records map[string]*evidence.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.Record),
	}
}

// Store persists a record to memory.
func (s *MemoryStorage) Store(ctx context.Context, record *evidence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid mutation by the caller
	recordCopy := *record
	s.records[record.ID] = &recordCopy

	return nil
}

// Query retrieves records matching the query filters, sorted and paginated.
func (s *MemoryStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.Record, error) {
	s.mu.RLock()
	results := make([]*evidence.Record, 0)
	for _, record := range s.records {
		if matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	sortRecords(results, query.SortBy, query.SortOrder)

	start := query.Offset
	if start > len(results) {
		return []*evidence.Record{}, nil
	}
	results = results[start:]

	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results, nil
}

// Count returns the number of records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}

	return count, nil
}

// Delete removes records matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}

	return deleted, nil
}

// Ping always succeeds for memory storage.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*evidence.Record)
	return nil
}

// Size returns the number of records in storage.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// matchesQuery checks if a record matches the query filters.
func matchesQuery(record *evidence.Record, query *evidence.Query) bool {
	// Time range filter
	if query.StartTime != nil && record.RequestTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.RequestTime.After(*query.EndTime) {
		return false
	}

	if query.RequestID != "" && record.RequestID != query.RequestID {
		return false
	}
	if query.Backend != "" && record.Backend != query.Backend {
		return false
	}
	if query.Outcome != "" && record.Outcome != query.Outcome {
		return false
	}

	switch query.Status {
	case "success":
		if record.Failed() {
			return false
		}
	case "error":
		if !record.Failed() {
			return false
		}
	}

	return true
}

// sortRecords orders records by the named field. Unknown fields sort by
// request time; the default order is newest first.
func sortRecords(records []*evidence.Record, sortBy, order string) {
	key := func(r *evidence.Record) int64 {
		switch sortBy {
		case "duration":
			return int64(r.Duration)
		case "upstream_latency":
			return int64(r.UpstreamLatency)
		default:
			return r.RequestTime.UnixNano()
		}
	}

	asc := order == "asc"
	sort.SliceStable(records, func(i, j int) bool {
		ki, kj := key(records[i]), key(records[j])
		if ki == kj {
			return records[i].ID < records[j].ID
		}
		if asc {
			return ki < kj
		}
		return ki > kj
	})
}
