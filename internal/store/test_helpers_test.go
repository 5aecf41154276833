package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/payload"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCall creates a successful call record.
func createTestCall(id, op string) CallRecord {
	return CallRecord{
		ID:      id,
		Op:      op,
		Caller:  "owner",
		Args:    payload.Object{},
		Value:   "0",
		Outcome: "OK",
	}
}

// appendEvents stamps records through log.
func appendEvents(log *event.Log, records ...event.Record) []event.Event {
	out := make([]event.Event, 0, len(records))
	for _, r := range records {
		out = append(out, log.Append(r))
	}
	return out
}

func mustCommit(t *testing.T, s *Store, b Batch) {
	t.Helper()
	if err := s.Commit(context.Background(), b); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}
