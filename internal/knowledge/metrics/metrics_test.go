package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestRecordQuery(t *testing.T) {
	m := Get()
	m.Reset()

	m.RecordQuery(100*time.Millisecond, false, nil)
	m.RecordQuery(50*time.Millisecond, true, nil)
	m.RecordQuery(0, false, errors.New("boom"))

	stats := m.Stats()
	queries := stats["queries"].(map[string]any)
	if queries["total"].(uint64) != 3 {
		t.Errorf("expected 3 queries, got %v", queries["total"])
	}
	if queries["refused"].(uint64) != 1 {
		t.Errorf("expected 1 refused, got %v", queries["refused"])
	}
	if queries["errors"].(uint64) != 1 {
		t.Errorf("expected 1 error, got %v", queries["errors"])
	}
	if queries["duration_seconds"].(float64) <= 0 {
		t.Errorf("expected positive duration")
	}
}

func TestRecordIngest(t *testing.T) {
	m := Get()
	m.Reset()

	m.RecordIngestStart()
	m.RecordIngestResult(12, false, nil)
	m.RecordIngestStart()
	m.RecordIngestResult(0, true, errors.New("deadline exceeded"))

	stats := m.Stats()["ingest"].(map[string]any)
	if stats["runs"].(uint64) != 2 {
		t.Errorf("expected 2 runs, got %v", stats["runs"])
	}
	if stats["completed"].(uint64) != 1 || stats["failed"].(uint64) != 1 {
		t.Errorf("unexpected completed/failed: %v/%v", stats["completed"], stats["failed"])
	}
	if stats["timeouts"].(uint64) != 1 {
		t.Errorf("expected 1 timeout, got %v", stats["timeouts"])
	}
	if stats["chunks_indexed"].(uint64) != 12 {
		t.Errorf("expected 12 chunks indexed, got %v", stats["chunks_indexed"])
	}
}

func TestRecordRetrievalAndFallback(t *testing.T) {
	m := Get()
	m.Reset()

	m.RecordRetrieval(nil)
	m.RecordRetrieval(errors.New("milvus down"))
	m.RecordFallback()

	stats := m.Stats()["retrieval"].(map[string]any)
	if stats["total"].(uint64) != 2 || stats["errors"].(uint64) != 1 || stats["fallback"].(uint64) != 1 {
		t.Errorf("unexpected retrieval stats: %v", stats)
	}
}
