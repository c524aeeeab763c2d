// Package metrics collects business metrics for the knowledge service.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds atomic counters for the knowledge pipeline.
type Metrics struct {
	// Query path
	queriesTotal    uint64
	queriesRefused  uint64
	queriesErrors   uint64
	queriesDuration float64 // seconds

	// Retrieval
	retrievalTotal   uint64
	retrievalErrors  uint64
	fallbackSearches uint64

	// LLM calls
	llmCallsTotal  uint64
	llmCallsErrors uint64

	// Ingestion
	ingestRuns      uint64
	ingestCompleted uint64
	ingestFailed    uint64
	ingestTimeouts  uint64
	chunksIndexed   uint64

	durationMu sync.Mutex
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics instance.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{}
	})
	return instance
}

// RecordQuery records one answered question.
func (m *Metrics) RecordQuery(duration time.Duration, refused bool, err error) {
	atomic.AddUint64(&m.queriesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.queriesErrors, 1)
		return
	}
	if refused {
		atomic.AddUint64(&m.queriesRefused, 1)
	}

	m.durationMu.Lock()
	m.queriesDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordRetrieval records one similarity search.
func (m *Metrics) RecordRetrieval(err error) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.retrievalErrors, 1)
	}
}

// RecordFallback records a search served by the brute-force index.
func (m *Metrics) RecordFallback() {
	atomic.AddUint64(&m.fallbackSearches, 1)
}

// RecordLLMCall records one embedding or completion call.
func (m *Metrics) RecordLLMCall(err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
	}
}

// RecordIngestStart records the start of an ingestion run.
func (m *Metrics) RecordIngestStart() {
	atomic.AddUint64(&m.ingestRuns, 1)
}

// RecordIngestResult records the outcome of an ingestion run.
func (m *Metrics) RecordIngestResult(chunks int, timedOut bool, err error) {
	if err != nil {
		atomic.AddUint64(&m.ingestFailed, 1)
		if timedOut {
			atomic.AddUint64(&m.ingestTimeouts, 1)
		}
		return
	}
	atomic.AddUint64(&m.ingestCompleted, 1)
	atomic.AddUint64(&m.chunksIndexed, uint64(chunks))
}

// Stats returns a snapshot of all counters.
func (m *Metrics) Stats() map[string]any {
	m.durationMu.Lock()
	queriesDuration := m.queriesDuration
	m.durationMu.Unlock()

	return map[string]any{
		"queries": map[string]any{
			"total":            atomic.LoadUint64(&m.queriesTotal),
			"refused":          atomic.LoadUint64(&m.queriesRefused),
			"errors":           atomic.LoadUint64(&m.queriesErrors),
			"duration_seconds": queriesDuration,
		},
		"retrieval": map[string]any{
			"total":    atomic.LoadUint64(&m.retrievalTotal),
			"errors":   atomic.LoadUint64(&m.retrievalErrors),
			"fallback": atomic.LoadUint64(&m.fallbackSearches),
		},
		"llm": map[string]any{
			"calls":  atomic.LoadUint64(&m.llmCallsTotal),
			"errors": atomic.LoadUint64(&m.llmCallsErrors),
		},
		"ingest": map[string]any{
			"runs":           atomic.LoadUint64(&m.ingestRuns),
			"completed":      atomic.LoadUint64(&m.ingestCompleted),
			"failed":         atomic.LoadUint64(&m.ingestFailed),
			"timeouts":       atomic.LoadUint64(&m.ingestTimeouts),
			"chunks_indexed": atomic.LoadUint64(&m.chunksIndexed),
		},
	}
}

// Reset clears all counters. Intended for tests.
func (m *Metrics) Reset() {
	atomic.StoreUint64(&m.queriesTotal, 0)
	atomic.StoreUint64(&m.queriesRefused, 0)
	atomic.StoreUint64(&m.queriesErrors, 0)
	atomic.StoreUint64(&m.retrievalTotal, 0)
	atomic.StoreUint64(&m.retrievalErrors, 0)
	atomic.StoreUint64(&m.fallbackSearches, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)
	atomic.StoreUint64(&m.ingestRuns, 0)
	atomic.StoreUint64(&m.ingestCompleted, 0)
	atomic.StoreUint64(&m.ingestFailed, 0)
	atomic.StoreUint64(&m.ingestTimeouts, 0)
	atomic.StoreUint64(&m.chunksIndexed, 0)

	m.durationMu.Lock()
	m.queriesDuration = 0
	m.durationMu.Unlock()
}
