package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// News counters
	ItemsCollected     int64
	DuplicatesFiltered int64
	FeedFailures       int64
	PagesEnriched      int64
	EnrichFailures     int64

	// Embedding counters
	EmbeddingRequests int64
	ChunksEmbedded    int64
	CacheHits         int64
	FilesSkipped      int64

	// Timings
	LastProcessingTime time.Duration

	// Status
	LastRunTime time.Time
	LastError   string
}

var Global = &Metrics{}

func (m *Metrics) AddItemsCollected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsCollected += int64(n)
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

func (m *Metrics) IncrementFeedFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedFailures++
}

func (m *Metrics) IncrementPagesEnriched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PagesEnriched++
}

func (m *Metrics) IncrementEnrichFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnrichFailures++
}

func (m *Metrics) IncrementEmbeddingRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbeddingRequests++
}

func (m *Metrics) AddChunksEmbedded(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChunksEmbedded += int64(n)
}

func (m *Metrics) IncrementCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *Metrics) IncrementFilesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesSkipped++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastProcessingTime = duration
	m.LastRunTime = time.Now()
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsCollected = 0
	m.DuplicatesFiltered = 0
	m.FeedFailures = 0
	m.PagesEnriched = 0
	m.EnrichFailures = 0
	m.EmbeddingRequests = 0
	m.ChunksEmbedded = 0
	m.CacheHits = 0
	m.FilesSkipped = 0
	m.LastProcessingTime = 0
	m.LastRunTime = time.Time{}
	m.LastError = ""
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"items_collected":         m.ItemsCollected,
		"duplicates_filtered":     m.DuplicatesFiltered,
		"feed_failures":           m.FeedFailures,
		"pages_enriched":          m.PagesEnriched,
		"enrich_failures":         m.EnrichFailures,
		"embedding_requests":      m.EmbeddingRequests,
		"chunks_embedded":         m.ChunksEmbedded,
		"cache_hits":              m.CacheHits,
		"files_skipped":           m.FilesSkipped,
		"last_processing_time_ms": m.LastProcessingTime.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error":              m.LastError,
	}
}
