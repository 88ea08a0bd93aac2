package metrics

import (
	"testing"
	"time"
)

func TestCountersAndReset(t *testing.T) {
	m := &Metrics{}
	m.AddItemsCollected(5)
	m.AddDuplicatesFiltered(2)
	m.IncrementFeedFailures()
	m.IncrementPagesEnriched()
	m.IncrementEnrichFailures()
	m.AddChunksEmbedded(3)
	m.RecordProcessingTime(1500 * time.Millisecond)

	stats := m.GetStats()
	if stats["items_collected"].(int64) != 5 {
		t.Errorf("items_collected = %v", stats["items_collected"])
	}
	if stats["duplicates_filtered"].(int64) != 2 {
		t.Errorf("duplicates_filtered = %v", stats["duplicates_filtered"])
	}
	if stats["chunks_embedded"].(int64) != 3 {
		t.Errorf("chunks_embedded = %v", stats["chunks_embedded"])
	}
	if stats["last_processing_time_ms"].(int64) != 1500 {
		t.Errorf("last_processing_time_ms = %v", stats["last_processing_time_ms"])
	}

	m.Reset()
	if m.GetStats()["items_collected"].(int64) != 0 {
		t.Error("Reset did not clear counters")
	}
}
