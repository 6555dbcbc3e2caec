package domain

import "time"

// BatchCursor is the resumable state of a batch session.
// The caller holds it between calls; the core never persists it.
type BatchCursor struct {
	Offset       int     `json:"offset"`
	BatchSize    int     `json:"batch_size"`
	ProcessedIDs []int64 `json:"processed_ids,omitempty"`
}

// Advance records ids as processed. Processed ids are excluded from later
// batches, so the offset stays where the caller put it.
func (c *BatchCursor) Advance(ids []int64) {
	seen := make(map[int64]struct{}, len(c.ProcessedIDs))
	for _, id := range c.ProcessedIDs {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		c.ProcessedIDs = append(c.ProcessedIDs, id)
	}
}

// BatchStats summarises one RunBatch call.
type BatchStats struct {
	SessionID string        `json:"session_id"`
	Scanned   int           `json:"scanned"`
	Used      int           `json:"used"`
	Unused    int           `json:"unused"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
	PerItem   time.Duration `json:"per_item"`
}

// BatchRun is the outcome of scanning a batch of assets.
type BatchRun struct {
	Results            []ScanResult `json:"results"`
	Stats              BatchStats   `json:"stats"`
	SuggestedBatchSize int          `json:"suggested_batch_size"`
}

// ContentURLPage is one page of documents to fetch and index.
type ContentURLPage struct {
	Items      []ContentURL `json:"items"`
	Offset     int          `json:"offset"`
	NextOffset int          `json:"next_offset"`
	Total      int          `json:"total"`
	Percentage float64      `json:"percentage"`
	Complete   bool         `json:"complete"`
}

// IndexItemResult reports one fetched-and-indexed document.
// Error replaces Count when the item failed.
type IndexItemResult struct {
	ID    int64  `json:"id"`
	URL   string `json:"url,omitempty"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}
