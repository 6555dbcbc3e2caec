package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
)

// Ensure UsageStore implements the interface.
var _ driven.UsageStore = (*UsageStore)(nil)

// UsageStore is an in-memory implementation of driven.UsageStore.
type UsageStore struct {
	mu      sync.RWMutex
	records map[int64]domain.UsageRecord
}

// NewUsageStore creates a new in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{records: make(map[int64]domain.UsageRecord)}
}

// GetRecord retrieves the record of an asset, or nil if never scanned.
func (s *UsageStore) GetRecord(_ context.Context, assetID int64) (*domain.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[assetID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// SaveRecord creates or overwrites the record of an asset.
func (s *UsageStore) SaveRecord(_ context.Context, record *domain.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.AssetID] = *record
	return nil
}

// DeleteRecord removes the record of an asset.
func (s *UsageStore) DeleteRecord(_ context.Context, assetID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, assetID)
	return nil
}

// ScannedIDs returns every scanned asset ID, ascending.
func (s *UsageStore) ScannedIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIDs(s.records), nil
}
