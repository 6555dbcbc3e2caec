package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
// A single mutex makes every Apply and Remove atomic.
type IndexStore struct {
	mu      sync.RWMutex
	forward map[int64]domain.ForwardIndex
	reverse map[int64]map[int64]struct{}
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		forward: make(map[int64]domain.ForwardIndex),
		reverse: make(map[int64]map[int64]struct{}),
	}
}

// GetForward returns the forward entry of a document.
func (s *IndexStore) GetForward(_ context.Context, contentID int64) (domain.ForwardIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.forward[contentID]
	if !ok {
		return nil, nil
	}
	out := make(domain.ForwardIndex, len(entries))
	copy(out, entries)
	return out, nil
}

// GetReverse returns the documents referencing an asset, ascending.
func (s *IndexStore) GetReverse(_ context.Context, assetID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := s.reverse[assetID]
	if len(members) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Apply replaces the forward entry and applies delta to the reverse index.
func (s *IndexStore) Apply(_ context.Context, contentID int64, entries domain.ForwardIndex, delta domain.IndexDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		delete(s.forward, contentID)
	} else {
		stored := make(domain.ForwardIndex, len(entries))
		copy(stored, entries)
		s.forward[contentID] = stored
	}

	for _, assetID := range delta.Removed {
		s.leave(assetID, contentID)
	}
	for _, assetID := range delta.Added {
		if s.reverse[assetID] == nil {
			s.reverse[assetID] = make(map[int64]struct{})
		}
		s.reverse[assetID][contentID] = struct{}{}
	}
	return nil
}

// Remove drops the forward entry and its reverse memberships.
func (s *IndexStore) Remove(_ context.Context, contentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.forward[contentID] {
		s.leave(e.AssetID, contentID)
	}
	delete(s.forward, contentID)
	return nil
}

// IndexedContentIDs returns every document with a forward entry.
func (s *IndexStore) IndexedContentIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIDs(s.forward), nil
}

// leave removes contentID from an asset's reverse set (caller must hold lock).
func (s *IndexStore) leave(assetID, contentID int64) {
	members := s.reverse[assetID]
	delete(members, contentID)
	if len(members) == 0 {
		delete(s.reverse, assetID)
	}
}
