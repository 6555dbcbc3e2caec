package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/location"
)

// Ensure AssetStore implements the interface.
var _ driven.AssetStore = (*AssetStore)(nil)

// AssetStore is an in-memory implementation of driven.AssetStore.
type AssetStore struct {
	mu     sync.RWMutex
	assets map[int64]domain.Asset
	nextID int64
}

// NewAssetStore creates a new in-memory asset store.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		assets: make(map[int64]domain.Asset),
		nextID: 1,
	}
}

// SaveAsset stores or updates an asset. A zero ID is assigned.
func (s *AssetStore) SaveAsset(_ context.Context, asset *domain.Asset) error {
	if asset.ID < 0 {
		return domain.ErrInvalidInput
	}
	if asset.Extension == "" {
		asset.Extension = location.Extension(asset.Location)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if asset.ID == 0 {
		asset.ID = s.nextID
	}
	if asset.ID >= s.nextID {
		s.nextID = asset.ID + 1
	}
	s.assets[asset.ID] = *asset
	return nil
}

// GetAsset retrieves an asset by ID.
func (s *AssetStore) GetAsset(_ context.Context, id int64) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// DeleteAsset removes an asset.
func (s *AssetStore) DeleteAsset(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, id)
	return nil
}

// FindByLocation returns the lowest-ID asset whose location normalises
// to key, exactly or ASCII-folded.
func (s *AssetStore) FindByLocation(_ context.Context, key string) (int64, error) {
	if key == "" {
		return 0, domain.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range sortedIDs(s.assets) {
		loc := s.assets[id].Location
		if location.Key(loc) == key || location.FoldKey(loc) == key {
			return id, nil
		}
	}
	return 0, domain.ErrNotFound
}

// SetAttribute updates one attribution field.
func (s *AssetStore) SetAttribute(_ context.Context, id int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
	}
	if err := a.SetAttribute(key, value); err != nil {
		return err
	}
	s.assets[id] = a
	return nil
}

// GetAttribute reads one attribution field.
func (s *AssetStore) GetAttribute(_ context.Context, id int64, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return "", fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
	}
	return a.Attribute(key)
}

// ListAssetIDs returns asset IDs matching the query, ascending.
func (s *AssetStore) ListAssetIDs(_ context.Context, query domain.AssetQuery) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.matching(query), query.Offset, query.Limit), nil
}

// CountAssets returns how many assets match the query.
func (s *AssetStore) CountAssets(_ context.Context, query domain.AssetQuery) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(query)), nil
}

func (s *AssetStore) matching(query domain.AssetQuery) []int64 {
	exclude := idSet(query.ExcludeIDs)
	exts := make(map[string]struct{}, len(query.Extensions))
	for _, e := range query.Extensions {
		exts[e] = struct{}{}
	}

	var ids []int64
	for _, id := range sortedIDs(s.assets) {
		if _, skip := exclude[id]; skip {
			continue
		}
		if len(exts) > 0 {
			if _, ok := exts[s.assets[id].Extension]; !ok {
				continue
			}
		}
		ids = append(ids, id)
	}
	return ids
}
