package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
	"github.com/custodia-labs/sourcemark/internal/location"
)

// Ensure AssetService implements the interface.
var _ driving.AssetService = (*AssetService)(nil)

// AssetService manages assets. License names are checked against the
// configured license table.
type AssetService struct {
	assets   driven.AssetStore
	usage    driven.UsageStore
	licenses map[string]string
}

// NewAssetService creates an asset service. The usage store may be nil.
func NewAssetService(assets driven.AssetStore, usage driven.UsageStore, licenses map[string]string) *AssetService {
	return &AssetService{assets: assets, usage: usage, licenses: licenses}
}

// Save validates and stores an asset.
func (s *AssetService) Save(ctx context.Context, asset *domain.Asset) error {
	if asset == nil || strings.TrimSpace(asset.Location) == "" {
		return fmt.Errorf("save asset: location required: %w", domain.ErrInvalidInput)
	}
	if location.Key(asset.Location) == "" {
		return fmt.Errorf("save asset: location %q: %w", asset.Location, domain.ErrInvalidInput)
	}
	if err := s.checkLicense(asset.License); err != nil {
		return err
	}
	if err := s.assets.SaveAsset(ctx, asset); err != nil {
		return fmt.Errorf("save asset: %w", err)
	}
	return nil
}

// Get retrieves an asset by ID.
func (s *AssetService) Get(ctx context.Context, id int64) (*domain.Asset, error) {
	return s.assets.GetAsset(ctx, id)
}

// List returns the assets matching the query.
func (s *AssetService) List(ctx context.Context, query domain.AssetQuery) ([]domain.Asset, error) {
	ids, err := s.assets.ListAssetIDs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	assets := make([]domain.Asset, 0, len(ids))
	for _, id := range ids {
		asset, err := s.assets.GetAsset(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list assets: %w", err)
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

// Lookup finds the asset stored under a URL or path.
func (s *AssetService) Lookup(ctx context.Context, raw string) (*domain.Asset, error) {
	key := location.Key(raw)
	if key == "" {
		return nil, fmt.Errorf("lookup %q: %w", raw, domain.ErrInvalidInput)
	}
	id, err := s.assets.FindByLocation(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", raw, err)
	}
	return s.assets.GetAsset(ctx, id)
}

// SetAttribute updates one attribution field.
func (s *AssetService) SetAttribute(ctx context.Context, id int64, key, value string) error {
	if key == domain.AttrLicense {
		if err := s.checkLicense(value); err != nil {
			return err
		}
	}
	return s.assets.SetAttribute(ctx, id, key, value)
}

// Delete removes an asset and its usage record.
func (s *AssetService) Delete(ctx context.Context, id int64) error {
	if err := s.assets.DeleteAsset(ctx, id); err != nil {
		return fmt.Errorf("delete asset %d: %w", id, err)
	}
	if s.usage != nil {
		if err := s.usage.DeleteRecord(ctx, id); err != nil {
			return fmt.Errorf("delete usage record %d: %w", id, err)
		}
	}
	return nil
}

func (s *AssetService) checkLicense(name string) error {
	if name == "" || s.licenses == nil {
		return nil
	}
	if _, ok := s.licenses[name]; !ok {
		return fmt.Errorf("license %q: %w", name, domain.ErrInvalidInput)
	}
	return nil
}
