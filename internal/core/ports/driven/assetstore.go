package driven

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// AssetStore persists media assets and their attribution fields.
type AssetStore interface {
	// SaveAsset stores or updates an asset. A zero ID is assigned the next
	// free ID.
	SaveAsset(ctx context.Context, asset *domain.Asset) error

	// GetAsset retrieves an asset by ID.
	// Returns domain.ErrNotFound if the asset does not exist.
	GetAsset(ctx context.Context, id int64) (*domain.Asset, error)

	// DeleteAsset removes an asset.
	DeleteAsset(ctx context.Context, id int64) error

	// FindByLocation returns the asset whose normalised location equals key.
	// Key is compared against both the exact and the ASCII-folded forms
	// produced by the location package; the lowest ID wins.
	// Returns domain.ErrNotFound when nothing matches.
	FindByLocation(ctx context.Context, key string) (int64, error)

	// SetAttribute updates one attribution field.
	SetAttribute(ctx context.Context, id int64, key, value string) error

	// GetAttribute reads one attribution field.
	GetAttribute(ctx context.Context, id int64, key string) (string, error)

	// ListAssetIDs returns asset IDs matching the query, ascending.
	ListAssetIDs(ctx context.Context, query domain.AssetQuery) ([]int64, error)

	// CountAssets returns how many assets match the query, ignoring its
	// Offset and Limit.
	CountAssets(ctx context.Context, query domain.AssetQuery) (int, error)
}
