package driving

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// AssetService manages media assets and their attribution fields.
type AssetService interface {
	// Save stores an asset. A zero ID is assigned.
	Save(ctx context.Context, asset *domain.Asset) error

	// Get retrieves an asset by ID.
	Get(ctx context.Context, id int64) (*domain.Asset, error)

	// List returns the assets matching the query, ascending by ID.
	List(ctx context.Context, query domain.AssetQuery) ([]domain.Asset, error)

	// Lookup finds the asset stored under a URL or path.
	Lookup(ctx context.Context, location string) (*domain.Asset, error)

	// SetAttribute updates one attribution field.
	SetAttribute(ctx context.Context, id int64, key, value string) error

	// Delete removes an asset and its usage record.
	Delete(ctx context.Context, id int64) error
}
