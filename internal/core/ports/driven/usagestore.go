package driven

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// UsageStore persists one usage scan record per asset.
type UsageStore interface {
	// GetRecord retrieves the record of an asset.
	// Returns nil and no error if the asset was never scanned.
	GetRecord(ctx context.Context, assetID int64) (*domain.UsageRecord, error)

	// SaveRecord creates or overwrites the record of an asset.
	SaveRecord(ctx context.Context, record *domain.UsageRecord) error

	// DeleteRecord removes the record of an asset.
	DeleteRecord(ctx context.Context, assetID int64) error

	// ScannedIDs returns the IDs of every asset with a record, ascending.
	ScannedIDs(ctx context.Context) ([]int64, error)
}
