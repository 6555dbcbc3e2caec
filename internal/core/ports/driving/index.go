package driving

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// IndexService keeps the content/asset index current.
type IndexService interface {
	// Reindex rebuilds the forward entry of a document from its body and
	// applies the difference to the reverse index.
	Reindex(ctx context.Context, contentID int64, body string, opts domain.ReindexOptions) (domain.ReindexResult, error)

	// Remove drops a document from both directions of the index.
	Remove(ctx context.Context, contentID int64) error
}

// ContentService manages content documents and answers index lookups.
type ContentService interface {
	// Save stores a document and reindexes it.
	Save(ctx context.Context, doc *domain.ContentDocument) (domain.ReindexResult, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id int64) (*domain.ContentDocument, error)

	// List returns documents matching the filter.
	List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentDocument, error)

	// Trash marks a document as trashed and removes it from the index.
	Trash(ctx context.Context, id int64) error

	// Delete removes a document and its index entries.
	Delete(ctx context.Context, id int64) error

	// AssetsOf returns the assets a document references.
	AssetsOf(ctx context.Context, contentID int64) (domain.ForwardIndex, error)

	// DocumentsOf returns the documents referencing an asset.
	DocumentsOf(ctx context.Context, assetID int64) ([]int64, error)
}
