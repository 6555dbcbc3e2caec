package driven

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// IndexStore persists the forward (content to assets) and reverse (asset to
// content) indexes.
type IndexStore interface {
	// GetForward returns the forward entry of a document.
	// Returns nil and no error if the document has no entry.
	GetForward(ctx context.Context, contentID int64) (domain.ForwardIndex, error)

	// GetReverse returns the IDs of documents referencing an asset,
	// ascending.
	GetReverse(ctx context.Context, assetID int64) ([]int64, error)

	// Apply replaces the forward entry of a document and applies delta to
	// the reverse index as set operations, atomically. On error the
	// previous state is kept.
	Apply(ctx context.Context, contentID int64, entries domain.ForwardIndex, delta domain.IndexDelta) error

	// Remove drops the forward entry of a document and every reverse
	// membership it holds, atomically.
	Remove(ctx context.Context, contentID int64) error

	// IndexedContentIDs returns every document with a forward entry,
	// ascending.
	IndexedContentIDs(ctx context.Context) ([]int64, error)
}
