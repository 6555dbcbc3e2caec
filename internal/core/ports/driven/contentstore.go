package driven

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// ContentStore persists content documents.
type ContentStore interface {
	// SaveContent stores or updates a document.
	SaveContent(ctx context.Context, doc *domain.ContentDocument) error

	// GetContent retrieves a document by ID.
	// Returns domain.ErrNotFound if the document does not exist.
	GetContent(ctx context.Context, id int64) (*domain.ContentDocument, error)

	// DeleteContent removes a document.
	DeleteContent(ctx context.Context, id int64) error

	// QueryContent returns documents matching the filter, ascending by ID.
	QueryContent(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentDocument, error)

	// CountContent returns how many documents match the filter, ignoring
	// its Offset and Limit.
	CountContent(ctx context.Context, filter domain.ContentFilter) (int, error)

	// SearchBody returns the IDs of non-trashed documents whose body
	// contains any of the needles, ascending.
	SearchBody(ctx context.Context, needles []string) ([]int64, error)
}
