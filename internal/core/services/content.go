package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
)

// Ensure ContentService implements the interface.
var _ driving.ContentService = (*ContentService)(nil)

// ContentService stores content documents and keeps them indexed.
type ContentService struct {
	content    driven.ContentStore
	index      driven.IndexStore
	attributes driven.AttributeStore
	indexer    driving.IndexService
}

// NewContentService creates a content service. The attribute store may be
// nil; when set, a document's attributes are dropped with it.
func NewContentService(
	content driven.ContentStore,
	index driven.IndexStore,
	attributes driven.AttributeStore,
	indexer driving.IndexService,
) *ContentService {
	return &ContentService{
		content:    content,
		index:      index,
		attributes: attributes,
		indexer:    indexer,
	}
}

// Save stores a document and reindexes its body. Trashed documents are
// removed from the index instead.
func (s *ContentService) Save(ctx context.Context, doc *domain.ContentDocument) (domain.ReindexResult, error) {
	if doc == nil {
		return domain.ReindexResult{}, fmt.Errorf("save content: %w", domain.ErrInvalidInput)
	}
	if doc.Status == "" {
		doc.Status = domain.StatusDraft
	}
	if !doc.Status.IsValid() {
		return domain.ReindexResult{}, fmt.Errorf("status %q: %w", doc.Status, domain.ErrInvalidInput)
	}
	if err := s.content.SaveContent(ctx, doc); err != nil {
		return domain.ReindexResult{}, fmt.Errorf("save content: %w", err)
	}

	if doc.Status == domain.StatusTrash {
		return domain.ReindexResult{ContentID: doc.ID}, s.indexer.Remove(ctx, doc.ID)
	}
	return s.indexer.Reindex(ctx, doc.ID, doc.Body, domain.ReindexOptions{Refresh: true})
}

// Get retrieves a document by ID.
func (s *ContentService) Get(ctx context.Context, id int64) (*domain.ContentDocument, error) {
	return s.content.GetContent(ctx, id)
}

// List returns documents matching the filter.
func (s *ContentService) List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentDocument, error) {
	return s.content.QueryContent(ctx, filter)
}

// Trash marks a document as trashed and removes it from the index.
func (s *ContentService) Trash(ctx context.Context, id int64) error {
	doc, err := s.content.GetContent(ctx, id)
	if err != nil {
		return fmt.Errorf("trash content %d: %w", id, err)
	}
	doc.Status = domain.StatusTrash
	if err := s.content.SaveContent(ctx, doc); err != nil {
		return fmt.Errorf("trash content %d: %w", id, err)
	}
	return s.indexer.Remove(ctx, id)
}

// Delete removes a document, its index entries and its attributes.
func (s *ContentService) Delete(ctx context.Context, id int64) error {
	if err := s.indexer.Remove(ctx, id); err != nil {
		return err
	}
	if s.attributes != nil {
		if err := s.attributes.DeleteAttributes(ctx, id); err != nil {
			return fmt.Errorf("delete attributes of %d: %w", id, err)
		}
	}
	if err := s.content.DeleteContent(ctx, id); err != nil {
		return fmt.Errorf("delete content %d: %w", id, err)
	}
	return nil
}

// AssetsOf returns the assets a document references.
func (s *ContentService) AssetsOf(ctx context.Context, contentID int64) (domain.ForwardIndex, error) {
	return s.index.GetForward(ctx, contentID)
}

// DocumentsOf returns the documents referencing an asset.
func (s *ContentService) DocumentsOf(ctx context.Context, assetID int64) ([]int64, error) {
	return s.index.GetReverse(ctx, assetID)
}
