package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
)

// Ensure ContentStore implements the interface.
var _ driven.ContentStore = (*ContentStore)(nil)

// ContentStore is an in-memory implementation of driven.ContentStore.
type ContentStore struct {
	mu     sync.RWMutex
	docs   map[int64]domain.ContentDocument
	nextID int64
}

// NewContentStore creates a new in-memory content store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		docs:   make(map[int64]domain.ContentDocument),
		nextID: 1,
	}
}

// SaveContent stores or updates a document. A zero ID is assigned.
func (s *ContentStore) SaveContent(_ context.Context, doc *domain.ContentDocument) error {
	if doc.ID < 0 {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == 0 {
		doc.ID = s.nextID
	}
	if doc.ID >= s.nextID {
		s.nextID = doc.ID + 1
	}
	s.docs[doc.ID] = *doc
	return nil
}

// GetContent retrieves a document by ID.
func (s *ContentStore) GetContent(_ context.Context, id int64) (*domain.ContentDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// DeleteContent removes a document.
func (s *ContentStore) DeleteContent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// QueryContent returns documents matching the filter, ascending by ID.
func (s *ContentStore) QueryContent(_ context.Context, filter domain.ContentFilter) ([]domain.ContentDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.matching(filter)
	return page(matched, filter.Offset, filter.Limit), nil
}

// CountContent returns how many documents match the filter.
func (s *ContentStore) CountContent(_ context.Context, filter domain.ContentFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(filter)), nil
}

// SearchBody returns non-trashed documents whose body contains a needle.
func (s *ContentStore) SearchBody(_ context.Context, needles []string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, id := range sortedIDs(s.docs) {
		doc := s.docs[id]
		if doc.Status == domain.StatusTrash {
			continue
		}
		for _, n := range needles {
			if n != "" && strings.Contains(doc.Body, n) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

// matching returns filtered documents in ID order (caller must hold lock).
func (s *ContentStore) matching(filter domain.ContentFilter) []domain.ContentDocument {
	var result []domain.ContentDocument
	for _, id := range sortedIDs(s.docs) {
		doc := s.docs[id]
		if filter.Matches(&doc) {
			result = append(result, doc)
		}
	}
	return result
}
