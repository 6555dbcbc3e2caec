package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
	"github.com/custodia-labs/sourcemark/internal/logger"
)

// Ensure ContentBatchIndexer implements the interface.
var _ driving.ContentBatchService = (*ContentBatchIndexer)(nil)

// errInvalidItem is reported for batch items without an id or url.
var errInvalidItem = errors.New("missing id or url")

// ContentBatchIndexer indexes published documents from their rendered
// form, one fetch per item.
type ContentBatchIndexer struct {
	content driven.ContentStore
	fetcher driven.Fetcher
	indexer driving.IndexService
	batch   domain.BatchSettings
}

// NewContentBatchIndexer creates a content batch indexer.
func NewContentBatchIndexer(
	content driven.ContentStore,
	fetcher driven.Fetcher,
	indexer driving.IndexService,
	batch domain.BatchSettings,
) *ContentBatchIndexer {
	return &ContentBatchIndexer{
		content: content,
		fetcher: fetcher,
		indexer: indexer,
		batch:   normaliseBatch(batch),
	}
}

// publishedFilter selects the documents a sweep fetches.
func publishedFilter() domain.ContentFilter {
	return domain.ContentFilter{Statuses: []domain.ContentStatus{domain.StatusPublish}}
}

// GetAllContentURLs returns one page of published documents. The page is
// complete once its next offset reaches the total.
func (b *ContentBatchIndexer) GetAllContentURLs(ctx context.Context, offset, limit int) (domain.ContentURLPage, error) {
	if offset < 0 {
		offset = 0
	}
	limit = b.batch.Clamp(limit)

	total, err := b.content.CountContent(ctx, publishedFilter())
	if err != nil {
		return domain.ContentURLPage{}, fmt.Errorf("count content: %w", err)
	}

	filter := publishedFilter()
	filter.Offset = offset
	filter.Limit = limit
	docs, err := b.content.QueryContent(ctx, filter)
	if err != nil {
		return domain.ContentURLPage{}, fmt.Errorf("query content: %w", err)
	}

	page := domain.ContentURLPage{
		Items:  make([]domain.ContentURL, 0, len(docs)),
		Offset: offset,
		Total:  total,
	}
	for _, doc := range docs {
		page.Items = append(page.Items, domain.ContentURL{ID: doc.ID, URL: doc.URL})
	}

	page.NextOffset = offset + len(docs)
	page.Complete = page.NextOffset >= total
	if total > 0 {
		page.Percentage = min(100, float64(page.NextOffset)*100/float64(total))
	} else {
		page.Percentage = 100
	}
	return page, nil
}

// IndexBatch fetches and reindexes each item in order. Failures are
// reported per item and never stop the batch.
func (b *ContentBatchIndexer) IndexBatch(ctx context.Context, items []domain.ContentURL) []domain.IndexItemResult {
	results := make([]domain.IndexItemResult, 0, len(items))
	for _, item := range items {
		results = append(results, b.indexItem(ctx, item))
	}
	return results
}

func (b *ContentBatchIndexer) indexItem(ctx context.Context, item domain.ContentURL) domain.IndexItemResult {
	if item.ID <= 0 || strings.TrimSpace(item.URL) == "" {
		return domain.IndexItemResult{ID: 0, URL: item.URL, Error: errInvalidItem.Error()}
	}

	result := domain.IndexItemResult{ID: item.ID, URL: item.URL}
	if b.fetcher == nil {
		result.Error = fmt.Sprintf("fetch %s: no fetcher configured", item.URL)
		return result
	}

	body, err := b.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		result.Error = err.Error()
		logger.Debug("content batch: %d: %v", item.ID, err)
		return result
	}
	if strings.TrimSpace(body) == "" {
		result.Error = fmt.Sprintf("fetch %s: %v", item.URL, domain.ErrEmptyResponse)
		return result
	}

	reindexed, err := b.indexer.Reindex(ctx, item.ID, body, domain.ReindexOptions{Refresh: true})
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Count = len(reindexed.Entries)
	return result
}
