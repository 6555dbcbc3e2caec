package driving

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// UsageService finds where assets are referenced, in caller-driven batches.
type UsageService interface {
	// Scan searches every store for references to one asset and records
	// the result.
	Scan(ctx context.Context, assetID int64) domain.ScanResult

	// GetBatch returns the next asset IDs to scan.
	GetBatch(ctx context.Context, size, offset int, onlyMissing bool, processed []int64) ([]int64, error)

	// RunBatch scans ids sequentially and suggests the next batch size.
	RunBatch(ctx context.Context, ids []int64) domain.BatchRun

	// TotalCount returns how many assets a full pass covers.
	TotalCount(ctx context.Context, onlyMissing bool) (int, error)

	// Status classifies one asset from its latest record.
	Status(ctx context.Context, assetID int64) (domain.UsageStatus, *domain.UsageRecord, error)

	// Summary counts every asset by status.
	Summary(ctx context.Context) (domain.UsageSummary, error)
}

// ContentBatchService indexes published documents from their rendered form.
type ContentBatchService interface {
	// GetAllContentURLs returns one page of published documents.
	GetAllContentURLs(ctx context.Context, offset, limit int) (domain.ContentURLPage, error)

	// IndexBatch fetches and reindexes each item.
	IndexBatch(ctx context.Context, items []domain.ContentURL) []domain.IndexItemResult
}
