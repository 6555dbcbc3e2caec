package httpapi

import (
	"context"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/outbuf"
)

// mockAssetService is a mock implementation of driving.AssetService.
type mockAssetService struct {
	asset   *domain.Asset
	assets  []domain.Asset
	saved   *domain.Asset
	query   domain.AssetQuery
	deleted int64
	err     error
}

func (m *mockAssetService) Save(_ context.Context, asset *domain.Asset) error {
	if m.err != nil {
		return m.err
	}
	asset.ID = 7
	m.saved = asset
	return nil
}

func (m *mockAssetService) Get(_ context.Context, _ int64) (*domain.Asset, error) {
	return m.asset, m.err
}

func (m *mockAssetService) List(_ context.Context, query domain.AssetQuery) ([]domain.Asset, error) {
	m.query = query
	return m.assets, m.err
}

func (m *mockAssetService) Lookup(_ context.Context, _ string) (*domain.Asset, error) {
	return m.asset, m.err
}

func (m *mockAssetService) SetAttribute(_ context.Context, _ int64, _, _ string) error {
	return m.err
}

func (m *mockAssetService) Delete(_ context.Context, id int64) error {
	m.deleted = id
	return m.err
}

// mockContentService is a mock implementation of driving.ContentService.
type mockContentService struct {
	doc     *domain.ContentDocument
	saved   *domain.ContentDocument
	result  domain.ReindexResult
	entries domain.ForwardIndex
	docs    []int64
	trashed int64
	deleted int64
	err     error
}

func (m *mockContentService) Save(_ context.Context, doc *domain.ContentDocument) (domain.ReindexResult, error) {
	if m.err != nil {
		return domain.ReindexResult{}, m.err
	}
	if doc.ID == 0 {
		doc.ID = 11
	}
	m.saved = doc
	m.result.ContentID = doc.ID
	return m.result, nil
}

func (m *mockContentService) Get(_ context.Context, _ int64) (*domain.ContentDocument, error) {
	return m.doc, m.err
}

func (m *mockContentService) List(_ context.Context, _ domain.ContentFilter) ([]domain.ContentDocument, error) {
	if m.doc == nil {
		return nil, m.err
	}
	return []domain.ContentDocument{*m.doc}, m.err
}

func (m *mockContentService) Trash(_ context.Context, id int64) error {
	m.trashed = id
	return m.err
}

func (m *mockContentService) Delete(_ context.Context, id int64) error {
	m.deleted = id
	return m.err
}

func (m *mockContentService) AssetsOf(_ context.Context, _ int64) (domain.ForwardIndex, error) {
	return m.entries, m.err
}

func (m *mockContentService) DocumentsOf(_ context.Context, _ int64) ([]int64, error) {
	return m.docs, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	reindexed []int64
	err       error
}

func (m *mockIndexService) Reindex(
	_ context.Context,
	contentID int64,
	_ string,
	_ domain.ReindexOptions,
) (domain.ReindexResult, error) {
	m.reindexed = append(m.reindexed, contentID)
	return domain.ReindexResult{ContentID: contentID}, m.err
}

func (m *mockIndexService) Remove(_ context.Context, _ int64) error {
	return m.err
}

// mockUsageService is a mock implementation of driving.UsageService.
type mockUsageService struct {
	batch       []int64
	total       int
	run         domain.BatchRun
	ranIDs      []int64
	status      domain.UsageStatus
	record      *domain.UsageRecord
	summary     domain.UsageSummary
	gotSize     int
	gotOffset   int
	onlyMissing bool
	err         error
}

func (m *mockUsageService) Scan(_ context.Context, assetID int64) domain.ScanResult {
	return domain.ScanResult{AssetID: assetID, Success: m.err == nil}
}

func (m *mockUsageService) GetBatch(_ context.Context, size, offset int, onlyMissing bool, _ []int64) ([]int64, error) {
	m.gotSize, m.gotOffset, m.onlyMissing = size, offset, onlyMissing
	return m.batch, m.err
}

func (m *mockUsageService) RunBatch(_ context.Context, ids []int64) domain.BatchRun {
	m.ranIDs = ids
	return m.run
}

func (m *mockUsageService) TotalCount(_ context.Context, _ bool) (int, error) {
	return m.total, m.err
}

func (m *mockUsageService) Status(_ context.Context, _ int64) (domain.UsageStatus, *domain.UsageRecord, error) {
	return m.status, m.record, m.err
}

func (m *mockUsageService) Summary(_ context.Context) (domain.UsageSummary, error) {
	return m.summary, m.err
}

// mockContentBatchService is a mock implementation of driving.ContentBatchService.
type mockContentBatchService struct {
	page    domain.ContentURLPage
	results []domain.IndexItemResult
	items   []domain.ContentURL
	err     error
}

func (m *mockContentBatchService) GetAllContentURLs(_ context.Context, offset, _ int) (domain.ContentURLPage, error) {
	m.page.Offset = offset
	return m.page, m.err
}

func (m *mockContentBatchService) IndexBatch(_ context.Context, items []domain.ContentURL) []domain.IndexItemResult {
	m.items = items
	return m.results
}

// mockOverlayService marks rewritten markup so tests can see which path ran.
type mockOverlayService struct {
	closeLayer bool
}

func (m *mockOverlayService) Inject(_ context.Context, doc string) string {
	return strings.ReplaceAll(doc, "<img", "<span class=\"credits-wrap\"><img")
}

func (m *mockOverlayService) InjectPage(_ context.Context, doc string) string {
	return "<!-- page -->" + doc
}

func (m *mockOverlayService) BeginPage(stack *outbuf.Stack) *outbuf.Layer {
	return stack.Push(nil)
}

func (m *mockOverlayService) EndPage(ctx context.Context, stack *outbuf.Stack, layer *outbuf.Layer) error {
	if m.closeLayer {
		// Someone else closed it first.
		if _, err := stack.Close(layer); err != nil {
			return err
		}
	}
	content, err := stack.Close(layer)
	if err != nil {
		return err
	}
	_, err = stack.WriteString(m.InjectPage(ctx, content))
	return err
}
