package mcp

import (
	"context"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/outbuf"
)

// mockContentService is a mock implementation of driving.ContentService.
type mockContentService struct {
	doc     *domain.ContentDocument
	entries domain.ForwardIndex
	docs    []int64
	err     error
}

func (m *mockContentService) Save(_ context.Context, doc *domain.ContentDocument) (domain.ReindexResult, error) {
	return domain.ReindexResult{ContentID: doc.ID}, m.err
}

func (m *mockContentService) Get(_ context.Context, _ int64) (*domain.ContentDocument, error) {
	return m.doc, m.err
}

func (m *mockContentService) List(_ context.Context, _ domain.ContentFilter) ([]domain.ContentDocument, error) {
	return nil, m.err
}

func (m *mockContentService) Trash(_ context.Context, _ int64) error {
	return m.err
}

func (m *mockContentService) Delete(_ context.Context, _ int64) error {
	return m.err
}

func (m *mockContentService) AssetsOf(_ context.Context, _ int64) (domain.ForwardIndex, error) {
	return m.entries, m.err
}

func (m *mockContentService) DocumentsOf(_ context.Context, _ int64) ([]int64, error) {
	return m.docs, m.err
}

// mockUsageService is a mock implementation of driving.UsageService.
type mockUsageService struct {
	batch     []int64
	total     int
	run       domain.BatchRun
	status    domain.UsageStatus
	record    *domain.UsageRecord
	summary   domain.UsageSummary
	gotSize   int
	processed []int64
	err       error
}

func (m *mockUsageService) Scan(_ context.Context, assetID int64) domain.ScanResult {
	return domain.ScanResult{AssetID: assetID, Success: m.err == nil}
}

func (m *mockUsageService) GetBatch(_ context.Context, size, _ int, _ bool, processed []int64) ([]int64, error) {
	m.gotSize = size
	m.processed = processed
	return m.batch, m.err
}

func (m *mockUsageService) RunBatch(_ context.Context, _ []int64) domain.BatchRun {
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

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	gotBody string
	gotOpts domain.ReindexOptions
	result  domain.ReindexResult
	err     error
}

func (m *mockIndexService) Reindex(
	_ context.Context,
	contentID int64,
	body string,
	opts domain.ReindexOptions,
) (domain.ReindexResult, error) {
	m.gotBody = body
	m.gotOpts = opts
	m.result.ContentID = contentID
	return m.result, m.err
}

func (m *mockIndexService) Remove(_ context.Context, _ int64) error {
	return m.err
}

// mockAssetService is a mock implementation of driving.AssetService.
type mockAssetService struct {
	asset *domain.Asset
	err   error
}

func (m *mockAssetService) Save(_ context.Context, _ *domain.Asset) error {
	return m.err
}

func (m *mockAssetService) Get(_ context.Context, _ int64) (*domain.Asset, error) {
	return m.asset, m.err
}

func (m *mockAssetService) List(_ context.Context, _ domain.AssetQuery) ([]domain.Asset, error) {
	return nil, m.err
}

func (m *mockAssetService) Lookup(_ context.Context, _ string) (*domain.Asset, error) {
	return m.asset, m.err
}

func (m *mockAssetService) SetAttribute(_ context.Context, _ int64, _, _ string) error {
	return m.err
}

func (m *mockAssetService) Delete(_ context.Context, _ int64) error {
	return m.err
}

// mockOverlayService is a mock implementation of driving.OverlayService.
type mockOverlayService struct{}

func (m *mockOverlayService) Inject(_ context.Context, doc string) string {
	return "<inline>" + doc
}

func (m *mockOverlayService) InjectPage(_ context.Context, doc string) string {
	return "<page>" + doc
}

func (m *mockOverlayService) BeginPage(stack *outbuf.Stack) *outbuf.Layer {
	return stack.Push(nil)
}

func (m *mockOverlayService) EndPage(_ context.Context, stack *outbuf.Stack, layer *outbuf.Layer) error {
	_, err := stack.Close(layer)
	return err
}

func minimalPorts() *Ports {
	return &Ports{
		Content: &mockContentService{},
		Usage:   &mockUsageService{},
	}
}
