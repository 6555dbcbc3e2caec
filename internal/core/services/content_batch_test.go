package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// mockFetcher serves canned bodies by URL.
type mockFetcher struct {
	pages map[string]string
	calls []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) (string, error) {
	m.calls = append(m.calls, url)
	body, ok := m.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: status 404: %w", url, domain.ErrFetchFailed)
	}
	return body, nil
}

func TestContentBatch_PagesPublishedOnly(t *testing.T) {
	f := newFixture(t)
	for i := range 25 {
		f.addContent(t, domain.ContentDocument{URL: fmt.Sprintf("https://site/%d", i)})
	}
	f.addContent(t, domain.ContentDocument{URL: "https://site/draft", Status: domain.StatusDraft})
	b := NewContentBatchIndexer(f.content, nil, f.indexer, f.settings.Batch)

	page, err := b.GetAllContentURLs(f.ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 10, page.NextOffset)
	assert.InDelta(t, 40.0, page.Percentage, 0.001)
	assert.False(t, page.Complete)

	page, err = b.GetAllContentURLs(f.ctx, 20, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 25, page.NextOffset)
	assert.InDelta(t, 100.0, page.Percentage, 0.001)
	assert.True(t, page.Complete)
	for _, item := range page.Items {
		assert.NotEqual(t, "https://site/draft", item.URL)
	}
}

func TestContentBatch_EmptyStore(t *testing.T) {
	f := newFixture(t)
	b := NewContentBatchIndexer(f.content, nil, f.indexer, f.settings.Batch)

	page, err := b.GetAllContentURLs(f.ctx, -1, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Offset)
	assert.True(t, page.Complete)
	assert.InDelta(t, 100.0, page.Percentage, 0.001)
}

func TestContentBatch_IndexBatch(t *testing.T) {
	f := newFixture(t)
	a := f.addAsset(t, jane())
	doc := f.addContent(t, domain.ContentDocument{URL: "https://site/ok"})
	fetcher := &mockFetcher{pages: map[string]string{
		"https://site/ok":    `<html><body><img src="/uploads/a.jpg"></body></html>`,
		"https://site/blank": "  \n",
	}}
	b := NewContentBatchIndexer(f.content, fetcher, f.indexer, f.settings.Batch)

	results := b.IndexBatch(f.ctx, []domain.ContentURL{
		{ID: doc, URL: "https://site/ok"},
		{ID: 0, URL: "https://site/ok"},
		{ID: 7, URL: ""},
		{ID: 8, URL: "https://site/missing"},
		{ID: 9, URL: "https://site/blank"},
	})
	require.Len(t, results, 5)

	assert.Equal(t, domain.IndexItemResult{ID: doc, URL: "https://site/ok", Count: 1}, results[0])
	assert.Zero(t, results[1].ID)
	assert.Equal(t, "missing id or url", results[1].Error)
	assert.Zero(t, results[2].ID)
	assert.Equal(t, int64(8), results[3].ID)
	assert.Contains(t, results[3].Error, "fetch failed")
	assert.Contains(t, results[4].Error, "empty response")

	docs, err := f.index.GetReverse(f.ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []int64{doc}, docs)
	assert.Equal(t, []string{"https://site/ok", "https://site/missing", "https://site/blank"}, fetcher.calls)
}

func TestContentBatch_RefreshesStaleEntries(t *testing.T) {
	f := newFixture(t)
	a := f.addAsset(t, jane())
	b := f.addAsset(t, domain.Asset{Location: "/uploads/b.jpg"})
	doc := f.addContent(t, domain.ContentDocument{URL: "https://site/p"})
	_, err := f.indexer.Reindex(f.ctx, doc, `<img src="/uploads/a.jpg">`, domain.ReindexOptions{})
	require.NoError(t, err)

	fetcher := &mockFetcher{pages: map[string]string{"https://site/p": `<img src="/uploads/b.jpg">`}}
	batch := NewContentBatchIndexer(f.content, fetcher, f.indexer, f.settings.Batch)
	results := batch.IndexBatch(f.ctx, []domain.ContentURL{{ID: doc, URL: "https://site/p"}})
	require.Empty(t, results[0].Error)

	forward, err := f.index.GetForward(f.ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, []int64{b}, forward.AssetIDs())
	assert.False(t, forward.Contains(a))
}

func TestContentBatch_NoFetcher(t *testing.T) {
	f := newFixture(t)
	b := NewContentBatchIndexer(f.content, nil, f.indexer, f.settings.Batch)

	results := b.IndexBatch(f.ctx, []domain.ContentURL{{ID: 1, URL: "https://site/a"}})
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "no fetcher")
}
