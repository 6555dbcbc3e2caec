package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

func TestContentService_SaveIndexes(t *testing.T) {
	f := newFixture(t)
	a := f.addAsset(t, jane())
	svc := f.contentService()

	doc := &domain.ContentDocument{Title: "Post", Body: `<img src="/uploads/a.jpg">`}
	res, err := svc.Save(f.ctx, doc)
	require.NoError(t, err)

	assert.Positive(t, doc.ID)
	assert.Equal(t, domain.StatusDraft, doc.Status)
	assert.Equal(t, []int64{a}, res.Added)

	docs, err := svc.DocumentsOf(f.ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []int64{doc.ID}, docs)

	doc.Body = "no images"
	res, err = svc.Save(f.ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, []int64{a}, res.Removed)

	forward, err := svc.AssetsOf(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, forward)
}

func TestContentService_SaveRejectsInvalid(t *testing.T) {
	f := newFixture(t)
	svc := f.contentService()

	_, err := svc.Save(f.ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Save(f.ctx, &domain.ContentDocument{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestContentService_TrashRemovesFromIndex(t *testing.T) {
	f := newFixture(t)
	a := f.addAsset(t, jane())
	svc := f.contentService()

	doc := &domain.ContentDocument{Body: `<img src="/uploads/a.jpg">`, Status: domain.StatusPublish}
	_, err := svc.Save(f.ctx, doc)
	require.NoError(t, err)

	require.NoError(t, svc.Trash(f.ctx, doc.ID))

	stored, err := svc.Get(f.ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTrash, stored.Status)
	docs, err := svc.DocumentsOf(f.ctx, a)
	require.NoError(t, err)
	assert.Empty(t, docs)

	assert.ErrorIs(t, svc.Trash(f.ctx, 404), domain.ErrNotFound)
}

func TestContentService_SaveTrashedSkipsIndex(t *testing.T) {
	f := newFixture(t)
	f.addAsset(t, jane())
	svc := f.contentService()

	doc := &domain.ContentDocument{Body: `<img src="/uploads/a.jpg">`, Status: domain.StatusTrash}
	res, err := svc.Save(f.ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, res.Entries)

	ids, err := f.index.IndexedContentIDs(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestContentService_Delete(t *testing.T) {
	f := newFixture(t)
	a := f.addAsset(t, jane())
	svc := f.contentService()

	doc := &domain.ContentDocument{Body: `<img src="/uploads/a.jpg">`, Status: domain.StatusPublish}
	_, err := svc.Save(f.ctx, doc)
	require.NoError(t, err)
	require.NoError(t, f.attributes.SetAttribute(f.ctx, doc.ID, "hero", a))

	require.NoError(t, svc.Delete(f.ctx, doc.ID))

	_, err = svc.Get(f.ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.attributes.GetAttribute(f.ctx, doc.ID, "hero")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	docs, err := svc.DocumentsOf(f.ctx, a)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestContentService_List(t *testing.T) {
	f := newFixture(t)
	svc := f.contentService()
	f.addContent(t, domain.ContentDocument{Type: "post"})
	f.addContent(t, domain.ContentDocument{Type: "page"})
	f.addContent(t, domain.ContentDocument{Type: "post", Status: domain.StatusDraft})

	docs, err := svc.List(f.ctx, domain.ContentFilter{
		Statuses: []domain.ContentStatus{domain.StatusPublish},
		Types:    []string{"post"},
	})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
