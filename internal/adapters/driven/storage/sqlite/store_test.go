package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/location"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func saveAsset(t *testing.T, store *Store, asset domain.Asset) int64 {
	t.Helper()
	require.NoError(t, store.AssetStore().SaveAsset(context.Background(), &asset))
	return asset.ID
}

func saveContent(t *testing.T, store *Store, doc domain.ContentDocument) int64 {
	t.Helper()
	require.NoError(t, store.ContentStore().SaveContent(context.Background(), &doc))
	return doc.ID
}

// ==================== Store Lifecycle ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Contains(t, store.Path(), dir)
	assert.Contains(t, store.Path(), dbFile)
}

func TestNewStore_ReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	id := saveAsset(t, store, domain.Asset{Location: "/uploads/a.jpg", SourceText: "Jane"})
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	asset, err := reopened.AssetStore().GetAsset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", asset.SourceText)

	var versions int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
}

// ==================== AssetStore ====================

func TestAssetStore_SaveAssignsIDAndDerivesExtension(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	first := saveAsset(t, store, domain.Asset{
		Location:   "/uploads/2024/03/Photo.JPG",
		SourceText: "Jane",
		SourceURL:  "https://jane.example",
		License:    "CC0",
		UploaderID: 7,
		CreatedAt:  created,
	})
	second := saveAsset(t, store, domain.Asset{Location: "/uploads/b.png"})
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	asset, err := store.AssetStore().GetAsset(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "jpg", asset.Extension)
	assert.Equal(t, "https://jane.example", asset.SourceURL)
	assert.Equal(t, "CC0", asset.License)
	assert.Equal(t, int64(7), asset.UploaderID)
	assert.True(t, created.Equal(asset.CreatedAt))
}

func TestAssetStore_SaveWithIDUpserts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	assets := store.AssetStore()

	require.NoError(t, assets.SaveAsset(ctx, &domain.Asset{ID: 40, Location: "/uploads/a.jpg"}))
	require.NoError(t, assets.SaveAsset(ctx, &domain.Asset{ID: 40, Location: "/uploads/a.jpg", HideAttribution: true}))

	asset, err := assets.GetAsset(ctx, 40)
	require.NoError(t, err)
	assert.True(t, asset.HideAttribution)

	n, err := assets.CountAssets(ctx, domain.AssetQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAssetStore_SaveRejectsInvalid(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.AssetStore().SaveAsset(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.AssetStore().SaveAsset(ctx, &domain.Asset{ID: -1}), domain.ErrInvalidInput)
}

func TestAssetStore_GetAndDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.AssetStore().GetAsset(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	id := saveAsset(t, store, domain.Asset{Location: "/uploads/a.jpg"})
	require.NoError(t, store.AssetStore().DeleteAsset(ctx, id))
	_, err = store.AssetStore().GetAsset(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssetStore_FindByLocation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	assets := store.AssetStore()

	photo := saveAsset(t, store, domain.Asset{Location: "/uploads/photo.jpg"})
	saveAsset(t, store, domain.Asset{Location: "/uploads/photo.jpg"})
	cafe := saveAsset(t, store, domain.Asset{Location: "/uploads/café.jpg"})

	tests := []struct {
		name string
		key  string
		want int64
	}{
		{"exact key picks lowest id", location.Key("/uploads/photo.jpg"), photo},
		{"size variant", location.Key("https://cdn.example/uploads/photo-300x200.jpg"), photo},
		{"exact non-ascii key", location.Key("/uploads/café.jpg"), cafe},
		{"folded key", "cafe.jpg", cafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := assets.FindByLocation(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := assets.FindByLocation(ctx, location.Key("/uploads/missing.jpg"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = assets.FindByLocation(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssetStore_Attributes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	assets := store.AssetStore()

	id := saveAsset(t, store, domain.Asset{Location: "/uploads/a.jpg"})
	require.NoError(t, assets.SetAttribute(ctx, id, domain.AttrSourceText, "Jane"))
	require.NoError(t, assets.SetAttribute(ctx, id, domain.AttrHideOverlay, "1"))

	text, err := assets.GetAttribute(ctx, id, domain.AttrSourceText)
	require.NoError(t, err)
	assert.Equal(t, "Jane", text)

	asset, err := assets.GetAsset(ctx, id)
	require.NoError(t, err)
	assert.True(t, asset.HideAttribution)

	assert.ErrorIs(t, assets.SetAttribute(ctx, 99, domain.AttrSourceText, "x"), domain.ErrNotFound)
	assert.Error(t, assets.SetAttribute(ctx, id, "colour", "red"))
}

func TestAssetStore_ListAndCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	assets := store.AssetStore()

	for _, loc := range []string{"/a.jpg", "/b.png", "/c.jpg", "/d.pdf", "/e.jpg"} {
		saveAsset(t, store, domain.Asset{Location: loc})
	}

	ids, err := assets.ListAssetIDs(ctx, domain.AssetQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)

	ids, err = assets.ListAssetIDs(ctx, domain.AssetQuery{
		ExcludeIDs: []int64{1},
		Extensions: []string{"jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, ids)

	ids, err = assets.ListAssetIDs(ctx, domain.AssetQuery{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids)

	n, err := assets.CountAssets(ctx, domain.AssetQuery{ExcludeIDs: []int64{2, 4}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// ==================== ContentStore ====================

func TestContentStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	updated := time.Date(2024, 5, 2, 8, 0, 0, 123, time.UTC)
	id := saveContent(t, store, domain.ContentDocument{
		Title:        "Hello",
		Body:         `<img src="/uploads/a.jpg">`,
		Status:       domain.StatusPublish,
		Type:         "post",
		URL:          "https://site.example/hello",
		CoverAssetID: 3,
		UpdatedAt:    updated,
	})

	doc, err := store.ContentStore().GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Title)
	assert.Equal(t, domain.StatusPublish, doc.Status)
	assert.Equal(t, int64(3), doc.CoverAssetID)
	assert.True(t, updated.Equal(doc.UpdatedAt))

	_, err = store.ContentStore().GetContent(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.ContentStore().DeleteContent(ctx, id))
	_, err = store.ContentStore().GetContent(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentStore_QueryAndCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	content := store.ContentStore()

	saveContent(t, store, domain.ContentDocument{Status: domain.StatusPublish, Type: "post"})
	saveContent(t, store, domain.ContentDocument{Status: domain.StatusDraft, Type: "post"})
	saveContent(t, store, domain.ContentDocument{Status: domain.StatusPublish, Type: "page", CoverAssetID: 9})
	saveContent(t, store, domain.ContentDocument{Status: domain.StatusTrash, Type: "page"})

	docs, err := content.QueryContent(ctx, domain.ContentFilter{Statuses: []domain.ContentStatus{domain.StatusPublish}})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(1), docs[0].ID)
	assert.Equal(t, int64(3), docs[1].ID)

	docs, err = content.QueryContent(ctx, domain.ContentFilter{Types: []string{"page"}, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(4), docs[0].ID)

	n, err := content.CountContent(ctx, domain.ContentFilter{CoverAssetID: 9})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = content.CountContent(ctx, domain.ContentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestContentStore_SearchBody(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveContent(t, store, domain.ContentDocument{Status: domain.StatusPublish, Body: `<img class="wp-image-5">`})
	saveContent(t, store, domain.ContentDocument{Status: domain.StatusDraft, Body: `see /uploads/photo.jpg`})
	saveContent(t, store, domain.ContentDocument{Status: domain.StatusTrash, Body: `/uploads/photo.jpg`})
	saveContent(t, store, domain.ContentDocument{Status: domain.StatusPublish, Body: `/uploads/PHOTO.jpg`})

	ids, err := store.ContentStore().SearchBody(ctx, []string{"wp-image-5", "/uploads/photo"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, err = store.ContentStore().SearchBody(ctx, []string{""})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// ==================== Key/Value Stores ====================

func TestAttributeStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	attrs := store.AttributeStore()

	require.NoError(t, attrs.SetAttribute(ctx, 1, "hero", 42))
	require.NoError(t, attrs.SetAttribute(ctx, 1, "gallery", []int64{3, 4}))

	v, err := attrs.GetAttribute(ctx, 1, "hero")
	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), v)

	v, err = attrs.GetAttribute(ctx, 1, "gallery")
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("3"), json.Number("4")}, v)

	_, err = attrs.GetAttribute(ctx, 1, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, attrs.DeleteAttributes(ctx, 1))
	_, err = attrs.GetAttribute(ctx, 1, "hero")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAttributeStore_Search(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	attrs := store.AttributeStore()

	require.NoError(t, attrs.SetAttribute(ctx, 2, "hero", 5))
	require.NoError(t, attrs.SetAttribute(ctx, 1, "gallery", map[string]any{"items": []int{4, 5}}))
	require.NoError(t, attrs.SetAttribute(ctx, 1, "_edit_lock", "5"))
	require.NoError(t, attrs.SetAttribute(ctx, 3, "note", "uses /uploads/photo.jpg"))
	require.NoError(t, attrs.SetAttribute(ctx, 5, "self", "5"))
	require.NoError(t, attrs.SetAttribute(ctx, 4, "other", 55))

	refs, err := attrs.Search(ctx, domain.StoreQuery{
		Equals:   []string{"5"},
		Contains: []string{"/uploads/photo"},
		Denylist: []string{"_edit_lock"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.AttributeRef{
		{ContentID: 1, Key: "gallery"},
		{ContentID: 2, Key: "hero"},
		{ContentID: 3, Key: "note"},
		{ContentID: 5, Key: "self"},
	}, refs)

	refs, err = attrs.Search(ctx, domain.StoreQuery{})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestAttributeStore_SearchEscapedProbe(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	attrs := store.AttributeStore()

	require.NoError(t, attrs.SetAttribute(ctx, 1, "caption", `say "cheese"`))
	require.NoError(t, attrs.SetAttribute(ctx, 2, "caption", "plain"))

	refs, err := attrs.Search(ctx, domain.StoreQuery{Contains: []string{`"cheese"`}})
	require.NoError(t, err)
	assert.Equal(t, []domain.AttributeRef{{ContentID: 1, Key: "caption"}}, refs)
}

func TestUserAttributeStore_Search(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	users := store.UserAttributeStore()

	require.NoError(t, users.SetUserAttribute(ctx, 1, "avatar", "/uploads/me.jpg"))
	require.NoError(t, users.SetUserAttribute(ctx, 1, "session_tokens", "/uploads/me.jpg"))
	require.NoError(t, users.SetUserAttribute(ctx, 2, "avatar", "/uploads/you.jpg"))

	refs, err := users.Search(ctx, domain.StoreQuery{
		Contains: []string{"/uploads/me"},
		Denylist: []string{"session_tokens"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.UserAttributeRef{{UserID: 1, Key: "avatar"}}, refs)
}

func TestSettingsStore_SearchPaths(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	settings := store.SettingsStore()

	require.NoError(t, settings.SetSetting(ctx, "site_logo", map[string]any{
		"image": map[string]any{"id": 7, "alt": "logo"},
	}))
	require.NoError(t, settings.SetSetting(ctx, "hero", 7))
	require.NoError(t, settings.SetSetting(ctx, "_transient_cache", 7))

	refs, err := settings.Search(ctx, domain.StoreQuery{
		Equals:   []string{"7"},
		Denylist: []string{"/^_transient_/"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.SettingRef{
		{Key: "hero", Path: ""},
		{Key: "site_logo", Path: "image.id"},
	}, refs)

	v, err := settings.GetSetting(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, json.Number("7"), v)

	_, err = settings.GetSetting(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEncodeValue_KeepsMarkup(t *testing.T) {
	raw, err := encodeValue(`<img src="/a.jpg">`)
	require.NoError(t, err)
	assert.Equal(t, `"<img src=\"/a.jpg\">"`, raw)
}

func TestPrefilterProbes(t *testing.T) {
	probes, ok := prefilterProbes(domain.StoreQuery{Equals: []string{"5", ""}, Contains: []string{"/a"}})
	assert.True(t, ok)
	assert.Equal(t, []string{"5", "/a"}, probes)

	_, ok = prefilterProbes(domain.StoreQuery{Contains: []string{`a\b`}})
	assert.False(t, ok)

	_, ok = prefilterProbes(domain.StoreQuery{})
	assert.False(t, ok)
}

// ==================== IndexStore ====================

func TestIndexStore_ApplyAndRemove(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	index := store.IndexStore()

	entries := domain.ForwardIndex{
		{AssetID: 3, SourceURL: "/uploads/c.jpg"},
		{AssetID: 1, SourceURL: "/uploads/a.jpg", IsThumbnail: true},
	}
	require.NoError(t, index.Apply(ctx, 10, entries, domain.ForwardIndex(nil).Diff(entries)))
	require.NoError(t, index.Apply(ctx, 11, domain.ForwardIndex{{AssetID: 3}}, domain.IndexDelta{Added: []int64{3}}))

	got, err := index.GetForward(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	reverse, err := index.GetReverse(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, reverse)

	next := domain.ForwardIndex{{AssetID: 1, SourceURL: "/uploads/a.jpg", IsThumbnail: true}}
	require.NoError(t, index.Apply(ctx, 10, next, entries.Diff(next)))

	reverse, err = index.GetReverse(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, reverse)

	ids, err := index.IndexedContentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids)

	require.NoError(t, index.Remove(ctx, 10))
	got, err = index.GetForward(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, got)
	reverse, err = index.GetReverse(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, reverse)
}

func TestIndexStore_ApplyEmptyDropsForward(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	index := store.IndexStore()

	require.NoError(t, index.Apply(ctx, 1, domain.ForwardIndex{{AssetID: 2}}, domain.IndexDelta{Added: []int64{2}}))
	require.NoError(t, index.Apply(ctx, 1, nil, domain.IndexDelta{Removed: []int64{2}}))

	ids, err := index.IndexedContentIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	reverse, err := index.GetReverse(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, reverse)
}

func TestIndexStore_ApplyTwiceIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	index := store.IndexStore()

	entries := domain.ForwardIndex{{AssetID: 2}}
	delta := domain.IndexDelta{Added: []int64{2}}
	require.NoError(t, index.Apply(ctx, 1, entries, delta))
	require.NoError(t, index.Apply(ctx, 1, entries, delta))

	reverse, err := index.GetReverse(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, reverse)
}

// ==================== UsageStore ====================

func TestUsageStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	usage := store.UsageStore()

	record, err := usage.GetRecord(ctx, 4)
	require.NoError(t, err)
	assert.Nil(t, record)

	checked := time.Date(2024, 6, 1, 12, 0, 0, 500, time.UTC)
	saved := &domain.UsageRecord{
		AssetID: 4,
		FoundIn: domain.UsageRefs{
			ContentIDs: []int64{1, 2},
			Settings:   []domain.SettingRef{{Key: "site_logo", Path: "image.id"}},
		},
		LastCheckedAt: checked,
	}
	require.NoError(t, usage.SaveRecord(ctx, saved))
	require.NoError(t, usage.SaveRecord(ctx, &domain.UsageRecord{AssetID: 2, LastCheckedAt: checked}))

	record, err = usage.GetRecord(ctx, 4)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, saved.FoundIn, record.FoundIn)
	assert.True(t, checked.Equal(record.LastCheckedAt))

	ids, err := usage.ScannedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, ids)

	require.NoError(t, usage.DeleteRecord(ctx, 4))
	record, err = usage.GetRecord(ctx, 4)
	require.NoError(t, err)
	assert.Nil(t, record)

	assert.ErrorIs(t, usage.SaveRecord(ctx, nil), domain.ErrInvalidInput)
}

// ==================== Helper Functions ====================

func TestFormatNullableTime(t *testing.T) {
	assert.Nil(t, formatNullableTime(time.Time{}))

	ts := time.Date(2024, 1, 2, 3, 4, 5, 600, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-01-02T02:04:05.000000600Z", formatNullableTime(ts))
	assert.True(t, ts.Equal(parseNullableTime(sql.NullString{String: "2024-01-02T02:04:05.000000600Z", Valid: true})))
}

func TestLimitOf(t *testing.T) {
	assert.Equal(t, -1, limitOf(0))
	assert.Equal(t, -1, limitOf(-3))
	assert.Equal(t, 5, limitOf(5))
}

func TestBoolToInt(t *testing.T) {
	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	assert.Equal(t, "hello", nullString("hello"))
}
