package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

func TestAttributeStore_SetGetDelete(t *testing.T) {
	store := NewAttributeStore()
	ctx := context.Background()

	require.NoError(t, store.SetAttribute(ctx, 1, "hero", 42))
	v, err := store.GetAttribute(ctx, 1, "hero")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	require.NoError(t, store.DeleteAttributes(ctx, 1))
	_, err = store.GetAttribute(ctx, 1, "hero")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAttributeStore_Search(t *testing.T) {
	store := NewAttributeStore()
	ctx := context.Background()

	require.NoError(t, store.SetAttribute(ctx, 3, "gallery", []any{"7", "photo.jpg"}))
	require.NoError(t, store.SetAttribute(ctx, 1, "hero", 7))
	require.NoError(t, store.SetAttribute(ctx, 1, "_edit_lock", "7"))
	require.NoError(t, store.SetAttribute(ctx, 2, "note", "see /uploads/photo.jpg"))
	require.NoError(t, store.SetAttribute(ctx, 7, "self", "7"))
	require.NoError(t, store.SetAttribute(ctx, 4, "count", 17))

	refs, err := store.Search(ctx, domain.StoreQuery{
		Equals:   []string{"7"},
		Contains: []string{"photo.jpg"},
		Denylist: []string{"_edit_lock"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.AttributeRef{
		{ContentID: 1, Key: "hero"},
		{ContentID: 2, Key: "note"},
		{ContentID: 3, Key: "gallery"},
		{ContentID: 7, Key: "self"},
	}, refs)
}

func TestAttributeStore_SearchEmptyQuery(t *testing.T) {
	store := NewAttributeStore()
	ctx := context.Background()
	require.NoError(t, store.SetAttribute(ctx, 1, "k", ""))

	refs, err := store.Search(ctx, domain.StoreQuery{})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestSettingsStore_SearchPaths(t *testing.T) {
	store := NewSettingsStore()
	ctx := context.Background()

	require.NoError(t, store.SetSetting(ctx, "site_logo", 7))
	require.NoError(t, store.SetSetting(ctx, "theme_mods", map[string]any{
		"header": map[string]any{"image": "/uploads/photo.jpg", "height": 7},
		"footer": "plain",
	}))
	require.NoError(t, store.SetSetting(ctx, "_transient_feed", "7"))
	require.NoError(t, store.SetSetting(ctx, "cron", "7"))

	refs, err := store.Search(ctx, domain.StoreQuery{
		Equals:   []string{"7"},
		Contains: []string{"photo.jpg"},
		Denylist: []string{"cron", "/^_transient_/"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.SettingRef{
		{Key: "site_logo", Path: ""},
		{Key: "theme_mods", Path: "header.height"},
		{Key: "theme_mods", Path: "header.image"},
	}, refs)

	v, err := store.GetSetting(ctx, "site_logo")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = store.GetSetting(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserAttributeStore_Search(t *testing.T) {
	store := NewUserAttributeStore()
	ctx := context.Background()

	require.NoError(t, store.SetUserAttribute(ctx, 2, "avatar", "7"))
	require.NoError(t, store.SetUserAttribute(ctx, 1, "session_tokens", "7"))
	require.NoError(t, store.SetUserAttribute(ctx, 1, "bio", "hello"))

	refs, err := store.Search(ctx, domain.StoreQuery{
		Equals:   []string{"7"},
		Denylist: []string{"session_tokens"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.UserAttributeRef{{UserID: 2, Key: "avatar"}}, refs)
}
