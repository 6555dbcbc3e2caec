package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sourcemark/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/markup"
)

// fixture wires every service against the memory stores.
type fixture struct {
	ctx      context.Context
	settings domain.Settings
	hooks    *Hooks

	content    *memory.ContentStore
	assets     *memory.AssetStore
	attributes *memory.AttributeStore
	options    *memory.SettingsStore
	users      *memory.UserAttributeStore
	index      *memory.IndexStore
	usage      *memory.UsageStore

	extractor *markup.Extractor
	resolver  *AssetResolver
	indexer   *ContentIndexer
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil)
}

// newFixtureWith lets a test adjust the settings before services are built.
func newFixtureWith(t *testing.T, mutate func(*domain.Settings)) *fixture {
	t.Helper()
	settings := domain.DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}

	f := &fixture{
		ctx:        context.Background(),
		settings:   settings,
		hooks:      NewHooks(settings.Extraction),
		content:    memory.NewContentStore(),
		assets:     memory.NewAssetStore(),
		attributes: memory.NewAttributeStore(),
		options:    memory.NewSettingsStore(),
		users:      memory.NewUserAttributeStore(),
		index:      memory.NewIndexStore(),
		usage:      memory.NewUsageStore(),
		extractor:  markup.New(settings.Extraction.Extensions),
	}
	f.resolver = NewAssetResolver(f.assets, settings.Extraction, f.hooks)
	f.indexer = NewContentIndexer(f.index, f.content, f.resolver, f.extractor, settings.Extraction, f.hooks)
	return f
}

func (f *fixture) addAsset(t *testing.T, asset domain.Asset) int64 {
	t.Helper()
	require.NoError(t, f.assets.SaveAsset(f.ctx, &asset))
	return asset.ID
}

func (f *fixture) addContent(t *testing.T, doc domain.ContentDocument) int64 {
	t.Helper()
	if doc.Status == "" {
		doc.Status = domain.StatusPublish
	}
	require.NoError(t, f.content.SaveContent(f.ctx, &doc))
	return doc.ID
}

func (f *fixture) overlay() *OverlayInjector {
	return NewOverlayInjector(f.assets, f.resolver, f.extractor, f.settings, f.hooks)
}

func (f *fixture) scanner() *UsageScanner {
	return NewUsageScanner(UsageStores{
		Assets:         f.assets,
		Content:        f.content,
		Attributes:     f.attributes,
		Settings:       f.options,
		UserAttributes: f.users,
		Usage:          f.usage,
	}, f.settings, f.hooks)
}

func (f *fixture) contentService() *ContentService {
	return NewContentService(f.content, f.index, f.attributes, f.indexer)
}
