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
	"github.com/custodia-labs/sourcemark/internal/markup"
)

// Ensure ContentIndexer implements the interface.
var _ driving.IndexService = (*ContentIndexer)(nil)

// ContentIndexer maintains the forward and reverse content/asset index.
type ContentIndexer struct {
	index     driven.IndexStore
	content   driven.ContentStore
	resolver  *AssetResolver
	extractor *markup.Extractor
	settings  domain.ExtractionSettings
	hooks     *Hooks
}

// NewContentIndexer creates an indexer. The content store is used to find
// a document's cover asset and may be nil.
func NewContentIndexer(
	index driven.IndexStore,
	content driven.ContentStore,
	resolver *AssetResolver,
	extractor *markup.Extractor,
	settings domain.ExtractionSettings,
	h *Hooks,
) *ContentIndexer {
	if h == nil {
		h = &Hooks{}
	}
	return &ContentIndexer{
		index:     index,
		content:   content,
		resolver:  resolver,
		extractor: extractor,
		settings:  settings,
		hooks:     h,
	}
}

// Reindex rebuilds the forward entry of a document and applies the
// difference to the reverse index in one store call. The previous state
// is kept when the store fails.
func (i *ContentIndexer) Reindex(
	ctx context.Context,
	contentID int64,
	body string,
	opts domain.ReindexOptions,
) (domain.ReindexResult, error) {
	result := domain.ReindexResult{ContentID: contentID}

	switch {
	case opts.Excerpt:
		result.Skipped = domain.SkipExcerpt
		return result, nil
	case contentID <= 0:
		result.Skipped = domain.SkipNoID
		return result, nil
	case i.settings.ListAllMarker != "" && strings.Contains(body, i.settings.ListAllMarker):
		result.Skipped = domain.SkipListAll
		return result, nil
	}

	prev, err := i.index.GetForward(ctx, contentID)
	if err != nil {
		return result, fmt.Errorf("read index for content %d: %w", contentID, err)
	}
	if len(prev) > 0 && !opts.Refresh {
		result.Skipped = domain.SkipUpToDate
		result.Entries = prev
		return result, nil
	}

	entries, err := i.build(ctx, contentID, body)
	if err != nil {
		return result, err
	}

	delta := prev.Diff(entries)
	if err := i.index.Apply(ctx, contentID, entries, delta); err != nil {
		return result, fmt.Errorf("write index for content %d: %w", contentID, err)
	}

	logger.Debug("indexer: content %d: %d assets, +%d -%d",
		contentID, len(entries), len(delta.Added), len(delta.Removed))

	result.Entries = entries
	result.Added = delta.Added
	result.Removed = delta.Removed
	return result, nil
}

// Remove drops a document from both directions of the index.
func (i *ContentIndexer) Remove(ctx context.Context, contentID int64) error {
	if contentID <= 0 {
		return fmt.Errorf("content id %d: %w", contentID, domain.ErrInvalidInput)
	}
	if err := i.index.Remove(ctx, contentID); err != nil {
		return fmt.Errorf("remove index for content %d: %w", contentID, err)
	}
	return nil
}

// build resolves image matches first, then image URLs outside them, then
// adds the cover asset flagged as thumbnail.
func (i *ContentIndexer) build(ctx context.Context, contentID int64, body string) (domain.ForwardIndex, error) {
	var entries domain.ForwardIndex
	add := func(id int64, src string) {
		if !entries.Contains(id) {
			entries = append(entries, domain.IndexEntry{AssetID: id, SourceURL: src})
		}
	}

	matched := make(map[string]bool)
	for _, m := range i.hooks.Matches.Apply(ctx, i.extractor.Extract(body)) {
		matched[m.URL] = true
		if id, ok := i.resolver.Resolve(ctx, m); ok {
			add(id, m.URL)
		}
	}
	for _, u := range i.extractor.URLs(body) {
		if matched[u] {
			continue
		}
		if id, ok := i.resolver.ResolveURL(ctx, u); ok {
			add(id, u)
		}
	}

	cover, err := i.coverAsset(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if cover > 0 {
		if !entries.Contains(cover) {
			add(cover, "")
		}
		for n := range entries {
			if entries[n].AssetID == cover {
				entries[n].IsThumbnail = true
			}
		}
	}
	return entries, nil
}

func (i *ContentIndexer) coverAsset(ctx context.Context, contentID int64) (int64, error) {
	if i.content == nil {
		return 0, nil
	}
	doc, err := i.content.GetContent(ctx, contentID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read content %d: %w", contentID, err)
	}
	return doc.CoverAssetID, nil
}
