package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/location"
	"github.com/custodia-labs/sourcemark/internal/logger"
	"github.com/custodia-labs/sourcemark/internal/markup"
)

// AssetResolver maps an extraction match to the asset it shows.
type AssetResolver struct {
	assets   driven.AssetStore
	settings domain.ExtractionSettings
	hooks    *Hooks
}

// NewAssetResolver creates a resolver. A nil hooks value disables the
// fallback candidates.
func NewAssetResolver(assets driven.AssetStore, settings domain.ExtractionSettings, h *Hooks) *AssetResolver {
	if h == nil {
		h = &Hooks{}
	}
	return &AssetResolver{
		assets:   assets,
		settings: settings,
		hooks:    h,
	}
}

// Resolve returns the asset id of a match. A class token wins over a data
// attribute, which wins over a location lookup of the src value. When all
// three fail, the ResolveCandidates chain supplies more URLs; a candidate
// equal to the anchor href is tried first, then the rest in order.
func (r *AssetResolver) Resolve(ctx context.Context, match domain.ExtractionMatch) (int64, bool) {
	if id, ok := r.fromClass(match); ok {
		return id, true
	}
	if id, ok := r.fromDataAttribute(match.ImageTag); ok {
		return id, true
	}
	if id, ok := r.ResolveURL(ctx, match.URL); ok {
		return id, true
	}

	candidates := r.hooks.ResolveCandidates.Apply(ctx, Candidates{Match: match})
	for _, u := range preferAnchor(candidates.URLs, match.AnchorHref) {
		if id, ok := r.ResolveURL(ctx, u); ok {
			return id, true
		}
	}
	return 0, false
}

// ResolveURL looks a location up in the asset store, first by its exact
// key and then by its ASCII-folded key.
func (r *AssetResolver) ResolveURL(ctx context.Context, raw string) (int64, bool) {
	key := location.Key(raw)
	if key == "" {
		return 0, false
	}
	if id, ok := r.lookup(ctx, key); ok {
		return id, true
	}
	if folded := location.FoldKey(raw); folded != key {
		return r.lookup(ctx, folded)
	}
	return 0, false
}

func (r *AssetResolver) lookup(ctx context.Context, key string) (int64, bool) {
	id, err := r.assets.FindByLocation(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("resolver: find %q: %v", key, err)
		}
		return 0, false
	}
	return id, id > 0
}

// fromClass checks the image tag's classes, then the container's.
func (r *AssetResolver) fromClass(match domain.ExtractionMatch) (int64, bool) {
	classes := markup.Classes(match.ImageTag)
	classes = append(classes, strings.Fields(match.ContainerClass)...)
	for _, prefix := range r.settings.ClassPrefixes {
		for _, class := range classes {
			if rest, ok := strings.CutPrefix(class, prefix); ok {
				if id, ok := positiveID(rest); ok {
					return id, true
				}
			}
		}
	}
	return 0, false
}

func (r *AssetResolver) fromDataAttribute(tag string) (int64, bool) {
	for _, name := range r.settings.DataAttributes {
		if v, ok := markup.Attr(tag, name); ok {
			if id, ok := positiveID(strings.TrimSpace(v)); ok {
				return id, true
			}
		}
	}
	return 0, false
}

func positiveID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// preferAnchor moves candidates equal to href to the front, keeping the
// relative order of the rest.
func preferAnchor(urls []string, href string) []string {
	if href == "" {
		return urls
	}
	ordered := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == href {
			ordered = append(ordered, u)
		}
	}
	for _, u := range urls {
		if u != href {
			ordered = append(ordered, u)
		}
	}
	return ordered
}
