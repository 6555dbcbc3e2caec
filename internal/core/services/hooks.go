package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/hooks"
	"github.com/custodia-labs/sourcemark/internal/markup"
)

// Candidates carries the extra URLs tried for a match whose src did not
// resolve. Functions on the ResolveCandidates chain append to URLs.
type Candidates struct {
	Match domain.ExtractionMatch
	URLs  []string
}

// UsageHits carries one store's results for an asset scan. Functions on a
// hit chain may append or drop rows.
type UsageHits[T any] struct {
	AssetID int64
	Probes  domain.StoreQuery
	Hits    []T
}

// Caption carries a rendered caption fragment before it is injected.
type Caption struct {
	AssetID int64
	HTML    string
}

// Hooks holds every extension point of the services. The zero value has
// empty chains; use NewHooks for the built-in registrations.
type Hooks struct {
	// Matches filters the matches found in a document before they are
	// resolved, both for indexing and for overlays.
	Matches hooks.Chain[[]domain.ExtractionMatch]

	// ResolveCandidates supplies fallback URLs for unresolved matches.
	ResolveCandidates hooks.Chain[Candidates]

	// Caption rewrites a caption fragment.
	Caption hooks.Chain[Caption]

	AttributeDenylist     hooks.Chain[[]string]
	SettingsDenylist      hooks.Chain[[]string]
	UserAttributeDenylist hooks.Chain[[]string]

	ContentHits       hooks.Chain[UsageHits[int64]]
	AttributeHits     hooks.Chain[UsageHits[domain.AttributeRef]]
	SettingHits       hooks.Chain[UsageHits[domain.SettingRef]]
	UserAttributeHits hooks.Chain[UsageHits[domain.UserAttributeRef]]
}

// HookSiblingAttributes names the built-in fallback candidate function.
const HookSiblingAttributes = "sibling-attributes"

// NewHooks returns hooks with the built-in functions registered.
func NewHooks(settings domain.ExtractionSettings) *Hooks {
	h := &Hooks{}
	h.ResolveCandidates.Register(HookSiblingAttributes, siblingAttributes(settings.FallbackAttributes))
	return h
}

// siblingAttributes offers the configured lazy-load attributes of the
// image tag and the first srcset entry as candidates.
func siblingAttributes(attrs []string) hooks.Func[Candidates] {
	return func(_ context.Context, c Candidates) Candidates {
		for _, name := range attrs {
			if v, ok := markup.Attr(c.Match.ImageTag, name); ok && v != "" {
				c.URLs = append(c.URLs, v)
			}
		}
		if srcset, ok := markup.Attr(c.Match.ImageTag, "srcset"); ok {
			first, _, _ := strings.Cut(srcset, ",")
			if fields := strings.Fields(first); len(fields) > 0 {
				c.URLs = append(c.URLs, fields[0])
			}
		}
		return c
	}
}

func newHits[T any](assetID int64, probes domain.StoreQuery, rows []T) UsageHits[T] {
	return UsageHits[T]{AssetID: assetID, Probes: probes, Hits: rows}
}
