package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"html"
	"sort"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driven"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
	"github.com/custodia-labs/sourcemark/internal/logger"
	"github.com/custodia-labs/sourcemark/internal/markup"
	"github.com/custodia-labs/sourcemark/internal/outbuf"
)

// Ensure OverlayInjector implements the interface.
var _ driving.OverlayService = (*OverlayInjector)(nil)

// Markup emitted around captioned images.
const (
	wrapClass          = "credits-wrap"
	overlayClass       = "credits-overlay"
	styleCreditsAttr   = "data-credits"
	styleSourcesScript = "credits-style-sources"
)

// OverlayInjector rewrites markup so every attributed image carries its
// caption.
type OverlayInjector struct {
	assets    driven.AssetStore
	resolver  *AssetResolver
	extractor *markup.Extractor
	overlay   domain.OverlaySettings
	licenses  map[string]string
	hooks     *Hooks
}

// NewOverlayInjector creates an injector.
func NewOverlayInjector(
	assets driven.AssetStore,
	resolver *AssetResolver,
	extractor *markup.Extractor,
	settings domain.Settings,
	h *Hooks,
) *OverlayInjector {
	if h == nil {
		h = &Hooks{}
	}
	return &OverlayInjector{
		assets:    assets,
		resolver:  resolver,
		extractor: extractor,
		overlay:   settings.Overlay,
		licenses:  settings.Licenses,
		hooks:     h,
	}
}

// Inject rewrites a content fragment. It returns html unchanged when
// overlays are disabled or when whole-page mode covers the content.
func (o *OverlayInjector) Inject(ctx context.Context, doc string) string {
	if o.overlay.WholePage {
		return doc
	}
	return o.rewrite(ctx, doc, false)
}

// InjectPage rewrites a complete page. Style block captions are placed
// before </body>.
func (o *OverlayInjector) InjectPage(ctx context.Context, doc string) string {
	return o.rewrite(ctx, doc, true)
}

// BeginPage opens the injector's capture layer.
func (o *OverlayInjector) BeginPage(stack *outbuf.Stack) *outbuf.Layer {
	return stack.Push(nil)
}

// EndPage closes layer, flushing any layers opened after it, and writes
// the rewritten page to the parent. If layer was already closed nothing
// is written and domain.ErrBufferNotFound is returned.
func (o *OverlayInjector) EndPage(ctx context.Context, stack *outbuf.Stack, layer *outbuf.Layer) error {
	content, err := stack.Close(layer)
	if err != nil {
		logger.Warn("overlay: %v", err)
		return err
	}
	_, err = stack.WriteString(o.InjectPage(ctx, content))
	return err
}

func (o *OverlayInjector) rewrite(ctx context.Context, doc string, page bool) string {
	if !o.overlay.Enabled || doc == "" {
		return doc
	}

	head, tail := doc, ""
	if marker := o.overlay.StopMarker; marker != "" {
		if i := strings.Index(doc, marker); i >= 0 {
			head, tail = doc[:i], doc[i:]
		}
	}

	captions := make(map[int64]captionResult)
	head = o.injectImages(ctx, head, captions)
	if o.overlay.InlineStyles || o.overlay.StyleBlocks {
		var sources []styleSource
		head, sources = o.injectStyles(ctx, head, captions)
		if len(sources) > 0 {
			head = placeScript(head, sourcesScript(sources), page)
		}
	}
	return head + tail
}

func (o *OverlayInjector) injectImages(ctx context.Context, doc string, captions map[int64]captionResult) string {
	matches := o.hooks.Matches.Apply(ctx, o.extractor.Extract(doc))
	if len(matches) == 0 {
		return doc
	}

	var b strings.Builder
	cursor := 0
	for _, m := range matches {
		if o.excluded(m.FullSpan) {
			continue
		}
		id, ok := o.resolver.Resolve(ctx, m)
		if !ok {
			continue
		}
		caption, ok := o.caption(ctx, id, captions)
		if !ok {
			continue
		}
		// Search from the match itself so a skipped copy of the same
		// fragment earlier in the document is never rewritten.
		base := cursor
		if m.Offset > base && m.Offset <= len(doc) {
			base = m.Offset
		}
		i := strings.Index(doc[base:], m.InnerMarkup)
		if i < 0 {
			continue
		}
		start := base + i
		b.WriteString(doc[cursor:start])
		b.WriteString(o.wrap(m, caption))
		cursor = start + len(m.InnerMarkup)
	}
	b.WriteString(doc[cursor:])
	return b.String()
}

// wrap puts the caption over the inner markup. Alignment classes of the
// container move to the wrapper so floats keep working.
func (o *OverlayInjector) wrap(m domain.ExtractionMatch, caption string) string {
	classes := []string{wrapClass}
	for _, c := range strings.Fields(m.ContainerClass) {
		if strings.HasPrefix(c, "align") {
			classes = append(classes, c)
		}
	}
	classes = append(classes, "credits-"+o.position().String())

	return `<span class="` + strings.Join(classes, " ") + `">` +
		m.InnerMarkup +
		`<span class="` + overlayClass + `">` + caption + `</span></span>`
}

func (o *OverlayInjector) position() domain.OverlayPosition {
	if o.overlay.Position.IsValid() {
		return o.overlay.Position
	}
	return domain.PositionTopLeft
}

func (o *OverlayInjector) excluded(span string) bool {
	return o.overlay.ExclusionClass != "" && strings.Contains(span, o.overlay.ExclusionClass)
}

type captionResult struct {
	html string
	ok   bool
}

// caption renders the caption of an asset once per rewrite.
func (o *OverlayInjector) caption(ctx context.Context, id int64, cache map[int64]captionResult) (string, bool) {
	if c, hit := cache[id]; hit {
		return c.html, c.ok
	}
	text, ok := o.renderCaption(ctx, id)
	cache[id] = captionResult{html: text, ok: ok}
	return text, ok
}

func (o *OverlayInjector) renderCaption(ctx context.Context, id int64) (string, bool) {
	asset, err := o.assets.GetAsset(ctx, id)
	if err != nil {
		logger.Debug("overlay: asset %d: %v", id, err)
		return "", false
	}
	if asset.HideAttribution || !asset.HasAttribution() {
		return "", false
	}

	text := asset.SourceText
	link := asset.SourceURL
	if asset.UsesDefaultAttribution {
		text, link = o.overlay.DefaultSource, ""
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	var b strings.Builder
	if o.overlay.Label != "" {
		b.WriteString(html.EscapeString(o.overlay.Label))
		b.WriteByte(' ')
	}
	b.WriteString(anchor(text, link, o.overlay.LinkSource))
	if o.overlay.ShowLicense && asset.License != "" {
		b.WriteString(" | ")
		b.WriteString(anchor(asset.License, o.licenses[asset.License], true))
	}

	c := o.hooks.Caption.Apply(ctx, Caption{AssetID: id, HTML: b.String()})
	if c.HTML == "" {
		return "", false
	}
	return c.HTML, true
}

func anchor(text, href string, link bool) string {
	if !link || href == "" {
		return html.EscapeString(text)
	}
	return `<a href="` + html.EscapeString(href) + `" target="_blank" rel="noopener">` +
		html.EscapeString(text) + `</a>`
}

// styleSource is one captioned background image of a style block.
type styleSource struct {
	URL     string `json:"url"`
	AssetID int64  `json:"asset_id"`
	Caption string `json:"caption"`
}

type styleLookup struct {
	id      int64
	caption string
	ok      bool
}

// injectStyles captions background images. Each distinct URL is looked up
// once; every inline element using it gets a data-credits attribute and
// block references are collected for the sources script.
func (o *OverlayInjector) injectStyles(
	ctx context.Context,
	doc string,
	captions map[int64]captionResult,
) (string, []styleSource) {
	matches := o.extractor.StyleURLs(doc)
	if len(matches) == 0 {
		return doc, nil
	}

	seen := make(map[[sha256.Size]byte]styleLookup)
	lookup := func(u string) styleLookup {
		key := sha256.Sum256([]byte(u))
		if l, hit := seen[key]; hit {
			return l
		}
		var l styleLookup
		if id, ok := o.resolver.ResolveURL(ctx, u); ok {
			l.id = id
			l.caption, l.ok = o.caption(ctx, id, captions)
		}
		seen[key] = l
		return l
	}

	inline := make(map[int][]string)
	tags := make(map[int]string)
	var sources []styleSource
	listed := make(map[string]bool)

	for _, m := range matches {
		switch {
		case m.Kind == domain.StyleInline && o.overlay.InlineStyles:
			if o.excluded(m.Tag) {
				continue
			}
			if l := lookup(m.URL); l.ok {
				inline[m.Offset] = append(inline[m.Offset], l.caption)
				tags[m.Offset] = m.Tag
			}
		case m.Kind == domain.StyleBlock && o.overlay.StyleBlocks:
			if listed[m.URL] {
				continue
			}
			if l := lookup(m.URL); l.ok {
				listed[m.URL] = true
				sources = append(sources, styleSource{URL: m.URL, AssetID: l.id, Caption: l.caption})
			}
		}
	}

	if len(inline) == 0 {
		return doc, sources
	}

	offsets := make([]int, 0, len(inline))
	for off := range inline {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	var b strings.Builder
	cursor := 0
	for _, off := range offsets {
		tag := tags[off]
		b.WriteString(doc[cursor:off])
		b.WriteString(markup.SetAttr(tag, styleCreditsAttr, html.EscapeString(strings.Join(inline[off], " / "))))
		cursor = off + len(tag)
	}
	b.WriteString(doc[cursor:])
	return b.String(), sources
}

func sourcesScript(sources []styleSource) string {
	data, err := json.Marshal(sources)
	if err != nil {
		logger.Warn("overlay: encode style sources: %v", err)
		return ""
	}
	return `<script type="application/json" id="` + styleSourcesScript + `">` + string(data) + `</script>`
}

// placeScript puts the script before the last </body> of a page, or at
// the end otherwise.
func placeScript(doc, script string, page bool) string {
	if script == "" {
		return doc
	}
	if page {
		i := max(strings.LastIndex(doc, "</body>"), strings.LastIndex(doc, "</BODY>"))
		if i >= 0 {
			return doc[:i] + script + doc[i:]
		}
	}
	return doc + script
}
