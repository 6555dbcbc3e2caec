package services

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sourcemark/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/outbuf"
)

const janeLink = `<a href="https://jane.example" target="_blank" rel="noopener">Jane</a>`

func jane() domain.Asset {
	return domain.Asset{
		Location:   "/uploads/a.jpg",
		SourceText: "Jane",
		SourceURL:  "https://jane.example",
	}
}

func TestOverlay_WrapsAttributedImage(t *testing.T) {
	f := newFixture(t)
	f.addAsset(t, jane())

	out := f.overlay().Inject(f.ctx, `<p>Hi</p><img src="https://x/uploads/a.jpg">`)

	assert.Equal(t, `<p>Hi</p><span class="credits-wrap credits-top-left"><img src="https://x/uploads/a.jpg">`+
		`<span class="credits-overlay">Source: `+janeLink+`</span></span>`, out)
}

func TestOverlay_NoCaptionLeavesMarkup(t *testing.T) {
	tests := []struct {
		name  string
		asset domain.Asset
	}{
		{"empty source text", domain.Asset{Location: "/uploads/a.jpg"}},
		{"opted out", domain.Asset{Location: "/uploads/a.jpg", SourceText: "Jane", HideAttribution: true}},
		{"default without default text", domain.Asset{Location: "/uploads/a.jpg", UsesDefaultAttribution: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addAsset(t, tt.asset)
			html := `<figure class="c"><img src="https://x/uploads/a.jpg"></figure>`
			assert.Equal(t, html, f.overlay().Inject(f.ctx, html))
		})
	}
}

func TestOverlay_UnresolvedAndMissingAssets(t *testing.T) {
	f := newFixture(t)
	html := `<img src="https://x/uploads/unknown.jpg"><img class="wp-image-99" src="y.png">`
	assert.Equal(t, html, f.overlay().Inject(f.ctx, html))
}

func TestOverlay_ExclusionClass(t *testing.T) {
	f := newFixture(t)
	f.addAsset(t, jane())
	html := `<figure class="wp-block-image credits-disable"><img src="https://x/uploads/a.jpg"></figure>`
	assert.Equal(t, html, f.overlay().Inject(f.ctx, html))
}

func TestOverlay_AlignmentMovesToWrapper(t *testing.T) {
	f := newFixtureWith(t, func(s *domain.Settings) {
		s.Overlay.Position = domain.PositionBottomRight
		s.Overlay.LinkSource = false
	})
	f.addAsset(t, jane())

	out := f.overlay().Inject(f.ctx, `<figure class="wp-block-image alignright"><img class="wp-image-1" src="z.jpg"></figure>`)

	assert.Equal(t, `<figure class="wp-block-image alignright">`+
		`<span class="credits-wrap alignright credits-bottom-right"><img class="wp-image-1" src="z.jpg">`+
		`<span class="credits-overlay">Source: Jane</span></span></figure>`, out)
}

func TestOverlay_LicenseSuffix(t *testing.T) {
	f := newFixtureWith(t, func(s *domain.Settings) { s.Overlay.LinkSource = false })
	a := jane()
	a.License = "CC BY 4.0"
	f.addAsset(t, a)
	b := domain.Asset{Location: "/uploads/b.jpg", SourceText: "Sam", License: "All Rights Reserved"}
	f.addAsset(t, b)

	out := f.overlay().Inject(f.ctx, `<img src="/uploads/a.jpg"><img src="/uploads/b.jpg">`)

	assert.Contains(t, out, `Source: Jane | <a href="https://creativecommons.org/licenses/by/4.0/" target="_blank" rel="noopener">CC BY 4.0</a>`)
	assert.Contains(t, out, `Source: Sam | All Rights Reserved</span>`)
}

func TestOverlay_DefaultAttribution(t *testing.T) {
	f := newFixtureWith(t, func(s *domain.Settings) { s.Overlay.DefaultSource = "Staff <photo>" })
	f.addAsset(t, domain.Asset{Location: "/uploads/a.jpg", SourceURL: "https://ignored", UsesDefaultAttribution: true})

	out := f.overlay().Inject(f.ctx, `<img src="/uploads/a.jpg">`)

	assert.Contains(t, out, `<span class="credits-overlay">Source: Staff &lt;photo&gt;</span>`)
	assert.NotContains(t, out, "ignored")
}

func TestOverlay_StopMarker(t *testing.T) {
	f := newFixture(t)
	f.addAsset(t, jane())
	tail := `<!-- credits-stop --><img src="/uploads/a.jpg">`

	out := f.overlay().Inject(f.ctx, `<img src="/uploads/a.jpg">`+tail)

	assert.True(t, strings.HasSuffix(out, tail))
	assert.Equal(t, 1, strings.Count(out, "credits-overlay"))
}

func TestOverlay_RepeatedFragmentsWrappedOnce(t *testing.T) {
	f := newFixture(t)
	f.addAsset(t, jane())
	img := `<img src="/uploads/a.jpg">`

	out := f.overlay().Inject(f.ctx, img+"<br>"+img)

	assert.Equal(t, 2, strings.Count(out, `class="credits-wrap`))
	first := strings.Index(out, "<br>")
	require.Positive(t, first)
	assert.Equal(t, 1, strings.Count(out[:first], "credits-overlay"))
}

func TestOverlay_ExcludedCopyLeftBare(t *testing.T) {
	f := newFixture(t)
	f.addAsset(t, jane())
	img := `<img src="/uploads/a.jpg">`
	excluded := `<figure class="x credits-disable">` + img + `</figure>`

	out := f.overlay().Inject(f.ctx, excluded+"<p>t</p>"+img)

	assert.True(t, strings.HasPrefix(out, excluded+"<p>t</p>"), out)
	assert.Equal(t, 1, strings.Count(out, "credits-overlay"))
	assert.True(t, strings.HasSuffix(out, "</span></span>"), out)
}

func TestOverlay_HiddenCopyLeftBare(t *testing.T) {
	f := newFixture(t)
	hidden := jane()
	hidden.HideAttribution = true
	f.addAsset(t, hidden)
	shown := jane()
	shown.Location = "/uploads/b.jpg"
	f.addAsset(t, shown)

	img := `<img src="/uploads/b.jpg">`
	first := `<figure class="wp-image-1">` + img + `</figure>`
	out := f.overlay().Inject(f.ctx, first+"<br>"+img)

	assert.True(t, strings.HasPrefix(out, first+"<br>"), out)
	assert.Equal(t, 1, strings.Count(out, "credits-overlay"))
}

func TestOverlay_Disabled(t *testing.T) {
	f := newFixtureWith(t, func(s *domain.Settings) { s.Overlay.Enabled = false })
	f.addAsset(t, jane())
	html := `<img src="/uploads/a.jpg">`

	assert.Equal(t, html, f.overlay().Inject(f.ctx, html))
	assert.Equal(t, html, f.overlay().InjectPage(f.ctx, html))
}

func TestOverlay_WholePageSkipsFragments(t *testing.T) {
	f := newFixtureWith(t, func(s *domain.Settings) { s.Overlay.WholePage = true })
	f.addAsset(t, jane())
	html := `<img src="/uploads/a.jpg">`

	assert.Equal(t, html, f.overlay().Inject(f.ctx, html))
	assert.Contains(t, f.overlay().InjectPage(f.ctx, html), "credits-overlay")
}

func TestOverlay_CaptionHook(t *testing.T) {
	f := newFixture(t)
	f.addAsset(t, jane())
	f.hooks.Caption.Register("upper", func(_ context.Context, c Caption) Caption {
		c.HTML = strings.ToUpper(c.HTML)
		return c
	})

	out := f.overlay().Inject(f.ctx, `<img src="/uploads/a.jpg">`)
	assert.Contains(t, out, "SOURCE: ")
}

// countingAssets counts location lookups.
type countingAssets struct {
	*memory.AssetStore
	lookups atomic.Int32
}

func (c *countingAssets) FindByLocation(ctx context.Context, key string) (int64, error) {
	c.lookups.Add(1)
	return c.AssetStore.FindByLocation(ctx, key)
}

func TestOverlay_InlineStylesDedupeLookups(t *testing.T) {
	f := newFixtureWith(t, func(s *domain.Settings) {
		s.Overlay.InlineStyles = true
		s.Overlay.LinkSource = false
	})
	bg := jane()
	bg.Location = "/uploads/bg.jpg"
	f.addAsset(t, bg)

	counting := &countingAssets{AssetStore: f.assets}
	resolver := NewAssetResolver(counting, f.settings.Extraction, f.hooks)
	o := NewOverlayInjector(counting, resolver, f.extractor, f.settings, f.hooks)

	out := o.Inject(f.ctx, `<div style="background:url('https://x/uploads/bg.jpg')">A</div>`+
		`<section style="background-image: url( https://x/uploads/bg.jpg )">B</section>`)

	assert.Equal(t, `<div style="background:url('https://x/uploads/bg.jpg')" data-credits="Source: Jane">A</div>`+
		`<section style="background-image: url( https://x/uploads/bg.jpg )" data-credits="Source: Jane">B</section>`, out)
	assert.Equal(t, int32(1), counting.lookups.Load())
}

func TestOverlay_StyleBlocksScript(t *testing.T) {
	f := newFixtureWith(t, func(s *domain.Settings) {
		s.Overlay.StyleBlocks = true
		s.Overlay.LinkSource = false
	})
	bg := jane()
	bg.Location = "/uploads/bg.jpg"
	id := f.addAsset(t, bg)
	require.Equal(t, int64(1), id)

	page := `<html><head><style>.a{background:url("https://x/uploads/bg.jpg")} .b{background:url(/uploads/bg.jpg)}</style></head>` +
		`<body><p>x</p></body></html>`
	out := f.overlay().InjectPage(f.ctx, page)

	script := `<script type="application/json" id="credits-style-sources">` +
		`[{"url":"https://x/uploads/bg.jpg","asset_id":1,"caption":"Source: Jane"},` +
		`{"url":"/uploads/bg.jpg","asset_id":1,"caption":"Source: Jane"}]</script>`
	assert.Contains(t, out, script+"</body>")
}

func TestOverlay_InlineStylesOffByDefault(t *testing.T) {
	f := newFixture(t)
	f.addAsset(t, domain.Asset{Location: "/uploads/bg.jpg", SourceText: "Jane"})
	html := `<div style="background:url(/uploads/bg.jpg)">A</div>`
	assert.Equal(t, html, f.overlay().Inject(f.ctx, html))
}

func TestOverlay_EndPageFlushesNestedLayers(t *testing.T) {
	f := newFixtureWith(t, func(s *domain.Settings) { s.Overlay.WholePage = true })
	f.addAsset(t, jane())
	o := f.overlay()

	var sink bytes.Buffer
	stack := outbuf.New(&sink)
	layer := o.BeginPage(stack)
	_, _ = stack.WriteString(`<header><img src="/uploads/a.jpg"></header>`)
	stack.Push(nil)
	_, _ = stack.WriteString(`<footer>late</footer>`)

	require.NoError(t, o.EndPage(f.ctx, stack, layer))

	assert.Contains(t, sink.String(), "credits-overlay")
	assert.True(t, strings.HasSuffix(sink.String(), `<footer>late</footer>`))
	assert.Equal(t, 0, stack.Depth())
}

func TestOverlay_EndPageWithoutLayerEmitsNothing(t *testing.T) {
	f := newFixture(t)
	o := f.overlay()

	var sink bytes.Buffer
	stack := outbuf.New(&sink)
	layer := o.BeginPage(stack)
	_, _ = stack.WriteString("page")
	_, err := stack.Close(layer)
	require.NoError(t, err)

	err = o.EndPage(f.ctx, stack, layer)
	assert.ErrorIs(t, err, domain.ErrBufferNotFound)
	assert.Empty(t, sink.String())
}
