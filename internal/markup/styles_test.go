package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

func TestStyleURLs(t *testing.T) {
	html := `<div class="hero" style="background-image: url('https://x/hero.jpg')">
<section style="background: url( &quot;https://x/bg.png&quot; ) no-repeat, url(https://x/overlay.svg)"></section>
<style>.a { background: url("https://x/block.webp"); } .b{background:url(https://x/b2.gif)}</style>`

	matches := StyleURLs(html)

	require.Len(t, matches, 5)
	urls := make([]string, len(matches))
	for i, m := range matches {
		urls[i] = m.URL
	}
	assert.Equal(t, []string{
		"https://x/hero.jpg",
		"https://x/bg.png",
		"https://x/overlay.svg",
		"https://x/block.webp",
		"https://x/b2.gif",
	}, urls)

	assert.Equal(t, domain.StyleInline, matches[0].Kind)
	assert.Equal(t, `<div class="hero" style="background-image: url('https://x/hero.jpg')">`, matches[0].Tag)
	assert.Equal(t, matches[1].Offset, matches[2].Offset)
	assert.Equal(t, domain.StyleBlock, matches[3].Kind)
	assert.Contains(t, matches[3].Tag, "<style>")
}

func TestStyleURLs_None(t *testing.T) {
	assert.Empty(t, StyleURLs(`<div style="color: red"><img src="a.jpg"></div>`))
}
