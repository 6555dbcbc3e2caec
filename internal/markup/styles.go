package markup

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

var (
	// styledTag matches an open tag carrying a quoted style attribute.
	// Groups: 1/2 the style value.
	styledTag = regexp.MustCompile(`(?is)<[a-z][a-z0-9-]*` + ws + `(?:[^>]*?` + ws + `)?style` + ws + `*=` + ws + `*(?:"([^"]*)"|'([^']*)')[^>]*>`)

	// styleBlock matches a <style> element. Group 1 is its CSS.
	styleBlock = regexp.MustCompile(`(?is)<style(?:` + ws + `[^>]*)?>(.*?)</style>`)

	// cssURL matches url(...) with double, single or no quotes and
	// whitespace inside the parentheses. Groups: 1/2/3 the location.
	cssURL = regexp.MustCompile(`(?is)url\(\s*(?:"([^"]*)"|'([^']*)'|([^)"'\s]*))\s*\)`)
)

// StyleURLs returns every url() reference found in inline style
// attributes and in <style> blocks, in document order. An inline style
// with several references yields one match per reference.
func StyleURLs(markup string) []domain.StyleMatch {
	var matches []domain.StyleMatch

	blocks := styleBlock.FindAllStringSubmatchIndex(markup, -1)
	inBlock := func(pos int) bool {
		for _, b := range blocks {
			if pos >= b[0] && pos < b[1] {
				return true
			}
		}
		return false
	}

	for _, m := range styledTag.FindAllStringSubmatchIndex(markup, -1) {
		if inBlock(m[0]) {
			continue
		}
		tag := markup[m[0]:m[1]]
		var style string
		if m[2] >= 0 {
			style = markup[m[2]:m[3]]
		} else {
			style = markup[m[4]:m[5]]
		}
		for _, u := range cssURLs(html.UnescapeString(style)) {
			matches = append(matches, domain.StyleMatch{
				Kind:   domain.StyleInline,
				Tag:    tag,
				URL:    u,
				Offset: m[0],
			})
		}
	}

	for _, b := range blocks {
		block := markup[b[0]:b[1]]
		for _, u := range cssURLs(markup[b[2]:b[3]]) {
			matches = append(matches, domain.StyleMatch{
				Kind:   domain.StyleBlock,
				Tag:    block,
				URL:    u,
				Offset: b[0],
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Offset < matches[j].Offset
	})
	return matches
}

func cssURLs(css string) []string {
	var urls []string
	for _, m := range cssURL.FindAllStringSubmatch(css, -1) {
		u := strings.TrimSpace(m[1] + m[2] + m[3])
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
