package markup

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// imagePattern matches, in order: an optional container tag carrying a
// class attribute, an optional anchor open tag, the mandatory image tag
// with a quoted src, and an optional anchor close tag.
//
// Groups: 1 container name, 2/3 class value, 4 anchor open tag,
// 5 image tag, 6/7 src value, 8 anchor close tag.
var imagePattern = regexp.MustCompile(`(?is)` +
	`(?:<(figure|div|p|span)` + ws + `(?:[^>]*?` + ws + `)?class` + ws + `*=` + ws + `*(?:"([^"]*)"|'([^']*)')[^>]*>` + ws + `*)?` +
	`(<a` + ws + `[^>]*>)?` + ws + `*` +
	`(<img` + ws + `(?:[^>]*?` + ws + `)?src` + ws + `*=` + ws + `*(?:"([^"]*)"|'([^']*)')[^>]*>)` +
	`(?:` + ws + `*(</a>))?`)

// Extractor scans markup for image references.
// It is safe for concurrent use.
type Extractor struct {
	urls *regexp.Regexp
}

// New creates an extractor whose URL scanner accepts the given file
// extensions. An empty list uses the default extension set.
func New(extensions []string) *Extractor {
	if len(extensions) == 0 {
		extensions = domain.DefaultSettings().Extraction.Extensions
	}
	return &Extractor{urls: urlPattern(extensions)}
}

// Extract returns every image-bearing span in html, in document order.
func (e *Extractor) Extract(html string) []domain.ExtractionMatch {
	return Extract(html)
}

// StyleURLs returns every url() reference in inline styles and style
// blocks of html.
func (e *Extractor) StyleURLs(html string) []domain.StyleMatch {
	return StyleURLs(html)
}

// Extract returns every image-bearing span in html, in document order.
// A container without a class, or with an empty one, is left out of the
// span. Each image tag yields its own match.
func Extract(html string) []domain.ExtractionMatch {
	all := imagePattern.FindAllStringSubmatchIndex(html, -1)
	if len(all) == 0 {
		return nil
	}

	matches := make([]domain.ExtractionMatch, 0, len(all))
	for _, m := range all {
		matches = append(matches, buildMatch(html, m))
	}
	return matches
}

func buildMatch(html string, m []int) domain.ExtractionMatch {
	group := func(n int) string {
		if m[2*n] < 0 {
			return ""
		}
		return html[m[2*n]:m[2*n+1]]
	}

	innerStart := m[10]
	anchor := group(4)
	if anchor != "" {
		innerStart = m[8]
	}

	match := domain.ExtractionMatch{
		InnerMarkup: html[innerStart:m[1]],
		ImageTag:    group(5),
		URL:         group(6) + group(7),
	}
	if anchor != "" {
		match.AnchorHref, _ = Attr(anchor, "href")
	}

	class := strings.TrimSpace(group(2) + group(3))
	if m[2] >= 0 && class != "" {
		match.FullSpan = html[m[0]:m[1]]
		match.ContainerClass = class
		match.Offset = m[0]
	} else {
		match.FullSpan = match.InnerMarkup
		match.Offset = innerStart
	}
	return match
}
