package markup

import (
	"regexp"
	"strings"
)

// urlPattern builds the url-in-tag scanner. Groups: 1/2 the src of an
// image tag, 3 an absolute URL ending in one of the extensions.
func urlPattern(extensions []string) *regexp.Regexp {
	quoted := make([]string, len(extensions))
	for i, ext := range extensions {
		quoted[i] = regexp.QuoteMeta(strings.TrimPrefix(ext, "."))
	}
	return regexp.MustCompile(`(?is)` +
		`<img` + ws + `(?:[^>]*?` + ws + `)?src` + ws + `*=` + ws + `*(?:"([^"]*)"|'([^']*)')` +
		`|(https?://[^ \t\n\f\r"'<>()]+?\.(?:` + strings.Join(quoted, "|") + `)(?:\?[^ \t\n\f\r"'<>]*|\b))`)
}

// URLs returns every plausible image URL in html: the src of each image
// tag regardless of extension, and each absolute URL ending in a
// configured extension that does not continue a srcset list. Results are
// de-duplicated in first-seen order.
func (e *Extractor) URLs(html string) []string {
	var urls []string
	seen := make(map[string]struct{})
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	for _, m := range e.urls.FindAllStringSubmatchIndex(html, -1) {
		switch {
		case m[2] >= 0:
			add(html[m[2]:m[3]])
		case m[4] >= 0:
			add(html[m[4]:m[5]])
		case m[6] >= 0:
			if continuesList(html, m[6]) {
				continue
			}
			add(html[m[6]:m[7]])
		}
	}
	return urls
}

// continuesList reports whether the text before pos, ignoring whitespace,
// ends with a comma, as the second and later candidates of a srcset do.
func continuesList(html string, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch html[i] {
		case ' ', '\t', '\n', '\f', '\r':
			continue
		case ',':
			return true
		default:
			return false
		}
	}
	return false
}
