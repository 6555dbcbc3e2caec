// Package location normalises asset locations so that a URL found in markup
// can be compared with the location an asset was stored under.
//
// Two documents may reference the same file through different hosts, with
// or without a query string, percent-encoded or not, in composed or
// decomposed Unicode, or through a generated size variant such as
// photo-300x200.jpg. Key folds all of these onto one string.
package location

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/unicode/norm"
)

// uploadsSegment marks the start of the upload-relative part of a path.
const uploadsSegment = "/uploads/"

// variantSuffix matches one generated-variant suffix at the end of a stem.
var variantSuffix = regexp.MustCompile(`(?i)(?:-\d+x\d+|-scaled|-rotated|-e\d{10,})$`)

// Key returns the normalised comparison key of a location: scheme, host,
// query and fragment dropped, percent-escapes decoded, Unicode NFC,
// everything through an "/uploads/" segment removed and size-variant
// suffixes stripped from the file name. It returns "" for data: URIs and
// empty input.
func Key(raw string) string {
	p := pathOf(raw)
	if p == "" {
		return ""
	}

	dir, file := path.Split(p)
	ext := path.Ext(file)
	stem := stripVariants(strings.TrimSuffix(file, ext))
	if stem == "" {
		return ""
	}

	return dir + stem + strings.ToLower(ext)
}

// FoldKey is Key transliterated to ASCII. File names that were uploaded
// with accents are often served under a transliterated name.
func FoldKey(raw string) string {
	return unidecode.Unidecode(Key(raw))
}

// Filename returns the file name without directory, extension or
// size-variant suffix, e.g. "photo" for ".../photo-300x200.jpg".
func Filename(raw string) string {
	p := pathOf(raw)
	if p == "" {
		return ""
	}
	file := path.Base(p)
	return stripVariants(strings.TrimSuffix(file, path.Ext(file)))
}

// Extension returns the lower-case extension without the dot.
func Extension(raw string) string {
	p := pathOf(raw)
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}

func pathOf(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(strings.ToLower(s), "data:") {
		return ""
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	switch {
	case strings.Contains(s, "://"):
		s = s[strings.Index(s, "://")+3:]
		s = dropHost(s)
	case strings.HasPrefix(s, "//"):
		s = dropHost(s[2:])
	}

	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	s = norm.NFC.String(s)

	if i := strings.LastIndex(s, uploadsSegment); i >= 0 {
		s = s[i+len(uploadsSegment):]
	}
	return strings.TrimLeft(s, "/")
}

func dropHost(s string) string {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[i:]
	}
	return ""
}

func stripVariants(stem string) string {
	for {
		loc := variantSuffix.FindStringIndex(stem)
		if loc == nil || loc[0] == 0 {
			return stem
		}
		stem = stem[:loc[0]]
	}
}
