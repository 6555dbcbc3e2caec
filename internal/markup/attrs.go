package markup

import (
	"regexp"
	"strings"
	"sync"
)

// ws is the HTML attribute separator class.
const ws = `[ \t\n\f\r]`

var attrPatterns sync.Map // name -> *regexp.Regexp

func attrPattern(name string) *regexp.Regexp {
	if re, ok := attrPatterns.Load(name); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?is)` + ws + regexp.QuoteMeta(name) + ws + `*=` + ws + `*(?:"([^"]*)"|'([^']*)')`)
	actual, _ := attrPatterns.LoadOrStore(name, re)
	return actual.(*regexp.Regexp)
}

// Attr returns the quoted value of the named attribute in an open tag.
// Names match case-insensitively; an attribute whose name merely ends in
// name (data-src for src) does not match.
func Attr(tag, name string) (string, bool) {
	m := attrPattern(name).FindStringSubmatchIndex(tag)
	if m == nil {
		return "", false
	}
	if m[2] >= 0 {
		return tag[m[2]:m[3]], true
	}
	return tag[m[4]:m[5]], true
}

// Classes returns the whitespace-separated tokens of the class attribute.
func Classes(tag string) []string {
	v, ok := Attr(tag, "class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// HasClass reports whether the class attribute contains token.
func HasClass(tag, token string) bool {
	for _, c := range Classes(tag) {
		if c == token {
			return true
		}
	}
	return false
}

// SetAttr returns tag with name="value" added before the closing bracket,
// or with the existing value replaced. Value must already be escaped.
func SetAttr(tag, name, value string) string {
	attr := name + `="` + value + `"`
	if m := attrPattern(name).FindStringIndex(tag); m != nil {
		// keep the leading separator
		return tag[:m[0]+1] + attr + tag[m[1]:]
	}

	end := strings.LastIndexByte(tag, '>')
	if end < 0 {
		return tag
	}
	if end > 0 && tag[end-1] == '/' {
		end--
	}
	head := strings.TrimRight(tag[:end], " \t\n\f\r")
	tail := tag[end:]
	if tail[0] == '/' && len(head) < end {
		tail = " " + tail
	}
	return head + " " + attr + tail
}
