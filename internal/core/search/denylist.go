package search

import (
	"regexp"
	"strings"
)

// Denylist decides which keys are never searched.
// Entries wrapped in slashes ("/^_transient_/") are regular expressions;
// all other entries are literal keys. An entry that fails to compile is
// kept as a literal.
type Denylist struct {
	literal  map[string]struct{}
	patterns []*regexp.Regexp
}

// NewDenylist compiles the entries.
func NewDenylist(entries []string) *Denylist {
	d := &Denylist{literal: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		if len(e) > 2 && strings.HasPrefix(e, "/") && strings.HasSuffix(e, "/") {
			if re, err := regexp.Compile(e[1 : len(e)-1]); err == nil {
				d.patterns = append(d.patterns, re)
				continue
			}
		}
		d.literal[e] = struct{}{}
	}
	return d
}

// Blocks reports whether key must be skipped.
func (d *Denylist) Blocks(key string) bool {
	if d == nil {
		return false
	}
	if _, ok := d.literal[key]; ok {
		return true
	}
	for _, re := range d.patterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}
