package search

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// Matcher tests leaf values against the probes of a domain.StoreQuery.
type Matcher struct {
	equals   map[string]struct{}
	contains []string
	deny     *Denylist
}

// NewMatcher builds a matcher for the query. Empty probes are dropped.
func NewMatcher(q domain.StoreQuery) *Matcher {
	m := &Matcher{
		equals: make(map[string]struct{}, len(q.Equals)),
		deny:   NewDenylist(q.Denylist),
	}
	for _, p := range q.Equals {
		if p != "" {
			m.equals[p] = struct{}{}
		}
	}
	for _, p := range q.Contains {
		if p != "" {
			m.contains = append(m.contains, p)
		}
	}
	return m
}

// Empty reports whether the matcher can never match.
func (m *Matcher) Empty() bool {
	return len(m.equals) == 0 && len(m.contains) == 0
}

// Blocks reports whether a top-level key is denylisted.
func (m *Matcher) Blocks(key string) bool {
	return m.deny.Blocks(key)
}

// Leaf reports whether a scalar's string form matches a probe.
func (m *Matcher) Leaf(s string) bool {
	if _, ok := m.equals[s]; ok {
		return true
	}
	for _, p := range m.contains {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Paths walks v and returns the dotted path of every matching leaf, in a
// stable order. A matching scalar root yields the single path "".
func (m *Matcher) Paths(v any) []string {
	if m.Empty() {
		return nil
	}
	var paths []string
	m.walk(reflect.ValueOf(v), "", &paths)
	return paths
}

// Match reports whether any leaf of v matches.
func (m *Matcher) Match(v any) bool {
	return len(m.Paths(v)) > 0
}

func (m *Matcher) walk(v reflect.Value, path string, out *[]string) {
	if !v.IsValid() {
		return
	}
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		keys := v.MapKeys()
		names := make([]string, len(keys))
		byName := make(map[string]reflect.Value, len(keys))
		for i, k := range keys {
			names[i] = fmt.Sprint(k.Interface())
			byName[names[i]] = k
		}
		sort.Strings(names)
		for _, name := range names {
			m.walk(v.MapIndex(byName[name]), join(path, name), out)
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			if m.Leaf(string(v.Bytes())) {
				*out = append(*out, path)
			}
			return
		}
		for i := 0; i < v.Len(); i++ {
			m.walk(v.Index(i), join(path, strconv.Itoa(i)), out)
		}
	default:
		if s, ok := scalar(v); ok && m.Leaf(s) {
			*out = append(*out, path)
		}
	}
}

func scalar(v reflect.Value) (string, bool) {
	if n, ok := v.Interface().(json.Number); ok {
		return n.String(), true
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	default:
		return "", false
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
