// Package config holds the value conversions shared by the ConfigStore
// adapters. Stores keep raw decoded values; these helpers turn them into
// the typed results driven.ConfigStore promises.
package config

import (
	"sort"
	"strings"
)

// String returns v as a string, or "" if it is not one.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int returns v as an int. TOML integers decode as int64 and JSON numbers
// as float64.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Float returns v as a float64, widening integers.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// Bool returns v as a bool, or false if it is not one.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// StringSlice returns v as a string slice. Non-string items of a decoded
// array are dropped.
func StringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		result := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// StringMap collects a table of strings stored either as one map value
// under key or as flattened "key.<name>" entries.
func StringMap(data map[string]any, key string) map[string]string {
	var result map[string]string
	put := func(name string, v any) {
		str, ok := v.(string)
		if !ok {
			return
		}
		if result == nil {
			result = make(map[string]string)
		}
		result[name] = str
	}

	switch m := data[key].(type) {
	case map[string]string:
		for k, v := range m {
			put(k, v)
		}
	case map[string]any:
		for k, v := range m {
			put(k, v)
		}
	}

	prefix := key + "."
	for k, v := range data {
		if name, ok := strings.CutPrefix(k, prefix); ok && name != "" {
			put(name, v)
		}
	}
	return result
}

// Keys returns the keys of data sorted.
func Keys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func Flatten(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range Flatten(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}
