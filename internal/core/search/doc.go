// Package search matches probe values against the contents of key/value
// stores. Store values may be scalars or nested maps and slices, as read
// back from a serialised settings or attribute row; Matcher walks them
// recursively and reports the path of every matching leaf.
//
// Both the memory and SQLite adapters use this package so that the same
// query returns the same references whichever store backs it.
package search
