package domain

// StoreQuery asks an auxiliary store for values referencing an asset.
// A stored value matches when any leaf equals one of Equals or contains
// one of Contains. Structured values are walked recursively.
type StoreQuery struct {
	// Equals are probes compared against whole leaf values.
	Equals []string

	// Contains are probes searched for inside leaf values.
	Contains []string

	// Denylist are keys never searched. Entries wrapped in slashes are
	// regular expressions matched against the key.
	Denylist []string
}

// IsEmpty reports whether the query has no probes.
func (q StoreQuery) IsEmpty() bool {
	return len(q.Equals) == 0 && len(q.Contains) == 0
}
