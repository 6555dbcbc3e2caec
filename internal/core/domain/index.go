package domain

// IndexEntry is one asset referenced by a content document.
type IndexEntry struct {
	// AssetID is the referenced asset.
	AssetID int64 `json:"asset_id"`

	// SourceURL is the location the reference was found under.
	SourceURL string `json:"src"`

	// IsThumbnail marks the document's cover asset.
	IsThumbnail bool `json:"thumbnail"`
}

// ForwardIndex is the ordered list of assets a document references.
// Asset ids are unique within it.
type ForwardIndex []IndexEntry

// AssetIDs returns the ids in index order.
func (f ForwardIndex) AssetIDs() []int64 {
	ids := make([]int64, 0, len(f))
	for _, e := range f {
		ids = append(ids, e.AssetID)
	}
	return ids
}

// Contains reports whether the asset is referenced.
func (f ForwardIndex) Contains(assetID int64) bool {
	for _, e := range f {
		if e.AssetID == assetID {
			return true
		}
	}
	return false
}

// IndexDelta is the difference between two forward index snapshots.
type IndexDelta struct {
	Added   []int64
	Removed []int64
}

// IsEmpty reports whether nothing changed.
func (d IndexDelta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff computes which assets next adds and which it drops relative to f.
// Order follows next for additions and f for removals.
func (f ForwardIndex) Diff(next ForwardIndex) IndexDelta {
	var delta IndexDelta
	for _, e := range next {
		if !f.Contains(e.AssetID) {
			delta.Added = append(delta.Added, e.AssetID)
		}
	}
	for _, e := range f {
		if !next.Contains(e.AssetID) {
			delta.Removed = append(delta.Removed, e.AssetID)
		}
	}
	return delta
}

// ReindexOptions controls a single reindex call.
type ReindexOptions struct {
	// Refresh forces a rebuild even if an entry exists.
	Refresh bool

	// Excerpt marks a call made while rendering a summary view.
	Excerpt bool
}

// SkipReason explains why a reindex did nothing.
type SkipReason string

// Reasons a reindex is skipped.
const (
	SkipNone     SkipReason = ""
	SkipExcerpt  SkipReason = "excerpt"
	SkipNoID     SkipReason = "no_id"
	SkipListAll  SkipReason = "list_all_marker"
	SkipUpToDate SkipReason = "already_indexed"
)

// ReindexResult reports what a reindex changed.
type ReindexResult struct {
	ContentID int64        `json:"content_id"`
	Skipped   SkipReason   `json:"skipped,omitempty"`
	Entries   ForwardIndex `json:"entries,omitempty"`
	Added     []int64      `json:"added,omitempty"`
	Removed   []int64      `json:"removed,omitempty"`
}
