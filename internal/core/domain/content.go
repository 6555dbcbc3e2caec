package domain

import "time"

// ContentStatus is the publication state of a content document.
type ContentStatus string

// Known publication states.
const (
	StatusPublish ContentStatus = "publish"
	StatusDraft   ContentStatus = "draft"
	StatusPrivate ContentStatus = "private"
	StatusTrash   ContentStatus = "trash"
)

// IsValid returns true if the status is recognised.
func (s ContentStatus) IsValid() bool {
	switch s {
	case StatusPublish, StatusDraft, StatusPrivate, StatusTrash:
		return true
	default:
		return false
	}
}

// ContentDocument is a publishable unit of markup (article, page).
// It is owned by the content store; the core only reads it.
type ContentDocument struct {
	// ID is the positive numeric identifier.
	ID int64 `json:"id"`

	// Title is the human-readable title.
	Title string `json:"title"`

	// Body is the raw stored markup.
	Body string `json:"body"`

	// Status is the publication state.
	Status ContentStatus `json:"status"`

	// Type is a free-form type tag (post, page, ...).
	Type string `json:"type"`

	// URL is where the rendered document can be fetched.
	URL string `json:"url"`

	// CoverAssetID designates the document's cover image. Zero means none.
	CoverAssetID int64 `json:"cover_asset_id,omitempty"`

	// UpdatedAt is when the document last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// ContentFilter narrows a content store query.
// Zero values do not filter.
type ContentFilter struct {
	// Statuses restricts to the given publication states.
	Statuses []ContentStatus

	// Types restricts to the given type tags.
	Types []string

	// CoverAssetID restricts to documents using this asset as cover.
	CoverAssetID int64

	// Offset skips this many documents in ascending id order.
	Offset int

	// Limit caps the result size. Zero means no limit.
	Limit int
}

// Matches reports whether a document passes the status, type and cover
// filters. Offset and Limit are applied by the store.
func (f ContentFilter) Matches(doc *ContentDocument) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, doc.Status) {
		return false
	}
	if len(f.Types) > 0 && !containsString(f.Types, doc.Type) {
		return false
	}
	if f.CoverAssetID > 0 && doc.CoverAssetID != f.CoverAssetID {
		return false
	}
	return true
}

// ContentURL pairs a document id with its rendered location.
type ContentURL struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

func containsStatus(list []ContentStatus, s ContentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
