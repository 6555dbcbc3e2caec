package domain

import "time"

// AttributeRef locates a per-document attribute holding a reference.
type AttributeRef struct {
	ContentID int64  `json:"content_id"`
	Key       string `json:"key"`
}

// SettingRef locates a global setting holding a reference.
// Path is the dotted route into a structured value, empty for scalars.
type SettingRef struct {
	Key  string `json:"key"`
	Path string `json:"path,omitempty"`
}

// UserAttributeRef locates a user attribute holding a reference.
type UserAttributeRef struct {
	UserID int64  `json:"user_id"`
	Key    string `json:"key"`
}

// UsageRefs groups every place an asset was found.
type UsageRefs struct {
	ContentIDs     []int64            `json:"content_ids,omitempty"`
	Attributes     []AttributeRef     `json:"attributes,omitempty"`
	Settings       []SettingRef       `json:"settings,omitempty"`
	UserAttributes []UserAttributeRef `json:"user_attributes,omitempty"`
}

// IsEmpty reports whether no store returned a reference.
func (r UsageRefs) IsEmpty() bool {
	return len(r.ContentIDs) == 0 && len(r.Attributes) == 0 &&
		len(r.Settings) == 0 && len(r.UserAttributes) == 0
}

// UsageRecord is the stored result of one usage scan of an asset.
// It is overwritten on every pass.
type UsageRecord struct {
	AssetID       int64     `json:"asset_id"`
	FoundIn       UsageRefs `json:"found_in"`
	LastCheckedAt time.Time `json:"last_checked_at"`
}

// UsageStatus classifies an asset from its latest usage record.
type UsageStatus string

// Usage classifications.
const (
	UsageUsed    UsageStatus = "used"
	UsageUnused  UsageStatus = "unused"
	UsageUnknown UsageStatus = "unknown"
)

// Status classifies the record. An empty record checked within maxAge is
// unused; an empty record older than that is unknown. A zero maxAge never
// expires a record.
func (r *UsageRecord) Status(now time.Time, maxAge time.Duration) UsageStatus {
	if r == nil || r.LastCheckedAt.IsZero() {
		return UsageUnknown
	}
	if !r.FoundIn.IsEmpty() {
		return UsageUsed
	}
	if maxAge > 0 && now.Sub(r.LastCheckedAt) > maxAge {
		return UsageUnknown
	}
	return UsageUnused
}

// ScanResult is the outcome of scanning one asset.
type ScanResult struct {
	AssetID int64        `json:"asset_id"`
	Record  *UsageRecord `json:"record,omitempty"`
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
}

// UsageSummary counts assets by usage status.
type UsageSummary struct {
	Total   int `json:"total"`
	Used    int `json:"used"`
	Unused  int `json:"unused"`
	Unknown int `json:"unknown"`
}

// Add counts one asset under its status.
func (s *UsageSummary) Add(status UsageStatus) {
	s.Total++
	switch status {
	case UsageUsed:
		s.Used++
	case UsageUnused:
		s.Unused++
	default:
		s.Unknown++
	}
}
