package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Asset is an uploaded media file with attribution metadata.
// It is owned by the asset store.
type Asset struct {
	// ID is the positive numeric identifier.
	ID int64 `json:"id"`

	// Location is the canonical URL or upload-relative path.
	Location string `json:"location"`

	// SourceText is the attribution line shown to readers.
	SourceText string `json:"source_text"`

	// SourceURL optionally links the attribution line.
	SourceURL string `json:"source_url,omitempty"`

	// License is the license name, a key into the license table.
	License string `json:"license,omitempty"`

	// UsesDefaultAttribution marks the asset as credited with the site-wide
	// default attribution text.
	UsesDefaultAttribution bool `json:"uses_default_attribution"`

	// HideAttribution is the owner's opt-out from attribution display.
	HideAttribution bool `json:"hide_attribution"`

	// UploaderID references the uploading user.
	UploaderID int64 `json:"uploader_id,omitempty"`

	// Extension is the lower-case file extension without the dot.
	Extension string `json:"extension"`

	// CreatedAt is when the asset was uploaded.
	CreatedAt time.Time `json:"created_at"`
}

// HasAttribution reports whether the asset has anything to display.
func (a *Asset) HasAttribution() bool {
	return a.SourceText != "" || a.UsesDefaultAttribution
}

// AssetQuery selects asset ids for batch scanning.
type AssetQuery struct {
	// ExcludeIDs are never returned.
	ExcludeIDs []int64

	// Extensions restricts to the given extensions. Empty means all.
	Extensions []string

	// Offset skips this many matching assets in ascending id order.
	Offset int

	// Limit caps the result size. Zero means no limit.
	Limit int
}

// Well-known asset attribute keys.
const (
	AttrSourceText    = "source_text"
	AttrSourceURL     = "source_url"
	AttrLicense       = "license"
	AttrDefaultSource = "uses_default_attribution"
	AttrHideOverlay   = "hide_attribution"
)

// Attribute returns the named attribution field as a string.
func (a *Asset) Attribute(key string) (string, error) {
	switch key {
	case AttrSourceText:
		return a.SourceText, nil
	case AttrSourceURL:
		return a.SourceURL, nil
	case AttrLicense:
		return a.License, nil
	case AttrDefaultSource:
		return strconv.FormatBool(a.UsesDefaultAttribution), nil
	case AttrHideOverlay:
		return strconv.FormatBool(a.HideAttribution), nil
	default:
		return "", fmt.Errorf("asset attribute %q: %w", key, ErrInvalidInput)
	}
}

// SetAttribute updates the named attribution field from its string form.
func (a *Asset) SetAttribute(key, value string) error {
	switch key {
	case AttrSourceText:
		a.SourceText = value
	case AttrSourceURL:
		a.SourceURL = value
	case AttrLicense:
		a.License = value
	case AttrDefaultSource, AttrHideOverlay:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("asset attribute %q: %w", key, ErrInvalidInput)
		}
		if key == AttrDefaultSource {
			a.UsesDefaultAttribution = b
		} else {
			a.HideAttribution = b
		}
	default:
		return fmt.Errorf("asset attribute %q: %w", key, ErrInvalidInput)
	}
	return nil
}
