package domain

import (
	"sort"
	"time"
)

const unknownDescription = "Unknown"

// Batch size bounds applied to every batch call.
const (
	MinBatchSize     = 10
	MaxBatchSize     = 200
	DefaultBatchSize = 50
)

// OverlayPosition defines where the caption sits over an image.
type OverlayPosition string

// Available overlay positions.
const (
	PositionTopLeft     OverlayPosition = "top-left"
	PositionTopRight    OverlayPosition = "top-right"
	PositionBottomLeft  OverlayPosition = "bottom-left"
	PositionBottomRight OverlayPosition = "bottom-right"
)

// IsValid returns true if the position is recognised.
func (p OverlayPosition) IsValid() bool {
	switch p {
	case PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p OverlayPosition) String() string {
	return string(p)
}

// Description returns a human-readable description of the position.
func (p OverlayPosition) Description() string {
	switch p {
	case PositionTopLeft:
		return "Top left corner"
	case PositionTopRight:
		return "Top right corner"
	case PositionBottomLeft:
		return "Bottom left corner"
	case PositionBottomRight:
		return "Bottom right corner"
	default:
		return unknownDescription
	}
}

// ExtractionSettings configures how markup is scanned and resolved.
type ExtractionSettings struct {
	// Extensions are the image file extensions the URL scanner accepts.
	Extensions []string

	// ClassPrefixes are class-name conventions embedding an asset id,
	// e.g. "wp-image-" for class="wp-image-42".
	ClassPrefixes []string

	// DataAttributes are attributes whose numeric value is an asset id.
	DataAttributes []string

	// FallbackAttributes are sibling attributes tried when src fails.
	FallbackAttributes []string

	// ListAllMarker marks a document that lists every asset.
	ListAllMarker string
}

// OverlaySettings configures attribution injection.
type OverlaySettings struct {
	// Enabled switches caption injection on.
	Enabled bool

	// WholePage captures the full rendered page rather than the content.
	WholePage bool

	// InlineStyles scans style attributes for background images.
	InlineStyles bool

	// StyleBlocks scans <style> blocks for background images.
	StyleBlocks bool

	// Label prefixes every caption.
	Label string

	// Position is where the caption sits.
	Position OverlayPosition

	// LinkSource links the caption to the asset's source URL.
	LinkSource bool

	// ShowLicense appends the license to the caption.
	ShowLicense bool

	// DefaultSource is the text for assets using the default attribution.
	DefaultSource string

	// ExclusionClass disables the overlay for any match containing it.
	ExclusionClass string

	// StopMarker ends overlay processing; later content is left as is.
	StopMarker string
}

// BatchSettings configures batch sizing.
type BatchSettings struct {
	// Size is the starting batch size.
	Size int

	// Min and Max clamp every requested or suggested size.
	Min int
	Max int

	// TargetTime is the wall time a batch should take.
	TargetTime time.Duration
}

// Clamp bounds n to [Min, Max].
func (b BatchSettings) Clamp(n int) int {
	if n < b.Min {
		return b.Min
	}
	if n > b.Max {
		return b.Max
	}
	return n
}

// UsageSettings configures the usage scanner.
type UsageSettings struct {
	// MaxAge is how long an empty record counts as unused.
	MaxAge time.Duration

	// Extensions restricts scans to assets with these extensions. Empty
	// scans every asset.
	Extensions []string

	// AttributeDenylist are per-document attribute keys never searched.
	AttributeDenylist []string

	// SettingsDenylist are setting keys never searched. Entries wrapped in
	// slashes are regular expressions.
	SettingsDenylist []string

	// UserAttributeDenylist are user attribute keys never searched.
	UserAttributeDenylist []string
}

// FetchSettings configures rendered-content retrieval.
type FetchSettings struct {
	// Timeout bounds a single request.
	Timeout time.Duration

	// RequestsPerSecond paces sequential requests. Zero disables pacing.
	RequestsPerSecond float64

	// UserAgent is sent with every request.
	UserAgent string
}

// Settings holds all application settings.
// It is passed to each component at construction.
type Settings struct {
	Extraction ExtractionSettings
	Overlay    OverlaySettings
	Batch      BatchSettings
	Usage      UsageSettings
	Fetch      FetchSettings

	// Licenses maps license names to their reference URL. An empty URL
	// means the license is shown without a link.
	Licenses map[string]string
}

// LicenseNames returns the configured license names sorted.
func (s *Settings) LicenseNames() []string {
	names := make([]string, 0, len(s.Licenses))
	for name := range s.Licenses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Extraction: ExtractionSettings{
			Extensions:         []string{"jpg", "jpeg", "png", "gif", "webp", "avif", "svg"},
			ClassPrefixes:      []string{"wp-image-"},
			DataAttributes:     []string{"data-id", "data-attachment-id"},
			FallbackAttributes: []string{"data-src", "data-lazy-src", "data-orig-file"},
			ListAllMarker:      "[credits-list]",
		},
		Overlay: OverlaySettings{
			Enabled:        true,
			Label:          "Source:",
			Position:       PositionTopLeft,
			LinkSource:     true,
			ShowLicense:    true,
			DefaultSource:  "",
			ExclusionClass: "credits-disable",
			StopMarker:     "<!-- credits-stop -->",
		},
		Batch: BatchSettings{
			Size:       DefaultBatchSize,
			Min:        MinBatchSize,
			Max:        MaxBatchSize,
			TargetTime: 20 * time.Second,
		},
		Usage: UsageSettings{
			MaxAge:                7 * 24 * time.Hour,
			AttributeDenylist:     []string{"_edit_lock", "_edit_last", "_wp_old_slug"},
			SettingsDenylist:      []string{"cron", "rewrite_rules", "/^_transient_/", "/^_site_transient_/"},
			UserAttributeDenylist: []string{"session_tokens"},
		},
		Fetch: FetchSettings{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
			UserAgent:         "sourcemark-indexer/1.0",
		},
		Licenses: map[string]string{
			"All Rights Reserved": "",
			"Public Domain Mark":  "https://creativecommons.org/publicdomain/mark/1.0/",
			"CC0":                 "https://creativecommons.org/publicdomain/zero/1.0/",
			"CC BY 4.0":           "https://creativecommons.org/licenses/by/4.0/",
			"CC BY-SA 4.0":        "https://creativecommons.org/licenses/by-sa/4.0/",
			"CC BY-NC 4.0":        "https://creativecommons.org/licenses/by-nc/4.0/",
		},
	}
}
