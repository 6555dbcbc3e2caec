package domain

// ExtractionMatch is an image-bearing span located in markup.
// Matches are request-scoped and never persisted.
type ExtractionMatch struct {
	// FullSpan is the complete matched markup, including a class-carrying
	// container when one wraps the image.
	FullSpan string

	// ContainerClass is the container's class attribute, or empty.
	ContainerClass string

	// InnerMarkup is the optional anchor plus image tag.
	InnerMarkup string

	// ImageTag is the <img> tag alone.
	ImageTag string

	// AnchorHref is the href of the wrapping anchor, if any.
	AnchorHref string

	// URL is the src value as written, which may be a data: URI.
	URL string

	// Offset is the byte offset of FullSpan in the scanned markup.
	Offset int
}

// StyleKind distinguishes where a style url() reference was found.
type StyleKind string

// Style reference locations.
const (
	StyleInline StyleKind = "inline"
	StyleBlock  StyleKind = "block"
)

// StyleMatch is a url() reference found in CSS embedded in markup.
type StyleMatch struct {
	// Kind tells an inline style attribute from a <style> block.
	Kind StyleKind

	// Tag is the element open tag (inline) or the whole block (block).
	Tag string

	// URL is the referenced location with quotes and whitespace trimmed.
	URL string

	// Offset is the byte offset of Tag in the scanned markup.
	Offset int
}
