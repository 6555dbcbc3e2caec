// Package domain defines the core business entities for sourcemark.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ContentDocument: A publishable unit of markup that may embed assets
//   - Asset: An uploaded media file carrying attribution metadata
//   - ExtractionMatch: An image-bearing span located in markup
//   - IndexEntry: One asset reference in a document's forward index
//   - UsageRecord: The stored outcome of an asset usage scan
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
