package mcp

import (
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Content stores documents and answers index queries.
	Content driving.ContentService

	// Usage runs usage scans.
	Usage driving.UsageService

	// Index reindexes single documents. Optional.
	Index driving.IndexService

	// Assets reads asset attribution. Optional.
	Assets driving.AssetService

	// Overlay previews caption injection. Optional.
	Overlay driving.OverlayService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Content == nil {
		return ErrMissingContentService
	}
	if p.Usage == nil {
		return ErrMissingUsageService
	}
	return nil
}
