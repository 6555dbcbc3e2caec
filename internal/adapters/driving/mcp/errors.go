// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sourcemark. It lets assistants inspect the content index, run usage
// scans and preview attribution overlays.
package mcp

import "errors"

var (
	// ErrMissingContentService is returned when the content service is not provided.
	ErrMissingContentService = errors.New("mcp: content service is required")

	// ErrMissingUsageService is returned when the usage service is not provided.
	ErrMissingUsageService = errors.New("mcp: usage service is required")
)
