package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for sourcemark resources.
	uriScheme = "sourcemark://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the usage summary.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "usage/summary",
		Name:        "usage-summary",
		Description: "Counts of used, unused and unknown assets",
		MIMEType:    "application/json",
	}, s.handleUsageSummaryResource)

	// Template for asset attribution.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "assets/{assetId}",
		Name:        "asset",
		Description: "Attribution fields of a specific asset",
		MIMEType:    "application/json",
	}, s.handleAssetResource)

	// Template for document markup.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "content/{contentId}",
		Name:        "content-body",
		Description: "Stored markup of a specific content document",
		MIMEType:    "text/html",
	}, s.handleContentResource)
}

// handleUsageSummaryResource returns the usage summary.
func (s *Server) handleUsageSummaryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	summary, err := s.ports.Usage.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarising usage: %w", err)
	}
	return jsonResource(req.Params.URI, summary)
}

// handleAssetResource returns one asset.
func (s *Server) handleAssetResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Assets == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract assetId from URI: sourcemark://assets/{assetId}
	id, ok := extractID(req.Params.URI, "assets/")
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	asset, err := s.ports.Assets.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return jsonResource(req.Params.URI, asset)
}

// handleContentResource returns the markup of one document.
func (s *Server) handleContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract contentId from URI: sourcemark://content/{contentId}
	id, ok := extractID(req.Params.URI, "content/")
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Content.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting content: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/html",
			Text:     doc.Body,
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractID extracts the positive id from a URI like sourcemark://{kind}{id}.
func extractID(uri, kind string) (int64, bool) {
	prefix := uriScheme + kind
	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(uri, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
