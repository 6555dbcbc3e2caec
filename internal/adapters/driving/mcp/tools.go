package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

// errServiceUnavailable is returned by tools whose optional port is unset.
var errServiceUnavailable = errors.New("mcp: service not configured")

// OverlayInput is the input schema for the overlay tool.
type OverlayInput struct {
	HTML string `json:"html" jsonschema:"the markup to add attribution captions to"`
	Page bool   `json:"page,omitempty" jsonschema:"treat the markup as a whole rendered page"`
}

// OverlayOutput is the output schema for the overlay tool.
type OverlayOutput struct {
	HTML string `json:"html"`
}

// ReindexInput is the input schema for the reindex tool.
type ReindexInput struct {
	ContentID int64 `json:"content_id" jsonschema:"the content document to reindex"`
	Refresh   bool  `json:"refresh,omitempty" jsonschema:"rebuild even if the document is already indexed"`
}

// ContentIDInput selects a content document.
type ContentIDInput struct {
	ContentID int64 `json:"content_id" jsonschema:"the content document id"`
}

// AssetIDInput selects an asset.
type AssetIDInput struct {
	AssetID int64 `json:"asset_id" jsonschema:"the asset id"`
}

// AssetsOfOutput is the output schema for the assets_of tool.
type AssetsOfOutput struct {
	ContentID int64               `json:"content_id"`
	Entries   []domain.IndexEntry `json:"entries"`
	Count     int                 `json:"count"`
}

// DocumentsOfOutput is the output schema for the documents_of tool.
type DocumentsOfOutput struct {
	AssetID    int64   `json:"asset_id"`
	ContentIDs []int64 `json:"content_ids"`
	Count      int     `json:"count"`
}

// NextBatchInput is the input schema for the next_batch tool.
type NextBatchInput struct {
	Size         int     `json:"size,omitempty" jsonschema:"batch size (clamped, default 50)"`
	Offset       int     `json:"offset,omitempty" jsonschema:"assets to skip"`
	OnlyMissing  bool    `json:"only_missing,omitempty" jsonschema:"only assets never scanned"`
	ProcessedIDs []int64 `json:"processed_ids,omitempty" jsonschema:"assets already handled this session"`
}

// NextBatchOutput is the output schema for the next_batch tool.
type NextBatchOutput struct {
	IDs   []int64 `json:"ids"`
	Total int     `json:"total"`
}

// ScanBatchInput is the input schema for the scan_batch tool.
type ScanBatchInput struct {
	IDs []int64 `json:"ids" jsonschema:"asset ids to scan"`
}

// ScanBatchOutput is the output schema for the scan_batch tool.
type ScanBatchOutput struct {
	Results            []ScanItemOutput  `json:"results"`
	Stats              domain.BatchStats `json:"stats"`
	SuggestedBatchSize int               `json:"suggested_batch_size"`
}

// ScanItemOutput is the outcome of scanning one asset.
type ScanItemOutput struct {
	AssetID int64            `json:"asset_id"`
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	FoundIn domain.UsageRefs `json:"found_in"`
}

// UsageStatusOutput is the output schema for the usage_status tool.
type UsageStatusOutput struct {
	AssetID       int64            `json:"asset_id"`
	Status        string           `json:"status"`
	LastCheckedAt string           `json:"last_checked_at,omitempty"`
	FoundIn       domain.UsageRefs `json:"found_in"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assets_of",
		Description: "List the assets a content document references",
	}, s.handleAssetsOf)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "documents_of",
		Description: "List the content documents referencing an asset",
	}, s.handleDocumentsOf)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "next_batch",
		Description: "Get the next batch of asset ids to scan for usage",
	}, s.handleNextBatch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_batch",
		Description: "Scan assets for usage and report the suggested next batch size",
	}, s.handleScanBatch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "usage_status",
		Description: "Classify an asset as used, unused or unknown from its last scan",
	}, s.handleUsageStatus)

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reindex",
			Description: "Rebuild the asset index of one content document",
		}, s.handleReindex)
	}

	if s.ports.Overlay != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "overlay",
			Description: "Add attribution captions to markup",
		}, s.handleOverlay)
	}
}

func (s *Server) handleAssetsOf(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContentIDInput,
) (*mcp.CallToolResult, AssetsOfOutput, error) {
	entries, err := s.ports.Content.AssetsOf(ctx, input.ContentID)
	if err != nil {
		return nil, AssetsOfOutput{}, err
	}
	if entries == nil {
		entries = domain.ForwardIndex{}
	}
	return nil, AssetsOfOutput{ContentID: input.ContentID, Entries: entries, Count: len(entries)}, nil
}

func (s *Server) handleDocumentsOf(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssetIDInput,
) (*mcp.CallToolResult, DocumentsOfOutput, error) {
	ids, err := s.ports.Content.DocumentsOf(ctx, input.AssetID)
	if err != nil {
		return nil, DocumentsOfOutput{}, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return nil, DocumentsOfOutput{AssetID: input.AssetID, ContentIDs: ids, Count: len(ids)}, nil
}

func (s *Server) handleNextBatch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NextBatchInput,
) (*mcp.CallToolResult, NextBatchOutput, error) {
	size := input.Size
	if size <= 0 {
		size = domain.DefaultBatchSize
	}
	ids, err := s.ports.Usage.GetBatch(ctx, size, input.Offset, input.OnlyMissing, input.ProcessedIDs)
	if err != nil {
		return nil, NextBatchOutput{}, err
	}
	total, err := s.ports.Usage.TotalCount(ctx, input.OnlyMissing)
	if err != nil {
		return nil, NextBatchOutput{}, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return nil, NextBatchOutput{IDs: ids, Total: total}, nil
}

func (s *Server) handleScanBatch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ScanBatchInput,
) (*mcp.CallToolResult, ScanBatchOutput, error) {
	if len(input.IDs) == 0 {
		return nil, ScanBatchOutput{}, fmt.Errorf("ids: %w", domain.ErrInvalidInput)
	}
	run := s.ports.Usage.RunBatch(ctx, input.IDs)

	output := ScanBatchOutput{
		Results:            make([]ScanItemOutput, len(run.Results)),
		Stats:              run.Stats,
		SuggestedBatchSize: run.SuggestedBatchSize,
	}
	for i, r := range run.Results {
		output.Results[i] = ScanItemOutput{AssetID: r.AssetID, Success: r.Success, Error: r.Error}
		if r.Record != nil {
			output.Results[i].FoundIn = r.Record.FoundIn
		}
	}
	return nil, output, nil
}

func (s *Server) handleUsageStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssetIDInput,
) (*mcp.CallToolResult, UsageStatusOutput, error) {
	status, record, err := s.ports.Usage.Status(ctx, input.AssetID)
	if err != nil {
		return nil, UsageStatusOutput{}, err
	}
	output := UsageStatusOutput{AssetID: input.AssetID, Status: string(status)}
	if record != nil {
		output.FoundIn = record.FoundIn
		if !record.LastCheckedAt.IsZero() {
			output.LastCheckedAt = record.LastCheckedAt.UTC().Format(time.RFC3339)
		}
	}
	return nil, output, nil
}

func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReindexInput,
) (*mcp.CallToolResult, domain.ReindexResult, error) {
	if s.ports.Index == nil {
		return nil, domain.ReindexResult{}, errServiceUnavailable
	}
	doc, err := s.ports.Content.Get(ctx, input.ContentID)
	if err != nil {
		return nil, domain.ReindexResult{}, err
	}
	result, err := s.ports.Index.Reindex(ctx, doc.ID, doc.Body, domain.ReindexOptions{Refresh: input.Refresh})
	if err != nil {
		return nil, domain.ReindexResult{}, err
	}
	return nil, result, nil
}

func (s *Server) handleOverlay(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OverlayInput,
) (*mcp.CallToolResult, OverlayOutput, error) {
	if s.ports.Overlay == nil {
		return nil, OverlayOutput{}, errServiceUnavailable
	}
	if input.Page {
		return nil, OverlayOutput{HTML: s.ports.Overlay.InjectPage(ctx, input.HTML)}, nil
	}
	return nil, OverlayOutput{HTML: s.ports.Overlay.Inject(ctx, input.HTML)}, nil
}
