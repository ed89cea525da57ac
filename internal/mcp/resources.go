package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/repflow/internal/technique"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Resource definitions ---

var resRecentResults = mcp.NewResource(
	"repflow://recent_results",
	"Recent Technique Results",
	mcp.WithResourceDescription("Technique set results logged in the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resTechniqueCatalog = mcp.NewResource(
	"repflow://technique_catalog",
	"Technique Catalog",
	mcp.WithResourceDescription("All supported technique types and whether each has a specialized set-execution engine"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) recentResults(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	rows, err := h.ds.QueryResults(ctx, start, end, uid, "", "")
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) techniqueCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	type entry struct {
		Type      technique.Type `json:"type"`
		HasEngine bool           `json:"has_engine"`
	}
	list := make([]entry, 0, len(technique.AllTypes))
	for _, t := range technique.AllTypes {
		list = append(list, entry{Type: t, HasEngine: technique.HasEngine(t)})
	}

	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
