package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepFlow", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepFlow training data server. Query logged advanced-technique set results (drop sets, rest-pause, myo-reps, cluster sets and more), per-technique summaries, and preview set plans. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetTechniqueResults, Handler: h.getTechniqueResults},
		server.ServerTool{Tool: toolGetTechniqueResult, Handler: h.getTechniqueResult},
		server.ServerTool{Tool: toolGetTechniqueSummary, Handler: h.getTechniqueSummary},
		server.ServerTool{Tool: toolPreviewTechnique, Handler: h.previewTechnique},
		server.ServerTool{Tool: toolListTechniqueTypes, Handler: h.listTechniqueTypes},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentResults, Handler: h.recentResults},
		server.ServerResource{Resource: resTechniqueCatalog, Handler: h.techniqueCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}
