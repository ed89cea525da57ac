package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/repflow/internal/technique"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetTechniqueResults = mcp.NewTool("get_technique_results",
	mcp.WithDescription("Retrieve logged technique set results (weights, reps, completion) over a time range, optionally filtered by technique type or exercise name."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("technique", mcp.Description("Technique type filter (e.g. drop_set, rest_pause, myo_reps)")),
	mcp.WithString("exercise", mcp.Description("Exercise name filter (partial match, e.g. 'bench')")),
)

var toolGetTechniqueResult = mcp.NewTool("get_technique_result",
	mcp.WithDescription("Retrieve a single technique result by its ID, including the full per-set breakdown and configuration."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Result UUID")),
)

var toolGetTechniqueSummary = mcp.NewTool("get_technique_summary",
	mcp.WithDescription("Get per-technique aggregate statistics (session count, total reps, average weight, completion rate) over a time range."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolPreviewTechnique = mcp.NewTool("preview_technique",
	mcp.WithDescription("Expand a technique configuration into the flat list of virtual sets it would execute (weights, target reps, rest and hold durations), without logging anything."),
	mcp.WithString("config", mcp.Required(), mcp.Description(`Technique configuration JSON, e.g. {"type":"drop_set","drop_set":{"drops":2,"drop_percentage":20}}`)),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Working weight in kg for the first set")),
)

var toolListTechniqueTypes = mcp.NewTool("list_technique_types",
	mcp.WithDescription("List all supported technique types and whether each is driven by a specialized set-execution engine."),
)

// --- Tool handlers ---

func (h *handlers) getTechniqueResults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	rows, err := h.ds.QueryResults(ctx, start, end, uid,
		req.GetString("technique", ""), req.GetString("exercise", ""))
	if err != nil {
		h.log.Error("mcp get_technique_results", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTechniqueResult(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid result ID: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	row, err := h.ds.GetResult(ctx, id, uid)
	if err != nil {
		h.log.Error("mcp get_technique_result", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if row == nil {
		return mcp.NewToolResultError("result not found"), nil
	}

	result, err := mcp.NewToolResultJSON(row)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTechniqueSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	summary, err := h.ds.GetTechniqueSummary(ctx, start, end, uid)
	if err != nil {
		h.log.Error("mcp get_technique_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summary)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) previewTechnique(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfgStr, err := req.RequireString("config")
	if err != nil {
		return mcp.NewToolResultError("config parameter is required"), nil
	}
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}

	var cfg technique.Config
	if err := json.Unmarshal([]byte(cfgStr), &cfg); err != nil {
		return mcp.NewToolResultError("invalid config JSON: " + err.Error()), nil
	}

	sets, err := technique.Expand(cfg, weight)
	if err != nil {
		return mcp.NewToolResultError("invalid configuration: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"technique":    cfg.Type,
		"has_engine":   technique.HasEngine(cfg.Type),
		"virtual_sets": sets,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listTechniqueTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entry struct {
		Type      technique.Type `json:"type"`
		HasEngine bool           `json:"has_engine"`
	}
	list := make([]entry, 0, len(technique.AllTypes))
	for _, t := range technique.AllTypes {
		list = append(list, entry{Type: t, HasEngine: technique.HasEngine(t)})
	}

	result, err := mcp.NewToolResultJSON(list)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
