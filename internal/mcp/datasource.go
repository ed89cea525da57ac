package mcp

import (
	"context"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/claude/repflow/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryResults(ctx context.Context, start, end time.Time, userID int, techniqueFilter, exerciseFilter string) ([]models.ResultRow, error)
	GetResult(ctx context.Context, id uuid.UUID, userID int) (*models.ResultRow, error)
	GetTechniqueSummary(ctx context.Context, start, end time.Time, userID int) ([]storage.TechniqueSummary, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
