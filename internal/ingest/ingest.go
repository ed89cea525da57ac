// Package ingest validates incoming technique-result payloads and converts
// them into storage rows.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/claude/repflow/internal/models"
	"github.com/claude/repflow/internal/storage"
)

// Result holds the outcome of an ingest operation.
type Result struct {
	Received int      `json:"received"`
	Inserted int64    `json:"inserted"`
	Skipped  int64    `json:"skipped"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// Provider validates and stores technique execution results.
type Provider struct {
	db  *storage.DB
	log *slog.Logger
}

// NewProvider creates a new result ingest provider.
func NewProvider(db *storage.DB, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// RowFromPayload converts one wire payload into a storage row, validating
// the embedded configuration. The row ID is deterministic when the payload
// carries none, keyed on user/exercise/time/technique, so re-sent payloads
// dedupe on insert.
func RowFromPayload(p models.ResultPayload) (models.ResultRow, error) {
	var row models.ResultRow
	if p.ExerciseName == "" {
		return row, fmt.Errorf("exercise_name is required")
	}
	if p.PerformedAt.IsZero() {
		return row, fmt.Errorf("performed_at is required")
	}
	if err := p.Result.Config.Validate(); err != nil {
		return row, fmt.Errorf("result config: %w", err)
	}
	if p.Result.InitialWeight <= 0 {
		return row, fmt.Errorf("initial weight must be positive, got %g", p.Result.InitialWeight)
	}
	if len(p.Result.SetWeights) != len(p.Result.SetReps) {
		return row, fmt.Errorf("set_weights and set_reps length mismatch (%d vs %d)",
			len(p.Result.SetWeights), len(p.Result.SetReps))
	}

	cfgJSON, err := json.Marshal(p.Result.Config)
	if err != nil {
		return row, fmt.Errorf("encoding config: %w", err)
	}

	userID := p.UserID
	if userID == 0 {
		userID = 1
	}

	row = models.ResultRow{
		ID: uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%d/%s/%d/%s",
			userID, p.ExerciseName, p.PerformedAt.UnixNano(), p.Result.Technique)),
		UserID:         userID,
		ExerciseName:   p.ExerciseName,
		Technique:      string(p.Result.Technique),
		ConfigJSON:     cfgJSON,
		Rationale:      p.Rationale,
		InitialWeight:  p.Result.InitialWeight,
		SetWeights:     p.Result.SetWeights,
		SetReps:        p.Result.SetReps,
		TotalReps:      p.Result.TotalReps,
		CompletedFully: p.Result.CompletedFully,
		Notes:          p.Result.Notes,
		PerformedAt:    p.PerformedAt.UTC(),
	}
	if p.Result.ActivationReps > 0 {
		v := p.Result.ActivationReps
		row.ActivationReps = &v
	}
	if p.Result.HeldSeconds > 0 {
		v := p.Result.HeldSeconds
		row.HeldSeconds = &v
	}
	if p.Result.ActualRPE > 0 {
		v := p.Result.ActualRPE
		row.ActualRPE = &v
	}
	return row, nil
}

// Ingest validates a batch of payloads and inserts the valid rows. Invalid
// payloads are counted and reported, never silently dropped; a batch with
// only invalid payloads is not an error.
func (p *Provider) Ingest(ctx context.Context, payloads []models.ResultPayload, userID int) (*Result, error) {
	res := &Result{Received: len(payloads)}
	rows := make([]models.ResultRow, 0, len(payloads))

	for i, pl := range payloads {
		if pl.UserID == 0 {
			pl.UserID = userID
		}
		row, err := RowFromPayload(pl)
		if err != nil {
			res.Rejected++
			res.Errors = append(res.Errors, fmt.Sprintf("payload %d: %v", i, err))
			p.log.Warn("rejected result payload", "index", i, "error", err)
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		inserted, err := p.db.InsertResults(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("inserting results: %w", err)
		}
		res.Inserted = inserted
		res.Skipped = int64(len(rows)) - inserted
	}
	return res, nil
}
