package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repflow/internal/models"
)

// InsertResults batch-inserts technique results. Re-sent rows (same ID, e.g.
// a journal drained twice) are skipped. Returns count inserted.
func (db *DB) InsertResults(ctx context.Context, rows []models.ResultRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO technique_results (id, user_id, exercise_name, technique, config,
		rationale, initial_weight_kg, set_weights, set_reps, activation_reps, held_seconds,
		actual_rpe, total_reps, completed_fully, notes, performed_at) VALUES `
	args := make([]any, 0, len(rows)*16)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 16
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
			base+9, base+10, base+11, base+12, base+13, base+14, base+15, base+16,
		))
		args = append(args, r.ID, r.UserID, r.ExerciseName, r.Technique, r.ConfigJSON,
			r.Rationale, r.InitialWeight, r.SetWeights, r.SetReps, r.ActivationReps,
			r.HeldSeconds, r.ActualRPE, r.TotalReps, r.CompletedFully, r.Notes, r.PerformedAt)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting technique results: %w", err)
	}
	return tag.RowsAffected(), nil
}

const resultColumns = `id, user_id, exercise_name, technique, config, rationale,
	initial_weight_kg, set_weights, set_reps, activation_reps, held_seconds,
	actual_rpe, total_reps, completed_fully, notes, performed_at`

// QueryResults retrieves technique results in a date range, optionally
// filtered by technique type and exercise name (substring match).
func (db *DB) QueryResults(ctx context.Context, start, end time.Time, userID int, techniqueFilter, exerciseFilter string) ([]models.ResultRow, error) {
	query := `SELECT ` + resultColumns + `
		 FROM technique_results
		 WHERE performed_at >= $1 AND performed_at < $2 AND user_id = $3`
	args := []any{start, end, userID}

	if techniqueFilter != "" {
		args = append(args, techniqueFilter)
		query += fmt.Sprintf(" AND technique = $%d", len(args))
	}
	if exerciseFilter != "" {
		args = append(args, "%"+exerciseFilter+"%")
		query += fmt.Sprintf(" AND exercise_name ILIKE $%d", len(args))
	}
	query += " ORDER BY performed_at DESC"

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying technique results: %w", err)
	}
	defer rows.Close()

	var result []models.ResultRow
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetResult retrieves a single technique result by ID.
func (db *DB) GetResult(ctx context.Context, id uuid.UUID, userID int) (*models.ResultRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+resultColumns+` FROM technique_results WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return nil, fmt.Errorf("querying technique result: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanResult(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(s rowScanner) (models.ResultRow, error) {
	var r models.ResultRow
	if err := s.Scan(&r.ID, &r.UserID, &r.ExerciseName, &r.Technique, &r.ConfigJSON,
		&r.Rationale, &r.InitialWeight, &r.SetWeights, &r.SetReps, &r.ActivationReps,
		&r.HeldSeconds, &r.ActualRPE, &r.TotalReps, &r.CompletedFully, &r.Notes,
		&r.PerformedAt); err != nil {
		return r, fmt.Errorf("scanning technique result: %w", err)
	}
	return r, nil
}
