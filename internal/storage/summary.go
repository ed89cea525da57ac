package storage

import (
	"context"
	"fmt"
	"time"
)

// TechniqueSummary holds aggregated stats for one technique type over a
// time range.
type TechniqueSummary struct {
	Technique      string  `json:"technique"`
	Executions     int     `json:"executions"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
	TotalReps      int     `json:"total_reps"`
	AvgTotalReps   float64 `json:"avg_total_reps"`
}

// GetTechniqueSummary returns per-technique aggregates for a user over a
// date range, most-used technique first.
func (db *DB) GetTechniqueSummary(ctx context.Context, start, end time.Time, userID int) ([]TechniqueSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT technique,
		        COUNT(*)::int,
		        COUNT(*) FILTER (WHERE completed_fully)::int,
		        COALESCE(SUM(total_reps), 0)::int,
		        COALESCE(AVG(total_reps), 0)
		 FROM technique_results
		 WHERE performed_at >= $1 AND performed_at < $2 AND user_id = $3
		 GROUP BY technique
		 ORDER BY COUNT(*) DESC`,
		start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying technique summary: %w", err)
	}
	defer rows.Close()

	var result []TechniqueSummary
	for rows.Next() {
		var s TechniqueSummary
		if err := rows.Scan(&s.Technique, &s.Executions, &s.Completed, &s.TotalReps, &s.AvgTotalReps); err != nil {
			return nil, fmt.Errorf("scanning technique summary: %w", err)
		}
		if s.Executions > 0 {
			s.CompletionRate = float64(s.Completed) / float64(s.Executions)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
