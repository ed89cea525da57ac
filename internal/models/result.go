// Package models holds the row shapes shared between the ingest, storage
// and journal layers.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/claude/repflow/internal/technique"
)

// ResultRow is a technique execution result ready for insertion into the
// technique_results table. SetWeights/SetReps are the canonical per-step
// arrays; per-technique views are reconstructed from them on read.
type ResultRow struct {
	ID             uuid.UUID `json:"id"`
	UserID         int       `json:"user_id"`
	ExerciseName   string    `json:"exercise_name"`
	Technique      string    `json:"technique"`
	ConfigJSON     []byte    `json:"-"`
	Rationale      string    `json:"rationale,omitempty"`
	InitialWeight  float64   `json:"initial_weight_kg"`
	SetWeights     []float64 `json:"set_weights"`
	SetReps        []int     `json:"set_reps"`
	ActivationReps *int      `json:"activation_reps,omitempty"`
	HeldSeconds    *int      `json:"held_seconds,omitempty"`
	ActualRPE      *int      `json:"actual_rpe,omitempty"`
	TotalReps      int       `json:"total_reps"`
	CompletedFully bool      `json:"completed_fully"`
	Notes          string    `json:"notes,omitempty"`
	PerformedAt    time.Time `json:"performed_at"`
}

// ResultPayload is the wire shape accepted by the ingest endpoint and
// written by session hosts: one executed technique plus its context.
type ResultPayload struct {
	UserID       int              `json:"user_id,omitempty"`
	ExerciseName string           `json:"exercise_name"`
	Rationale    string           `json:"rationale,omitempty"`
	PerformedAt  time.Time        `json:"performed_at"`
	Result       technique.Result `json:"result"`
}
