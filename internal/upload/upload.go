// Package upload drains the client-side result journal into the RepFlow
// server's ingest endpoint in batches.
package upload

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/claude/repflow/internal/journal"
	"github.com/claude/repflow/internal/models"
)

// Stats tracks upload progress.
type Stats struct {
	Pending        int
	BatchesSent    int
	ResultsSent    int
	ResultsSkipped int
	Rejected       int
	UnknownTypes   []string
}

// Uploader reads pending results from the journal and POSTs them to the
// RepFlow server.
type Uploader struct {
	client    *Client
	journal   *journal.Journal
	dryRun    bool
	batchSize int
	log       *slog.Logger
	stats     Stats
}

// New creates a new Uploader.
func New(client *Client, j *journal.Journal, dryRun bool, batchSize int, log *slog.Logger) *Uploader {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Uploader{
		client:    client,
		journal:   j,
		dryRun:    dryRun,
		batchSize: batchSize,
		log:       log,
	}
}

// Run executes the upload pipeline: fetch known technique types, then drain
// the journal batch by batch, marking accepted entries as uploaded.
func (u *Uploader) Run() (*Stats, error) {
	// Fetch known techniques from server (skip in dry-run, accept all)
	var known map[string]bool
	if !u.dryRun {
		var err error
		known, err = u.client.FetchTechniques()
		if err != nil {
			return &u.stats, fmt.Errorf("fetching techniques: %w", err)
		}
		u.log.Info("fetched technique catalog", "types", len(known))
	}

	entries, err := u.journal.Pending()
	if err != nil {
		return &u.stats, fmt.Errorf("reading journal: %w", err)
	}
	u.stats.Pending = len(entries)

	unknownSet := map[string]bool{}
	var sendable []journal.Entry
	for _, e := range entries {
		tech := string(e.Payload.Result.Technique)
		if known != nil {
			if _, ok := known[tech]; !ok {
				if !unknownSet[tech] {
					unknownSet[tech] = true
					u.stats.UnknownTypes = append(u.stats.UnknownTypes, tech)
				}
				u.stats.ResultsSkipped++
				continue
			}
		}
		sendable = append(sendable, e)
	}

	for start := 0; start < len(sendable); start += u.batchSize {
		end := min(start+u.batchSize, len(sendable))
		if err := u.sendBatch(sendable[start:end]); err != nil {
			return &u.stats, err
		}
	}

	return &u.stats, nil
}

func (u *Uploader) sendBatch(batch []journal.Entry) error {
	payloads := make([]models.ResultPayload, len(batch))
	ids := make([]string, len(batch))
	for i, e := range batch {
		payloads[i] = e.Payload
		ids[i] = e.ID
	}

	if u.dryRun {
		u.log.Info("dry run: would upload batch", "results", len(batch))
		u.stats.BatchesSent++
		u.stats.ResultsSent += len(batch)
		return nil
	}

	data, err := json.Marshal(payloads)
	if err != nil {
		return fmt.Errorf("marshaling batch: %w", err)
	}

	resp, err := u.client.SendResults(data)
	if err != nil {
		return fmt.Errorf("sending batch: %w", err)
	}

	u.stats.BatchesSent++
	u.stats.ResultsSent += len(batch)
	u.stats.Rejected += resp.Rejected
	for _, msg := range resp.Errors {
		u.log.Warn("server rejected result", "error", msg)
	}

	if err := u.journal.MarkUploaded(ids); err != nil {
		return fmt.Errorf("marking batch uploaded: %w", err)
	}

	u.log.Info("uploaded batch",
		"results", len(batch),
		"inserted", resp.Inserted,
		"skipped", resp.Skipped,
		"rejected", resp.Rejected)
	return nil
}
