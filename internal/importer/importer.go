// Package importer loads exported result files directly into the database,
// bypassing the HTTP ingest path. Used for server-side bulk loads, including
// journals exported from devices that never reach the server over the network.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/repflow/internal/ingest"
	"github.com/claude/repflow/internal/models"
	"github.com/claude/repflow/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	ResultsRead     int
	ResultsInserted int64
	ResultsSkipped  int64
	ResultsRejected int
}

// Importer reads .json result files from a directory and inserts rows
// into the database.
type Importer struct {
	db     *storage.DB
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer.
func New(db *storage.DB, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{db: db, log: log, dryRun: dryRun}
}

// Import processes all .json files under dir. Each file holds either a
// single result payload or an array of them.
func (imp *Importer) Import(ctx context.Context, dir string, userID int) (*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &imp.stats, fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			imp.stats.FilesSkipped++
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, filepath.Join(dir, name), userID); err != nil {
			imp.stats.FilesErrored++
			imp.log.Error("import failed", "file", name, "error", err)
			continue
		}
		imp.stats.FilesProcessed++
	}

	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string, userID int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	payloads, err := decodePayloads(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	imp.stats.ResultsRead += len(payloads)

	var rows []models.ResultRow
	for _, p := range payloads {
		if p.UserID == 0 {
			p.UserID = userID
		}
		row, err := ingest.RowFromPayload(p)
		if err != nil {
			imp.stats.ResultsRejected++
			imp.log.Warn("rejecting result", "file", filepath.Base(path), "error", err)
			continue
		}
		rows = append(rows, row)
	}

	if imp.dryRun {
		imp.log.Info("dry run: would insert results", "file", filepath.Base(path), "results", len(rows))
		return nil
	}

	inserted, err := imp.db.InsertResults(ctx, rows)
	if err != nil {
		return fmt.Errorf("inserting results: %w", err)
	}
	imp.stats.ResultsInserted += inserted
	imp.stats.ResultsSkipped += int64(len(rows)) - inserted

	imp.log.Info("imported file",
		"file", filepath.Base(path),
		"results", len(rows),
		"inserted", inserted)
	return nil
}

// decodePayloads accepts either a JSON array of payloads or a single
// payload object.
func decodePayloads(data []byte) ([]models.ResultPayload, error) {
	var payloads []models.ResultPayload
	if err := json.Unmarshal(data, &payloads); err == nil {
		return payloads, nil
	}

	var single models.ResultPayload
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []models.ResultPayload{single}, nil
}
