// Package journal persists executed technique results on the client side
// until they have been uploaded to the server. Results survive crashes and
// offline sessions; uploads drain the journal in batches.
package journal

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/claude/repflow/internal/models"
)

// Journal is a SQLite-backed queue of results awaiting upload.
type Journal struct {
	db *sql.DB
}

// Entry is one journaled result.
type Entry struct {
	ID      string
	Payload models.ResultPayload
}

// Open opens (or creates) the journal database at dir/journal.db.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "journal.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS pending_results (
		id          TEXT PRIMARY KEY,
		payload     TEXT NOT NULL,
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		uploaded_at TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal table: %w", err)
	}

	return &Journal{db: db}, nil
}

// Append records a result for later upload. The entry ID is derived from the
// payload content, so journaling the same result twice is a no-op.
func (j *Journal) Append(p models.ResultPayload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	sum := sha256.Sum256(data)
	id := hex.EncodeToString(sum[:])

	_, err = j.db.Exec(
		`INSERT OR IGNORE INTO pending_results (id, payload) VALUES (?, ?)`,
		id, string(data),
	)
	if err != nil {
		return "", fmt.Errorf("journaling result: %w", err)
	}
	return id, nil
}

// Pending returns all entries not yet marked as uploaded, oldest first.
func (j *Journal) Pending() ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, payload FROM pending_results
		 WHERE uploaded_at IS NULL
		 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("querying pending results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var raw string
		if err := rows.Scan(&e.ID, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &e.Payload); err != nil {
			return nil, fmt.Errorf("decoding journaled payload %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PendingCount returns the number of entries awaiting upload.
func (j *Journal) PendingCount() (int, error) {
	var n int
	err := j.db.QueryRow(
		`SELECT COUNT(*) FROM pending_results WHERE uploaded_at IS NULL`).Scan(&n)
	return n, err
}

// MarkUploaded records that the given entries were accepted by the server.
func (j *Journal) MarkUploaded(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.Exec(
			`UPDATE pending_results SET uploaded_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("marking %s uploaded: %w", id, err)
		}
	}
	return tx.Commit()
}

// Prune deletes entries that were uploaded, keeping the journal small.
func (j *Journal) Prune() (int64, error) {
	res, err := j.db.Exec(`DELETE FROM pending_results WHERE uploaded_at IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
