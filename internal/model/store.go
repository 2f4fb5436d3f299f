// Package model provides the data layer for quarry.
//
// The Store is the source of truth for the live working set - SQLite
// persistence for interactions and their labels. Published dataset
// versions are snapshots taken from here and live elsewhere (see
// internal/version); nothing in this package mutates a snapshot.
//
// # Thread Safety
//
// Store is safe for concurrent use. The underlying sql.DB handles
// connection pooling and serialization. Individual operations are
// atomic, but sequences of operations (read-modify-write) require
// external synchronization.
package model

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mwhitby/quarry/internal/logging"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Store handles persistence of interactions and labels.
type Store struct {
	db *sql.DB
}

// Open creates a SQLite store at the given path.
//
// The database is created if it doesn't exist, and migrations are
// applied automatically. Uses WAL mode for better concurrent read
// performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all
		// connections in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		input_text TEXT NOT NULL,
		dimensions TEXT NOT NULL DEFAULT '{}',
		tags TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_updated ON interactions(updated_at DESC);

	CREATE TABLE IF NOT EXISTS labels (
		interaction_id TEXT PRIMARY KEY,
		verdict TEXT NOT NULL,
		notes TEXT,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// UpsertInteractions inserts or updates interactions in a single
// transaction.
//
// New rows get created_at from the record (or now if unset); conflicting
// rows keep their original created_at and refresh everything else.
// Individual record failures are logged but do not stop the transaction.
func (s *Store) UpsertInteractions(items []Interaction) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is safe to call even after commit - it's a no-op
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO interactions (id, input_text, dimensions, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			input_text = excluded.input_text,
			dimensions = excluded.dimensions,
			tags = excluded.tags,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	var saved int
	var failedIDs []string

	for _, item := range items {
		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		result, err := stmt.Exec(
			item.ID,
			item.Input.Text,
			serializeDimensions(item.Dimensions),
			serializeTags(item.Tags),
			createdAt,
			now,
		)
		if err != nil {
			logging.Debug("Failed to save interaction", "id", item.ID, "error", err)
			failedIDs = append(failedIDs, item.ID)
			continue
		}
		rows, err := result.RowsAffected()
		if err == nil && rows > 0 {
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if len(failedIDs) > 0 {
		logging.Warn("Some interactions failed to save",
			"failed_count", len(failedIDs),
			"saved_count", saved,
			"failed_ids", failedIDs)
	}

	return saved, nil
}

// ListInteractions retrieves the full working set, ordered by id so
// downstream computation sees a stable order regardless of insert order.
func (s *Store) ListInteractions() ([]Interaction, error) {
	rows, err := s.db.Query(`
		SELECT id, input_text, dimensions, tags, created_at, updated_at
		FROM interactions
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// scanInteractions scans rows into interactions, handling the common
// scanning logic.
func scanInteractions(rows *sql.Rows) ([]Interaction, error) {
	var items []Interaction
	for rows.Next() {
		var item Interaction
		var dims, tags string
		err := rows.Scan(
			&item.ID,
			&item.Input.Text,
			&dims,
			&tags,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		item.Dimensions, err = deserializeDimensions(dims)
		if err != nil {
			return nil, fmt.Errorf("bad dimensions for %s: %w", item.ID, err)
		}
		item.Tags, err = deserializeTags(tags)
		if err != nil {
			return nil, fmt.Errorf("bad tags for %s: %w", item.ID, err)
		}
		items = append(items, item)
	}

	// Critical: check for errors from row iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// DeleteInteractions removes interactions and their labels in a single
// transaction. Returns the number of interactions deleted. Unknown ids
// are skipped silently.
func (s *Store) DeleteInteractions(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	delItem, err := tx.Prepare("DELETE FROM interactions WHERE id = ?")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer delItem.Close()

	delLabel, err := tx.Prepare("DELETE FROM labels WHERE interaction_id = ?")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer delLabel.Close()

	var deleted int
	for _, id := range ids {
		result, err := delItem.Exec(id)
		if err != nil {
			return 0, fmt.Errorf("failed to delete interaction %s: %w", id, err)
		}
		if rows, err := result.RowsAffected(); err == nil && rows > 0 {
			deleted++
		}
		if _, err := delLabel.Exec(id); err != nil {
			return 0, fmt.Errorf("failed to delete label for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return deleted, nil
}

// UpsertLabels inserts or updates labels in a single transaction.
// The last write for an interaction wins.
func (s *Store) UpsertLabels(labels []Label) (int, error) {
	if len(labels) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO labels (interaction_id, verdict, notes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(interaction_id) DO UPDATE SET
			verdict = excluded.verdict,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	var saved int
	for _, l := range labels {
		result, err := stmt.Exec(l.InteractionID, l.Verdict, l.Notes, now)
		if err != nil {
			logging.Debug("Failed to save label", "interaction_id", l.InteractionID, "error", err)
			continue
		}
		if rows, err := result.RowsAffected(); err == nil && rows > 0 {
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return saved, nil
}

// ListLabels retrieves all labels, ordered by interaction id.
func (s *Store) ListLabels() ([]Label, error) {
	rows, err := s.db.Query(`
		SELECT interaction_id, verdict, notes, updated_at
		FROM labels
		ORDER BY interaction_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	return scanLabels(rows)
}

// GetLabels retrieves the labels for the given interaction ids.
// Ids without a label are simply absent from the result.
func (s *Store) GetLabels(ids []string) ([]Label, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var labels []Label
	// SQLite caps bound parameters per statement, so query in chunks.
	for start := 0; start < len(ids); start += 500 {
		end := start + 500
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := s.db.Query(`
			SELECT interaction_id, verdict, notes, updated_at
			FROM labels
			WHERE interaction_id IN (`+placeholders+`)
			ORDER BY interaction_id
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query labels: %w", err)
		}

		batch, err := scanLabels(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		labels = append(labels, batch...)
	}

	return labels, nil
}

func scanLabels(rows *sql.Rows) ([]Label, error) {
	var labels []Label
	for rows.Next() {
		var l Label
		var notes sql.NullString
		if err := rows.Scan(&l.InteractionID, &l.Verdict, &notes, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		l.Notes = notes.String
		labels = append(labels, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return labels, nil
}

// InteractionCount returns the number of interactions in the working set.
func (s *Store) InteractionCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM interactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return count, nil
}

// LabelCount returns the number of labeled interactions.
func (s *Store) LabelCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM labels").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count labels: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// serializeDimensions converts a dimension map to its JSON column form.
// nil serializes as the empty object so scans never see NULL.
func serializeDimensions(dims map[string]string) string {
	if len(dims) == 0 {
		return "{}"
	}
	b, err := json.Marshal(dims)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func deserializeDimensions(s string) (map[string]string, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var dims map[string]string
	if err := json.Unmarshal([]byte(s), &dims); err != nil {
		return nil, err
	}
	return dims, nil
}

// serializeTags converts a tag list to its JSON column form.
func serializeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func deserializeTags(s string) ([]string, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
