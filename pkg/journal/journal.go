// Package journal keeps a local sqlite record of clipboard diagnostics:
// what was attempted, on which trigger, and how it ended. Copied content is
// never stored.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipctl/pkg/diagnostics"
	"clipctl/pkg/logger"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const selectEntries = `SELECT
		id,
		kind,
		trigger,
		target,
		message,
		error,
		item_count,
		media_types,
		created_at
	FROM diagnostics WHERE 1=1
	`

type Journal struct {
	db *sql.DB
}

type Entry struct {
	ID         string
	Kind       diagnostics.Kind
	Trigger    string
	Target     string
	Message    string
	Error      string
	ItemCount  int
	MediaTypes []string
	CreatedAt  time.Time
}

func Open(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return j, nil
}

func (j *Journal) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS diagnostics (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			trigger TEXT,
			target TEXT,
			message TEXT,
			error TEXT,
			item_count INTEGER NOT NULL DEFAULT 0,
			media_types TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_kind ON diagnostics(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_created_at ON diagnostics(created_at)`,
	}

	for _, query := range queries {
		if _, err := j.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Report implements diagnostics.Sink. Storage failures are logged and
// otherwise ignored.
func (j *Journal) Report(d diagnostics.Diagnostic) {
	if _, err := j.Record(d); err != nil {
		logger.With("journal").Warn().Err(err).Str("kind", string(d.Kind)).Msg("failed to record diagnostic")
	}
}

// Record stores d and returns its id.
func (j *Journal) Record(d diagnostics.Diagnostic) (string, error) {
	d = diagnostics.Stamp(d)
	id := uuid.New().String()

	var errText string
	if d.Err != nil {
		errText = d.Err.Error()
	}

	_, err := j.db.Exec(`
		INSERT INTO diagnostics
		(id, kind, trigger, target, message, error, item_count, media_types, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, string(d.Kind), d.Trigger, d.Target, d.Message, errText, d.ItemCount,
		strings.Join(d.MediaTypes, ","), d.At.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert diagnostic: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first, optionally limited to
// the given kinds.
func (j *Journal) Recent(limit int, kinds ...diagnostics.Kind) ([]Entry, error) {
	query := selectEntries
	var args []any
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += " AND kind IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		var trigger, target, message, errText, mediaTypes sql.NullString
		if err := rows.Scan(&e.ID, &kind, &trigger, &target, &message, &errText, &e.ItemCount, &mediaTypes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		e.Kind = diagnostics.Kind(kind)
		e.Trigger = trigger.String
		e.Target = target.String
		e.Message = message.String
		e.Error = errText.String
		if mediaTypes.String != "" {
			e.MediaTypes = strings.Split(mediaTypes.String, ",")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns the number of entries per kind.
func (j *Journal) Counts() (map[diagnostics.Kind]int, error) {
	rows, err := j.db.Query(`SELECT kind, COUNT(*) FROM diagnostics GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count diagnostics: %w", err)
	}
	defer rows.Close()

	counts := make(map[diagnostics.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[diagnostics.Kind(kind)] = n
	}
	return counts, rows.Err()
}

// Prune deletes entries older than olderThan and returns how many went.
func (j *Journal) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	res, err := j.db.Exec(`DELETE FROM diagnostics WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune diagnostics: %w", err)
	}
	return res.RowsAffected()
}
