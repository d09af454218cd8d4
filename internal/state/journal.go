// Package state keeps a journal of attempted publications. The journal is
// observational only: round-2 repository resolution never consults it, it
// exists so operators can reconcile partial failures (a created repository
// whose push failed, a publish whose notification never landed).
package state

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome labels for journal rows.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// PublicationRecord is one attempted publication.
type PublicationRecord struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"request_id"`
	Task        string    `json:"task"`
	Round       int       `json:"round"`
	Nonce       string    `json:"nonce"`
	Repository  string    `json:"repository"`
	CommitLabel string    `json:"commit_label"`
	RepoURL     string    `json:"repo_url"`
	PagesURL    string    `json:"pages_url"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Journal stores publication records in SQLite.
type Journal struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a journal at dbPath, initializing the schema.
// Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS publications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		task TEXT NOT NULL,
		round INTEGER NOT NULL,
		nonce TEXT NOT NULL,
		repository TEXT NOT NULL,
		commit_label TEXT NOT NULL,
		repo_url TEXT NOT NULL,
		pages_url TEXT NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_publications_task ON publications(task);
	CREATE INDEX IF NOT EXISTS idx_publications_created_at ON publications(created_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append adds a publication record.
func (j *Journal) Append(ctx context.Context, rec PublicationRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO publications
		 (request_id, task, round, nonce, repository, commit_label, repo_url, pages_url, outcome, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Task, rec.Round, rec.Nonce, rec.Repository, rec.CommitLabel,
		rec.RepoURL, rec.PagesURL, rec.Outcome, rec.Error, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert publication: %w", err)
	}
	return nil
}

// Recent returns the most recent n records, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]PublicationRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, request_id, task, round, nonce, repository, commit_label, repo_url, pages_url, outcome, COALESCE(error, ''), created_at
		 FROM publications ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}
	defer rows.Close()

	var records []PublicationRecord
	for rows.Next() {
		var rec PublicationRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Task, &rec.Round, &rec.Nonce,
			&rec.Repository, &rec.CommitLabel, &rec.RepoURL, &rec.PagesURL,
			&rec.Outcome, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
