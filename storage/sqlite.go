package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStore implements JobStore on a SQLite database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path,
// creating parent directories as needed.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open SQLite database: %w", err)
	}
	return initStore(db)
}

// NewSqliteInMemory creates an in-memory store (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("create in-memory SQLite: %w", err)
	}
	return initStore(db)
}

func initStore(db *sql.DB) (*SqliteStore, error) {
	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			request TEXT NOT NULL,
			status TEXT NOT NULL,
			report TEXT NOT NULL,
			artifact_paths TEXT NOT NULL,
			first_go INTEGER NOT NULL DEFAULT 0,
			revised_go INTEGER NOT NULL DEFAULT 0,
			warnings INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_jobs_created
		ON jobs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts a job record.
func (s *SqliteStore) Save(ctx context.Context, rec JobRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, request, status, report, artifact_paths,
			first_go, revised_go, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Request, rec.Status, rec.Report,
		strings.Join(rec.ArtifactPaths, "\n"),
		rec.FirstGo, rec.RevisedGo, rec.Warnings,
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SqliteStore) Recent(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request, status, report, artifact_paths,
			first_go, revised_go, warnings, created_at
		FROM jobs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var rec JobRecord
		var paths string
		var created int64
		if err := rows.Scan(&rec.ID, &rec.Request, &rec.Status, &rec.Report,
			&paths, &rec.FirstGo, &rec.RevisedGo, &rec.Warnings, &created); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if paths != "" {
			rec.ArtifactPaths = strings.Split(paths, "\n")
		}
		rec.CreatedAt = time.Unix(created, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ JobStore = (*SqliteStore)(nil)
