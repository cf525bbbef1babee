package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aluiziolira/go-scrape-movies/models"
)

const movieSchema = `
CREATE TABLE IF NOT EXISTS movies (
	url        TEXT PRIMARY KEY,
	title      TEXT,
	genre      TEXT,
	director   TEXT,
	country    TEXT,
	year       TEXT,
	rating     TEXT,
	imdb_id    TEXT,
	scraped_at TIMESTAMP NOT NULL
)`

var insertMovie = "INSERT OR REPLACE INTO movies (" + strings.Join(movieColumns, ", ") +
	") VALUES (?" + strings.Repeat(", ?", len(movieColumns)-1) + ")"

// SQLiteWriter stores movies in a single SQLite table keyed by source URL.
type SQLiteWriter struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteWriter opens (or creates) the database at filename.
func NewSQLiteWriter(filename string) (*SQLiteWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filename+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), movieSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create movies table: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

// Write inserts a batch in one transaction.
func (sw *SQLiteWriter) Write(movies []*models.Movie) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	ctx := context.Background()
	tx, err := sw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertMovie)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, movie := range movies {
		if _, err := stmt.ExecContext(ctx, movieValues(movie)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert movie %s: %w", movie.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite tx: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (sw *SQLiteWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.db.Close()
}

// Validate ensures at least one movie was stored.
func (sw *SQLiteWriter) Validate() error {
	var count int
	if err := sw.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM movies").Scan(&count); err != nil {
		return fmt.Errorf("count movies: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("sqlite database has no movies")
	}
	return nil
}
