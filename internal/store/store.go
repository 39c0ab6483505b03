// Package store reads per-category targets from a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/attain/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store is a read-only view over the category_targets table. Rows are
// written by whatever system owns the sales figures.
type Store struct {
	db   *sql.DB
	path string
}

// Open migrates and opens the database at dbPath, creating it if needed.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	if err := Migrate(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Name identifies the store in status lines.
func (s *Store) Name() string { return "sqlite:" + s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MetricsForRange loads every category row stored for r. Rows with an
// unknown category key are skipped.
func (s *Store) MetricsForRange(ctx context.Context, r model.TimeRange) (model.RangeRecords, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, target, completed, pipeline
		 FROM category_targets WHERE period = ? ORDER BY category`, r.String())
	if err != nil {
		return model.RangeRecords{}, fmt.Errorf("querying %s targets: %w", r, err)
	}
	defer func() { _ = rows.Close() }()

	recs := model.RangeRecords{Range: r}
	for rows.Next() {
		var (
			key string
			rec model.CategoryRecord
		)
		if err := rows.Scan(&key, &rec.Target, &rec.Completed, &rec.Pipeline); err != nil {
			return model.RangeRecords{}, fmt.Errorf("scanning %s targets: %w", r, err)
		}
		cat, err := model.ParseCategory(key)
		if err != nil {
			continue
		}
		rec.Category = cat
		recs.PerCategory = append(recs.PerCategory, rec)
	}
	if err := rows.Err(); err != nil {
		return model.RangeRecords{}, fmt.Errorf("reading %s targets: %w", r, err)
	}
	return recs, nil
}

// LastUpdated returns the newest updated_at across all periods, or the zero
// time when the table is empty.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM category_targets").Scan(&raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("querying last update: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last update %q: %w", raw.String, err)
	}
	return t, nil
}
