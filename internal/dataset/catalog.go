// Package dataset provides the dataset summaries that views are scaled by.
// Parsing GC logs is done elsewhere; an external loader ingests the
// resulting summaries into a Catalog, and documents read them back through
// the Loader interface.
package dataset

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gcviewer/backend/internal/logging"
	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/resource"
	"github.com/marcboeker/go-duckdb"
)

// ErrNotFound is returned when no summary is stored for a resource.
var ErrNotFound = errors.New("dataset not found")

// Loader produces the summary of a resource entry. A series is summarized
// from all of its parts.
type Loader interface {
	Load(ctx context.Context, entry resource.Entry) (models.DatasetSummary, error)
}

// DefaultPragmas are applied to every catalog connection.
var DefaultPragmas = []string{
	"PRAGMA memory_limit='256MB'",
	"PRAGMA threads=2",
	"PRAGMA enable_progress_bar=false",
}

var logger = logging.New("catalog")

// Catalog stores dataset summaries in a DuckDB file keyed by resource.
type Catalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex // serializes writers
}

// NewCatalog opens or creates the catalog at dbPath. An empty path opens an
// in-memory catalog. nil pragmas selects DefaultPragmas.
func NewCatalog(dbPath string, pragmas []string) (*Catalog, error) {
	if pragmas == nil {
		pragmas = DefaultPragmas
	}
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	logger.Infof("opening catalog at %q", dbPath)
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				logger.Warnf("pragma %q failed: %v", pragma, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS datasets (
			resource     VARCHAR PRIMARY KEY,
			footprint    UBIGINT NOT NULL,
			max_pause    DOUBLE NOT NULL,
			running_time DOUBLE NOT NULL,
			updated_at   BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Catalog{db: db, dbPath: dbPath}, nil
}

// Put stores or replaces the summary of id.
func (c *Catalog) Put(ctx context.Context, id resource.ID, s models.DatasetSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO datasets (resource, footprint, max_pause, running_time, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id.String(), s.Footprint, s.MaxPause, s.RunningTime, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store dataset %s: %w", id, err)
	}
	return nil
}

// Get returns the stored summary of id.
func (c *Catalog) Get(ctx context.Context, id resource.ID) (models.DatasetSummary, error) {
	var s models.DatasetSummary
	err := c.db.QueryRowContext(ctx, `
		SELECT footprint, max_pause, running_time FROM datasets WHERE resource = ?
	`, id.String()).Scan(&s.Footprint, &s.MaxPause, &s.RunningTime)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return s, fmt.Errorf("failed to read dataset %s: %w", id, err)
	}
	return s, nil
}

// Load implements Loader. Every part of a series must be present.
func (c *Catalog) Load(ctx context.Context, entry resource.Entry) (models.DatasetSummary, error) {
	ids := entry.IDs()
	parts := make([]models.DatasetSummary, 0, len(ids))
	for _, id := range ids {
		s, err := c.Get(ctx, id)
		if err != nil {
			return models.DatasetSummary{}, err
		}
		parts = append(parts, s)
	}
	if entry.Kind() == resource.KindSingle && len(parts) == 1 {
		return parts[0], nil
	}
	return models.Combine(parts...), nil
}

// List returns every stored record ordered by resource.
func (c *Catalog) List(ctx context.Context) ([]models.DatasetRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT resource, footprint, max_pause, running_time, updated_at
		FROM datasets ORDER BY resource
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	records := make([]models.DatasetRecord, 0)
	for rows.Next() {
		var r models.DatasetRecord
		if err := rows.Scan(&r.Resource, &r.Summary.Footprint, &r.Summary.MaxPause, &r.Summary.RunningTime, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Delete removes the summary of id. Deleting a missing id is not an error.
func (c *Catalog) Delete(ctx context.Context, id resource.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.ExecContext(ctx, `DELETE FROM datasets WHERE resource = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete dataset %s: %w", id, err)
	}
	return nil
}

// Count returns the number of stored summaries.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count datasets: %w", err)
	}
	return n, nil
}

// Path returns the database file, or "" for an in-memory catalog.
func (c *Catalog) Path() string {
	return c.dbPath
}

// Close closes the database. The file is kept.
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
