// SPDX-License-Identifier: MIT

// Package catalog keeps named analysis archives in a SQLite database.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration

	"github.com/katalvlaran/lvlath-mva/mvaerr"
	"github.com/katalvlaran/lvlath-mva/results"
)

// ErrNotFound reports a name with no stored analysis.
var ErrNotFound = errors.New("catalog: analysis not found")

// Catalog is a SQLite-backed set of named results.
type Catalog struct {
	db *sql.DB
}

// Entry describes one stored analysis without decoding it.
type Entry struct {
	Name         string
	PCAAlgorithm string
	ICAAlgorithm string
	Components   int
	SavedAt      time.Time
}

// Open connects to dsn (a file path or ":memory:") and creates the schema.
func Open(dsn string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, mvaerr.Trace(fmt.Errorf("catalog: open %s: %w", dsn, err))
	}
	// one connection: an in-memory database is private to its connection
	db.SetMaxOpenConns(1)

	if err = createTables(db); err != nil {
		_ = db.Close()
		return nil, mvaerr.Trace(err)
	}

	return &Catalog{db: db}, nil
}

func createTables(db *sql.DB) error {
	const createAnalysesTable = `
    CREATE TABLE IF NOT EXISTS analyses (
        name TEXT PRIMARY KEY,
        pca_algorithm TEXT NOT NULL,
        ica_algorithm TEXT,
        components INTEGER NOT NULL,
        saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        archive BLOB NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_analyses_saved_at ON analyses(saved_at);
    `
	if _, err := db.Exec(createAnalysesTable); err != nil {
		return fmt.Errorf("catalog: create analyses table: %w", err)
	}

	return nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}

	return nil
}

// Put stores res under name, replacing any earlier analysis of that name.
func (c *Catalog) Put(ctx context.Context, name string, res *results.Result) error {
	if res == nil {
		return mvaerr.Trace(mvaerr.ErrNoDecomposition)
	}
	blob, err := res.MarshalBSON()
	if err != nil {
		return mvaerr.Trace(fmt.Errorf("catalog: encode %q: %w", name, err))
	}
	var icaName sql.NullString
	if res.HasICA() {
		icaName = sql.NullString{String: res.ICAAlgorithm.String(), Valid: true}
	}
	_, err = c.db.ExecContext(ctx, `
        INSERT INTO analyses (name, pca_algorithm, ica_algorithm, components, saved_at, archive)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            pca_algorithm = excluded.pca_algorithm,
            ica_algorithm = excluded.ica_algorithm,
            components = excluded.components,
            saved_at = excluded.saved_at,
            archive = excluded.archive`,
		name, res.PCAAlgorithm.String(), icaName, res.Components(), time.Now().UTC(), blob)
	if err != nil {
		return mvaerr.Trace(fmt.Errorf("catalog: store %q: %w", name, err))
	}

	return nil
}

// Get loads the analysis stored under name.
func (c *Catalog) Get(ctx context.Context, name string) (*results.Result, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx, `SELECT archive FROM analyses WHERE name = ?`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mvaerr.Trace(fmt.Errorf("%w: %q", ErrNotFound, name))
	}
	if err != nil {
		return nil, mvaerr.Trace(fmt.Errorf("catalog: load %q: %w", name, err))
	}
	res := new(results.Result)
	if err = res.UnmarshalBSON(blob); err != nil {
		return nil, mvaerr.Trace(fmt.Errorf("catalog: decode %q: %w", name, err))
	}

	return res, nil
}

// List returns every stored analysis, newest first.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT name, pca_algorithm, ica_algorithm, components, saved_at
        FROM analyses ORDER BY saved_at DESC, name`)
	if err != nil {
		return nil, mvaerr.Trace(fmt.Errorf("catalog: list: %w", err))
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var icaName sql.NullString
		if err = rows.Scan(&e.Name, &e.PCAAlgorithm, &icaName, &e.Components, &e.SavedAt); err != nil {
			return nil, mvaerr.Trace(fmt.Errorf("catalog: list: %w", err))
		}
		e.ICAAlgorithm = icaName.String
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, mvaerr.Trace(fmt.Errorf("catalog: list: %w", err))
	}

	return out, nil
}

// Delete removes name. Deleting a missing name returns ErrNotFound.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	r, err := c.db.ExecContext(ctx, `DELETE FROM analyses WHERE name = ?`, name)
	if err != nil {
		return mvaerr.Trace(fmt.Errorf("catalog: delete %q: %w", name, err))
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return mvaerr.Trace(fmt.Errorf("%w: %q", ErrNotFound, name))
	}

	return nil
}
