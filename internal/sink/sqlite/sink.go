// Package sqlite persists extraction results into a SQLite database.
//
// Results are stored flattened: one row per present leaf, keyed by the
// source (file name or URL) and the leaf's path inside the value tree.
// That keeps the schema independent of any particular extraction spec.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"harvest/internal/extract"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS results (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	path   TEXT NOT NULL,
	value  TEXT NOT NULL
)`

// Sink writes flattened extraction results to a SQLite database.
type Sink struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the results
// table exists. Startup is idempotent.
func Open(ctx context.Context, path string) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create results table: %w", err)
	}
	return &Sink{db: db}, nil
}

func (s *Sink) Close() { _ = s.db.Close() }

// Store inserts every present leaf of v in one transaction. A value with no
// present leaves inserts nothing and is not an error.
func (s *Sink) Store(ctx context.Context, source string, v extract.Value) error {
	rows := Flatten(v)
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results (source, path, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, source, r.Path, r.Value); err != nil {
			return fmt.Errorf("insert %s: %w", r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Row is one flattened leaf.
type Row struct {
	Path  string
	Value string
}

// Flatten walks a value tree and returns one Row per present leaf, in the
// tree's own order. Map fields are joined with ".", list elements indexed
// with "[i]". Absent leaves are skipped.
func Flatten(v extract.Value) []Row {
	var rows []Row
	flattenInto(&rows, "", v)
	return rows
}

func flattenInto(rows *[]Row, path string, v extract.Value) {
	switch v.Kind() {
	case extract.KindLeaf:
		s, ok := v.Leaf()
		if !ok {
			return
		}
		if path == "" {
			path = "value"
		}
		*rows = append(*rows, Row{Path: path, Value: s})

	case extract.KindList:
		for i := 0; i < v.Len(); i++ {
			flattenInto(rows, path+"["+strconv.Itoa(i)+"]", v.Index(i))
		}

	default:
		for _, name := range v.FieldNames() {
			child, _ := v.Field(name)
			childPath := name
			if path != "" {
				childPath = path + "." + name
			}
			flattenInto(rows, childPath, child)
		}
	}
}
