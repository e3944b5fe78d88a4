// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package runstore persists per-atom model outputs of CLI runs in a
// SQLite database, so that repeated runs over the same systems can be
// compared without re-running the model.
package runstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Store is a SQLite-backed store of forward-pass results.
type Store struct {
	db *sql.DB
}

// Run is one forward pass over one system.
type Run struct {
	Name           string
	Group          string
	HiddenChannels int
	NumLayers      int
	Atoms          []AtomResult
}

// AtomResult is the feature row of a single atom.
type AtomResult struct {
	Index    int
	Z        int
	Features []float64
}

// Open opens or creates the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	s := &Store{db: db}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS run (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	grp TEXT NOT NULL,
	hidden_channels INTEGER NOT NULL,
	num_layers INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS atom (
	run_id INTEGER NOT NULL REFERENCES run(id),
	idx INTEGER NOT NULL,
	z INTEGER NOT NULL,
	features TEXT NOT NULL,
	PRIMARY KEY (run_id, idx)
);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// SaveRun stores a run and its per-atom rows, returning the run ID.
func (s *Store) SaveRun(ctx context.Context, run Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO run (name, grp, hidden_channels, num_layers) VALUES (?, ?, ?, ?)`,
		run.Name, run.Group, run.HiddenChannels, run.NumLayers)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	for _, a := range run.Atoms {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO atom (run_id, idx, z, features) VALUES (?, ?, ?, ?)`,
			id, a.Index, a.Z, formatFeatures(a.Features)); err != nil {
			return 0, errors.Wrap(err, "")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "")
	}
	return id, nil
}

// Atoms loads the per-atom rows of a run, ordered by atom index.
func (s *Store) Atoms(ctx context.Context, runID int64) ([]AtomResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, z, features FROM atom WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	var atoms []AtomResult
	for rows.Next() {
		var a AtomResult
		var features string
		if err := rows.Scan(&a.Index, &a.Z, &features); err != nil {
			return nil, errors.Wrap(err, "")
		}
		a.Features, err = parseFeatures(features)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, a)
	}
	return atoms, errors.Wrap(rows.Err(), "")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatFeatures(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseFeatures(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	fs := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		fs[i] = f
	}
	return fs, nil
}
