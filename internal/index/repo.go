package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/models"
)

// CollectionRow aggregates one collection for listings.
type CollectionRow struct {
	Name      string `json:"name"`
	Units     int    `json:"units"`
	Artifacts int    `json:"artifacts"`
}

// UnitRow aggregates one unit within a collection.
type UnitRow struct {
	Name      string    `json:"name"`
	Artifacts int       `json:"artifacts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path       string `json:"path"`
	Collection string `json:"collection"`
	Unit       string `json:"unit"`
	Label      string `json:"label"`
}

// UpsertArtifact inserts or replaces an artifact row and its FTS entry
// within a transaction.
func (db *DB) UpsertArtifact(a models.Artifact) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO artifacts (path, collection, unit, idx, label, checksum, size_bytes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			collection = excluded.collection,
			unit       = excluded.unit,
			idx        = excluded.idx,
			label      = excluded.label,
			checksum   = excluded.checksum,
			size_bytes = excluded.size_bytes,
			updated_at = excluded.updated_at
	`, a.Path, a.Collection, a.Unit, a.Index, a.Label, a.Checksum, a.SizeBytes, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert artifact: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, a.Path, a.Collection, a.Unit, a.Label); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteArtifact removes an artifact row and its FTS entry.
func (db *DB) DeleteArtifact(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM artifacts WHERE path = ?`, path)

	return tx.Commit()
}

// GetArtifact returns one artifact by path, or apperr.ErrNotFound.
func (db *DB) GetArtifact(path string) (*models.Artifact, error) {
	var a models.Artifact
	err := db.conn.QueryRow(`
		SELECT path, collection, unit, idx, label, checksum, size_bytes, updated_at
		FROM artifacts WHERE path = ?
	`, path).Scan(&a.Path, &a.Collection, &a.Unit, &a.Index, &a.Label, &a.Checksum, &a.SizeBytes, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: artifact %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get artifact: %w", err)
	}
	return &a, nil
}

// GetChecksum returns the stored checksum for an artifact, or the empty
// string when the path is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM artifacts WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// ListCollections aggregates every indexed collection in lexical order.
func (db *DB) ListCollections() ([]CollectionRow, error) {
	rows, err := db.conn.Query(`
		SELECT collection, COUNT(DISTINCT unit), COUNT(*)
		FROM artifacts
		WHERE collection != ''
		GROUP BY collection
		ORDER BY collection
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list collections: %w", err)
	}
	defer rows.Close()

	var out []CollectionRow
	for rows.Next() {
		var c CollectionRow
		if err := rows.Scan(&c.Name, &c.Units, &c.Artifacts); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListUnits aggregates the units of one collection in lexical order.
func (db *DB) ListUnits(collection string) ([]UnitRow, error) {
	rows, err := db.conn.Query(`
		SELECT unit, COUNT(*), MAX(updated_at)
		FROM artifacts
		WHERE collection = ? AND unit != ''
		GROUP BY unit
		ORDER BY unit
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("index: list units: %w", err)
	}
	defer rows.Close()

	var out []UnitRow
	for rows.Next() {
		var u UnitRow
		var latest string
		if err := rows.Scan(&u.Name, &u.Artifacts, &latest); err != nil {
			return nil, err
		}
		u.UpdatedAt = parseTimestamp(latest)
		out = append(out, u)
	}
	return out, rows.Err()
}

// timestampLayouts are the encodings the driver writes DATETIME values
// with. An aggregate column carries no decltype, so MAX(updated_at)
// arrives as text and is parsed here.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ListArtifacts returns the artifacts of one unit ordered by figure index,
// then path.
func (db *DB) ListArtifacts(collection, unit string) ([]models.Artifact, error) {
	rows, err := db.conn.Query(`
		SELECT path, collection, unit, idx, label, checksum, size_bytes, updated_at
		FROM artifacts
		WHERE collection = ? AND unit = ?
		ORDER BY idx, path
	`, collection, unit)
	if err != nil {
		return nil, fmt.Errorf("index: list artifacts: %w", err)
	}
	defer rows.Close()

	var out []models.Artifact
	for rows.Next() {
		var a models.Artifact
		if err := rows.Scan(&a.Path, &a.Collection, &a.Unit, &a.Index, &a.Label, &a.Checksum, &a.SizeBytes, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed artifact.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM artifacts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// InsertRun appends one run record and returns its id.
func (db *DB) InsertRun(r models.Run) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO runs (collection, unit, status, artifacts, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.Collection, r.Unit, r.Status, r.Artifacts, r.Error, r.StartedAt, r.FinishedAt)
	if err != nil {
		return 0, fmt.Errorf("index: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("index: run id: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, collection, unit, status, artifacts, error, started_at, finished_at
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: list runs: %w", err)
	}
	defer rows.Close()

	var out []models.Run
	for rows.Next() {
		var r models.Run
		if err := rows.Scan(&r.ID, &r.Collection, &r.Unit, &r.Status, &r.Artifacts, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
