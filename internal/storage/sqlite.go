package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/relsim/internal/dynamo"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created INTEGER NOT NULL,
	payload BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS states (
	run_id TEXT NOT NULL REFERENCES runs(id),
	step INTEGER NOT NULL,
	time REAL NOT NULL,
	body INTEGER NOT NULL,
	name TEXT NOT NULL,
	ct REAL, x REAL, y REAL, z REAL,
	p0 REAL, px REAL, py REAL, pz REAL,
	vx REAL, vy REAL, vz REAL,
	gamma REAL, energy REAL,
	PRIMARY KEY (run_id, step, body)
);`

// SQLiteRecorder appends runs to a single database file, one transaction
// per snapshot. Several runs can share a file.
type SQLiteRecorder struct {
	db   *sql.DB
	path string
	meta *RunMetadata
}

func openDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return db, nil
}

// OpenSQLite registers meta as a new run in the database at path.
func OpenSQLite(path string, meta *RunMetadata) (*SQLiteRecorder, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Source)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	r := &SQLiteRecorder{db: db, path: path, meta: meta}
	if err := r.putRun(meta); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRecorder) Location() string { return r.path + "#" + r.meta.ID }

func (r *SQLiteRecorder) putRun(meta *RunMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO runs(id, created, payload) VALUES(?,?,?)
		ON CONFLICT(id) DO UPDATE SET payload=excluded.payload`,
		meta.ID, meta.Timestamp.UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", meta.ID, err)
	}
	return nil
}

func (r *SQLiteRecorder) OnStep(snap dynamo.Snapshot) (retErr error) {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO states(run_id, step, time, body, name,
		ct, x, y, z, p0, px, py, pz, vx, vy, vz, gamma, energy)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range Records(snap) {
		args := []any{r.meta.ID, rec.Step, rec.Time, rec.Body, rec.Name}
		for _, f := range rec.floats() {
			args = append(args, f)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert step %d body %d: %w", rec.Step, rec.Body, err)
		}
	}
	return tx.Commit()
}

// Finish stores the final metadata and closes the database.
func (r *SQLiteRecorder) Finish(meta *RunMetadata) error {
	if meta == nil {
		meta = r.meta
	}
	inherit(meta, r.meta)
	err := r.putRun(meta)
	return errors.Join(err, r.db.Close())
}

// ListSQLite returns the runs stored at path, newest first.
func ListSQLite(path string) ([]RunMetadata, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT payload FROM runs ORDER BY created DESC`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// LoadSQLite reads one run; an empty runID selects the newest.
func LoadSQLite(path, runID string) (*RunMetadata, []Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, err
	}
	db, err := openDB(path)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	var payload []byte
	if runID == "" {
		err = db.QueryRow(`SELECT payload FROM runs ORDER BY created DESC LIMIT 1`).Scan(&payload)
	} else {
		err = db.QueryRow(`SELECT payload FROM runs WHERE id = ?`, runID).Scan(&payload)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("run %q not found in %s", runID, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("select run: %w", err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, nil, fmt.Errorf("decode run: %w", err)
	}

	rows, err := db.Query(`SELECT step, time, body, name, ct, x, y, z, p0, px, py, pz,
		vx, vy, vz, gamma, energy FROM states WHERE run_id = ? ORDER BY step, body`, meta.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("select states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Step, &r.Time, &r.Body, &r.Name, &r.CT, &r.X, &r.Y, &r.Z,
			&r.P0, &r.Px, &r.Py, &r.Pz, &r.Vx, &r.Vy, &r.Vz, &r.Gamma, &r.Energy); err != nil {
			return nil, nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, r)
	}
	return &meta, records, rows.Err()
}
