package storage

import (
	"path/filepath"
	"strings"

	"github.com/san-kum/relsim/internal/dynamo"
)

// Recorder persists snapshots as a simulation observer.
type Recorder interface {
	dynamo.Observer
	// Finish writes the final metadata and releases the output. A nil
	// meta keeps the metadata the recorder was opened with.
	Finish(meta *RunMetadata) error
	Location() string
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Open picks the output format from the path: a .db/.sqlite file gets a
// SQLiteRecorder, anything else is a run directory root.
func Open(output string, meta *RunMetadata) (Recorder, error) {
	if isSQLite(output) {
		return OpenSQLite(output, meta)
	}
	st := New(output)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st.Create(meta)
}

// LoadRun resolves ref as a run ID under dataDir, a "file.db#id"
// reference, or a bare database file (newest run).
func LoadRun(dataDir, ref string) (*RunMetadata, []Record, error) {
	path, id, _ := strings.Cut(ref, "#")
	if isSQLite(path) {
		return LoadSQLite(path, id)
	}

	st := New(dataDir)
	meta, err := st.Load(ref)
	if err != nil {
		return nil, nil, err
	}
	records, err := st.LoadRecords(ref)
	if err != nil {
		return nil, nil, err
	}
	return meta, records, nil
}

// ListRuns lists a run directory root or a database file.
func ListRuns(location string) ([]RunMetadata, error) {
	if isSQLite(location) {
		return ListSQLite(location)
	}
	return New(location).List()
}
