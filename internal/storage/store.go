package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/relsim/internal/dynamo"
)

// Store keeps runs as directories under baseDir, each holding
// metadata.json and states.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	Epsilon     float64            `json:"epsilon"`
	Bodies      []string           `json:"bodies"`
	FinalTime   float64            `json:"final_time"`
	EnergyDrift float64            `json:"energy_drift"`
	Clamps      int                `json:"clamps"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// NewRunID names a run after its preset or config file.
func NewRunID(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "run"
	}
	return fmt.Sprintf("%s_%d", base, time.Now().UnixNano())
}

// inherit copies the identity of the opened run into its final metadata.
func inherit(final, opened *RunMetadata) {
	final.ID = opened.ID
	if final.Timestamp.IsZero() {
		final.Timestamp = opened.Timestamp
	}
}

// CSVRecorder streams snapshots into a run directory.
type CSVRecorder struct {
	dir  string
	meta *RunMetadata
	file *os.File
	w    *csv.Writer
}

// Create starts a new run directory for meta.ID and writes the CSV header.
func (s *Store) Create(meta *RunMetadata) (*CSVRecorder, error) {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Source)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}

	return &CSVRecorder{dir: runDir, meta: meta, file: f, w: w}, nil
}

func (r *CSVRecorder) Location() string { return r.dir }

func (r *CSVRecorder) OnStep(snap dynamo.Snapshot) error {
	for _, rec := range Records(snap) {
		if err := r.w.Write(rec.row()); err != nil {
			return err
		}
	}
	return nil
}

// Finish flushes the states and writes metadata.json from meta, or from
// the metadata given to Create when meta is nil.
func (r *CSVRecorder) Finish(meta *RunMetadata) error {
	if meta == nil {
		meta = r.meta
	}
	inherit(meta, r.meta)

	r.w.Flush()
	flushErr := r.w.Error()
	closeErr := r.file.Close()
	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("write states: %w", err)
	}

	metaFile, err := os.Create(filepath.Join(r.dir, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s metadata: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadRecords(runID string) ([]Record, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readCSV(file)
}

func readCSV(src io.Reader) ([]Record, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = len(header)

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []Record{}, nil
		}
		return nil, err
	}

	records := make([]Record, 0)
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("states.csv line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

type ExportData struct {
	Run     *RunMetadata `json:"run"`
	Records []Record     `json:"records"`
}

// ExportJSON writes a run and its records as one indented JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Records: records})
}
