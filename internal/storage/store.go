package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/jointsync/internal/constraint"
	"github.com/san-kum/jointsync/internal/metrics"
)

const (
	metadataFile   = "metadata.json"
	jointsFile     = "joints.csv"
	separationFile = "separation.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scene       string             `json:"scene"`
	Fingerprint string             `json:"fingerprint"`
	Backend     string             `json:"backend"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Created     int                `json:"created"`
	Skipped     int                `json:"skipped"`
	Duplicates  int                `json:"duplicates"`
	Warnings    []string           `json:"warnings,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// JointRow is one line of joints.csv.
type JointRow struct {
	Key   string
	Kind  string
	BodyA string
	BodyB string
}

// Save writes a run under a fresh id. The id and timestamp of meta are set
// by Save.
func (s *Store) Save(meta RunMetadata, records []constraint.Record, samples []metrics.Sample) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now()
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	jointRows := [][]string{{"key", "kind", "body_a", "body_b"}}
	for _, rec := range records {
		jointRows = append(jointRows, []string{string(rec.Key), rec.Kind.String(), rec.BodyA, rec.BodyB})
	}
	if err := writeCSV(filepath.Join(runDir, jointsFile), jointRows); err != nil {
		return "", err
	}

	sampleRows := [][]string{{"time", "key", "separation", "drift"}}
	for _, sm := range samples {
		sampleRows = append(sampleRows, []string{
			strconv.FormatFloat(sm.Time, 'f', 6, 64),
			string(sm.Key),
			strconv.FormatFloat(sm.Separation, 'f', 6, 64),
			strconv.FormatFloat(sm.Drift, 'f', 6, 64),
		})
	}
	if err := writeCSV(filepath.Join(runDir, separationFile), sampleRows); err != nil {
		return "", err
	}

	return meta.ID, nil
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
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadJoints(runID string) ([]JointRow, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, jointsFile))
	if err != nil {
		return nil, err
	}

	rows := make([]JointRow, 0, len(records))
	for _, r := range records {
		if len(r) < 4 {
			continue
		}
		rows = append(rows, JointRow{Key: r[0], Kind: r[1], BodyA: r[2], BodyB: r[3]})
	}
	return rows, nil
}

// LoadSeparation returns the separation samples of a run grouped by joint
// key, in time order.
func (s *Store) LoadSeparation(runID string) (map[string][]float64, []float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, separationFile))
	if err != nil {
		return nil, nil, err
	}

	series := make(map[string][]float64)
	var times []float64
	lastTime := -1.0

	for _, r := range records {
		if len(r) < 3 {
			continue
		}
		t, err := strconv.ParseFloat(r[0], 64)
		if err != nil {
			continue
		}
		sep, err := strconv.ParseFloat(r[2], 64)
		if err != nil {
			continue
		}
		if t != lastTime {
			times = append(times, t)
			lastTime = t
		}
		series[r[1]] = append(series[r[1]], sep)
	}

	return series, times, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

// readCSV returns the rows after the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}
