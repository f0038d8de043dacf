package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/stressosaurus/dmd-introduction/internal/config"
	"github.com/stressosaurus/dmd-introduction/internal/sim"
	"gonum.org/v1/gonum/mat"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "field.bin"
	analysisFile = "analysis.json"
)

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
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Rows      int                `json:"rows"`
	Cols      int                `json:"cols"`
	Dt        float64            `json:"dt"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes the run's series and metadata under a new run directory and
// returns its id. The series is written first and a failed save removes the
// directory, so List never reports a run without its field file.
func (s *Store) Save(name string, cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := s.writeRun(runDir, runID, name, now, cfg, result); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func (s *Store) writeRun(runDir, runID, name string, now time.Time, cfg *config.Config, result *sim.Result) error {
	f, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return err
	}
	if err := WriteSeries(f, result.Series); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	rows, cols := result.Series.Dims()
	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: now,
		Rows:      rows,
		Cols:      cols,
		Dt:        cfg.Time.Dt,
		Config:    cfg,
		Metrics:   result.Metrics,
	}
	return writeJSON(filepath.Join(runDir, metadataFile), meta)
}

// List returns the metadata of every readable run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads the stored M×N series of a run.
func (s *Store) LoadSeries(runID string) (*mat.CDense, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	series, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return series, nil
}

// SaveAnalysis stores a decomposition summary next to the run.
func (s *Store) SaveAnalysis(runID string, summary *AnalysisSummary) error {
	if _, err := os.Stat(filepath.Join(s.baseDir, runID)); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.baseDir, runID, analysisFile), summary)
}

func (s *Store) LoadAnalysis(runID string) (*AnalysisSummary, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, analysisFile))
	if err != nil {
		return nil, err
	}
	var summary AnalysisSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &summary, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
