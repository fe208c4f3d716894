package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/wallsim/internal/aggregate"
	"github.com/san-kum/wallsim/internal/progress"
	"github.com/san-kum/wallsim/internal/sim"
	"github.com/san-kum/wallsim/internal/wall"
)

const (
	metadataFile = "metadata.json"
	wallFile     = "wall.json"
	progressFile = "progress.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps finished runs on disk, one directory per run.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func NewRunID() string { return uuid.NewString() }

type RunMetadata struct {
	ID         string    `json:"id"`
	ConfigID   string    `json:"config_id"`
	Timestamp  time.Time `json:"timestamp"`
	NumCrews   int       `json:"num_crews"`
	Crews      int       `json:"crews"`
	Mode       string    `json:"mode"`
	Strategy   string    `json:"strategy"`
	LogBackend string    `json:"log_backend"`
	Days       int       `json:"days"`
	Feet       int       `json:"feet"`
	Ice        int64     `json:"ice"`
	Cost       int64     `json:"cost"`
}

// Run is a stored run read back into memory.
type Run struct {
	Meta RunMetadata
	Wall wall.Configuration
	Log  *progress.MemoryLog
}

// Save writes res under runID. An empty runID gets a fresh one.
func (s *Store) Save(runID, logBackend string, res *sim.Result) (string, error) {
	if runID == "" {
		runID = NewRunID()
	}
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	entries, err := res.Log.Entries()
	if err != nil {
		return "", err
	}
	totals, err := aggregate.FromSectionHeights(res.Wall, res.Final)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		ConfigID:   res.Wall.Hash(),
		Timestamp:  time.Now(),
		NumCrews:   res.NumCrews,
		Crews:      res.Crews,
		Mode:       res.Mode.String(),
		Strategy:   res.Strategy,
		LogBackend: logBackend,
		Days:       res.Days,
		Feet:       totals.Feet,
		Ice:        totals.Ice,
		Cost:       totals.Cost,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, wallFile), res.Wall); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, progressFile))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := progress.WriteCSV(f, entries); err != nil {
		return "", err
	}
	return runID, f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// List returns the stored runs, newest first. Directories without readable
// metadata are ignored.
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

		var meta RunMetadata
		if err := readJSON(filepath.Join(s.baseDir, entry.Name(), metadataFile), &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := readJSON(filepath.Join(s.baseDir, runID, metadataFile), &meta); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	return &meta, nil
}

// Latest returns the id of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: no runs stored", ErrRunNotFound)
	}
	return runs[0].ID, nil
}

// LoadRun reads back the metadata, the starting wall and the progress log
// of a run.
func (s *Store) LoadRun(runID string) (*Run, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	var w wall.Configuration
	if err := readJSON(filepath.Join(s.baseDir, runID, wallFile), &w); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, progressFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := progress.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	log, err := progress.Replay(entries)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &Run{Meta: *meta, Wall: w, Log: log}, nil
}
