package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/phasekit/internal/analysis"
	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	analysisFile = "analysis.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	logger  *slog.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: slog.New(slog.DiscardHandler)}
}

func (s *Store) WithLogger(l *slog.Logger) *Store {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one stored trajectory.
type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Formula     string             `json:"formula"`
	Kind        string             `json:"kind"`
	Params      map[string]float64 `json:"params,omitempty"`
	Tau         float64            `json:"tau,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Steps       int                `json:"steps"`
	Termination sim.Termination    `json:"termination"`
	Errors      []string           `json:"errors,omitempty"`
}

// Save writes meta and the trajectory to a new run directory and returns
// its ID. ID, Timestamp, Steps, Termination and Errors are filled from
// result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if meta.Name == "" {
		meta.Name = "run"
	}
	meta.Timestamp = time.Now()
	meta.Steps = result.StepsTaken
	meta.Termination = result.Termination
	meta.Errors = nil
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	runID, runDir, err := s.newRunDir(meta.Name, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = runID

	if err := writeJSONFile(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := WriteCSV(csvFile, result); err != nil {
		return "", err
	}
	return runID, csvFile.Close()
}

func (s *Store) newRunDir(name string, ts time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", name, ts.Unix())
	for i := 0; ; i++ {
		runID := base
		if i > 0 {
			runID = fmt.Sprintf("%s_%d", base, i)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

func writeJSONFile(path string, v any) error {
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

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Warn("skipping run", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

// LoadStates reads the trajectory of a run.
func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

// SaveAnalysis stores a phase-line report next to the run.
func (s *Store) SaveAnalysis(runID string, pl *analysis.PhaseLine) error {
	runDir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(runDir); err != nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	data, err := yaml.Marshal(pl)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, analysisFile), data, 0644)
}

func (s *Store) LoadAnalysis(runID string) (*analysis.PhaseLine, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, analysisFile))
	if err != nil {
		return nil, err
	}
	var pl analysis.PhaseLine
	if err := yaml.Unmarshal(data, &pl); err != nil {
		return nil, err
	}
	return &pl, nil
}

// WriteCSV writes a "time,x0[,x1]" table with full float precision.
func WriteCSV(w io.Writer, result *sim.Result) error {
	cw := csv.NewWriter(w)
	if len(result.States) > 0 {
		header := []string{"time"}
		for i := range result.States[0] {
			header = append(header, fmt.Sprintf("x%d", i))
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	row := make([]string, 0, 3)
	for i, state := range result.States {
		row = append(row[:0], strconv.FormatFloat(result.Times[i], 'g', -1, 64))
		for _, val := range state {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) ([]dynamo.State, []float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dynamo.State, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("states line %d: expected time and state", i+2)
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("states line %d: %w", i+2, err)
		}

		state := make(dynamo.State, len(record)-1)
		for j := range state {
			if state[j], err = strconv.ParseFloat(record[j+1], 64); err != nil {
				return nil, nil, fmt.Errorf("states line %d: %w", i+2, err)
			}
		}
		times = append(times, t)
		states = append(states, state)
	}
	return states, times, nil
}
