package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/zoomsim/internal/config"
	"github.com/san-kum/zoomsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var csvHeader = []string{"time", "hfov", "focal_length", "goal_fov", "zoom", "bound"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes a stored run. SlewRate is nil for instant zoom,
// which JSON cannot represent as +Inf.
type RunMetadata struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Timestamp    time.Time          `json:"timestamp"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Sensor       string             `json:"sensor"`
	Topic        string             `json:"topic,omitempty"`
	MaxZoom      float64            `json:"max_zoom"`
	SlewRate     *float64           `json:"slew_rate"`
	ReferenceFov float64            `json:"reference_fov,omitempty"`
	Commands     []config.Command   `json:"commands"`
	Steps        int                `json:"steps"`
	Errors       int                `json:"errors"`
	Metrics      map[string]float64 `json:"metrics"`
}

// SlewRateValue returns the slew rate with nil mapped to +Inf.
func (m RunMetadata) SlewRateValue() float64 {
	if m.SlewRate == nil {
		return math.Inf(1)
	}
	return *m.SlewRate
}

// NewMetadata describes a run of cfg.
func NewMetadata(cfg *config.Config, result *sim.Result) RunMetadata {
	meta := RunMetadata{
		Name:         cfg.Name,
		Timestamp:    time.Now(),
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		Sensor:       cfg.Camera.Sensor,
		Topic:        cfg.Plugin.Topic,
		MaxZoom:      cfg.Plugin.MaxZoom,
		ReferenceFov: cfg.Plugin.ReferenceFov,
		Commands:     append([]config.Command(nil), cfg.Commands...),
		Steps:        result.StepsTaken,
		Errors:       len(result.Errors),
		Metrics:      finiteMetrics(result.Metrics),
	}
	if !math.IsInf(cfg.Plugin.SlewRate, 1) {
		rate := cfg.Plugin.SlewRate
		meta.SlewRate = &rate
	}
	return meta
}

func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// Save writes metadata.json and states.csv under a new run directory and
// returns the run id.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := NewMetadata(cfg, result)
	meta.ID = runID

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteCSV writes samples with a header row.
func WriteCSV(out io.Writer, samples []sim.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range samples {
		row := []string{
			formatFloat(s.Time),
			formatFloat(s.Hfov),
			formatFloat(s.FocalLength),
			formatFloat(s.GoalFov),
			formatFloat(s.Zoom),
			strconv.FormatBool(s.Bound),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns stored runs, newest first. Unreadable runs are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSamples reads states.csv of a run. Malformed rows are skipped.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	samples := make([]sim.Sample, 0, max(len(records)-1, 0))
	for i := 1; i < len(records); i++ {
		sample, ok := parseRow(records[i])
		if !ok {
			continue
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

func parseRow(record []string) (sim.Sample, bool) {
	if len(record) < len(csvHeader) {
		return sim.Sample{}, false
	}

	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return sim.Sample{}, false
		}
		vals[i] = v
	}
	bound, err := strconv.ParseBool(record[5])
	if err != nil {
		return sim.Sample{}, false
	}

	return sim.Sample{
		Time:        vals[0],
		Hfov:        vals[1],
		FocalLength: vals[2],
		GoalFov:     vals[3],
		Zoom:        vals[4],
		Bound:       bound,
	}, true
}
