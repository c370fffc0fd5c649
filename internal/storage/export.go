package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/zoomsim/internal/config"
	"github.com/san-kum/zoomsim/internal/sim"
)

// ExportData is the JSON form of a run with one series per sample field.
type ExportData struct {
	RunMetadata
	Times       []float64 `json:"times"`
	Hfov        []float64 `json:"hfov"`
	FocalLength []float64 `json:"focal_length"`
	GoalFov     []float64 `json:"goal_fov"`
	Zoom        []float64 `json:"zoom"`
}

func NewExportData(meta RunMetadata, samples []sim.Sample) ExportData {
	data := ExportData{
		RunMetadata: meta,
		Times:       make([]float64, len(samples)),
		Hfov:        make([]float64, len(samples)),
		FocalLength: make([]float64, len(samples)),
		GoalFov:     make([]float64, len(samples)),
		Zoom:        make([]float64, len(samples)),
	}
	for i, s := range samples {
		data.Times[i] = s.Time
		data.Hfov[i] = s.Hfov
		data.FocalLength[i] = s.FocalLength
		data.GoalFov[i] = s.GoalFov
		data.Zoom[i] = s.Zoom
	}
	return data
}

// WriteJSON encodes data indented.
func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, cfg *config.Config, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, NewExportData(NewMetadata(cfg, result), result.Samples))
}

// ExportCSV writes the samples of result to path.
func ExportCSV(path string, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(file, result.Samples)
}
