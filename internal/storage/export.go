package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/phasekit/internal/analysis"
	"github.com/san-kum/phasekit/internal/dynamo"
	"github.com/san-kum/phasekit/internal/sim"
)

type ExportData struct {
	RunMetadata
	Times     []float64           `json:"times"`
	States    []dynamo.State      `json:"states"`
	PhaseLine *analysis.PhaseLine `json:"phase_line,omitempty"`
}

// ExportJSON writes a run, and its phase line when pl is non-nil, as one
// JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, result *sim.Result, pl *analysis.PhaseLine) error {
	meta.Steps = result.StepsTaken
	meta.Termination = result.Termination
	data := ExportData{
		RunMetadata: meta,
		Times:       result.Times,
		States:      result.States,
		PhaseLine:   pl,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, meta RunMetadata, result *sim.Result, pl *analysis.PhaseLine) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := ExportJSON(file, meta, result, pl); err != nil {
		return err
	}
	return file.Close()
}
