package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportData is the JSON document written by ExportJSON.
type ExportData struct {
	Run     RunMetadata `json:"run"`
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// ExportJSON writes a run to path, or to stdout when path is "" or "-".
func ExportJSON(path string, meta RunMetadata, series *Series) error {
	return withOutput(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ExportData{Run: meta, Columns: series.Columns, Rows: series.Rows})
	})
}

// ExportCSV writes a run's telemetry to path, or to stdout.
func ExportCSV(path string, series *Series) error {
	return withOutput(path, func(w io.Writer) error {
		return WriteCSV(w, series)
	})
}

func withOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
