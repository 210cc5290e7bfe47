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
	"strconv"

	"github.com/san-kum/quadsim/internal/dynamo"
)

const (
	metadataFile  = "metadata.json"
	telemetryFile = "telemetry.csv"
)

// FileStore keeps one directory per run: metadata.json and telemetry.csv.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Save(meta RunMetadata, samples []dynamo.Sample) (string, error) {
	meta = fill(meta, samples)
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

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

	csvFile, err := os.Create(filepath.Join(runDir, telemetryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, SeriesFromSamples(samples)); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// WriteCSV writes a header row and one row per sample.
func WriteCSV(out io.Writer, series *Series) error {
	w := csv.NewWriter(out)
	if err := w.Write(series.Columns); err != nil {
		return err
	}
	record := make([]string, len(series.Columns))
	for _, row := range series.Rows {
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := w.Write(record[:len(row)]); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadCSV parses what WriteCSV produced.
func ReadCSV(in io.Reader) (*Series, error) {
	r := csv.NewReader(in)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: empty telemetry")
	}

	series := &Series{Columns: records[0], Rows: make([][]float64, 0, len(records)-1)}
	for line, record := range records[1:] {
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: row %d column %s: %w", line+1, series.Columns[i], err)
			}
			row[i] = v
		}
		series.Rows = append(series.Rows, row)
	}
	return series, nil
}

func (s *FileStore) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
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

func (s *FileStore) Load(id string) (*RunMetadata, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: run %q: %w", id, dynamo.ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	var meta RunMetadata
	if err := json.NewDecoder(f).Decode(&meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *FileStore) LoadSeries(id string) (*Series, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, telemetryFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: run %q: %w", id, dynamo.ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
