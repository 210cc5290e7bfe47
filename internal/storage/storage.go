package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/quadsim/internal/dynamo"
)

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Pilot      string             `json:"pilot"`
	Scenario   string             `json:"scenario,omitempty"`
	Steps      int                `json:"steps"`
	FinalMode  string             `json:"final_mode"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Backend persists recorded runs.
type Backend interface {
	Init() error
	// Save stores samples under a fresh ID, filled into the returned metadata.
	Save(meta RunMetadata, samples []dynamo.Sample) (string, error)
	List() ([]RunMetadata, error)
	Load(id string) (*RunMetadata, error)
	LoadSeries(id string) (*Series, error)
	Close() error
}

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// New opens a backend rooted at dir.
func New(kind, dir string) (Backend, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(dir), nil
	case KindSQLite:
		return NewSQLStore(dir)
	default:
		return nil, fmt.Errorf("storage: backend %q: %w", kind, dynamo.ErrUnknownName)
	}
}

func newRunID(name string) string {
	if name == "" {
		name = "run"
	}
	return fmt.Sprintf("%s_%s_%s", name, time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8])
}

// fill completes metadata from the samples about to be stored.
func fill(meta RunMetadata, samples []dynamo.Sample) RunMetadata {
	meta.ID = newRunID(meta.Name)
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	if n := len(samples); n > 0 {
		meta.Steps = n - 1
		meta.FinalMode = samples[n-1].Telemetry.Mode.String()
	}
	if meta.Metrics == nil {
		meta.Metrics = map[string]float64{}
	}
	return meta
}
