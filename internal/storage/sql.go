package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/san-kum/quadsim/internal/dynamo"
)

const sqliteFile = "quadsim.db"

type runRecord struct {
	ID         string `gorm:"primaryKey"`
	Name       string `gorm:"index"`
	Timestamp  time.Time
	Seed       int64
	Dt         float64
	Duration   float64
	Integrator string
	Pilot      string
	Scenario   string
	Steps      int
	FinalMode  string
	Metrics    map[string]float64 `gorm:"serializer:json"`
}

func (runRecord) TableName() string { return "runs" }

// sampleRecord keeps the commonly queried channels as columns and the full
// row, in Columns order, as JSON.
type sampleRecord struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index:idx_run_step"`
	Step     int    `gorm:"index:idx_run_step"`
	Time     float64
	X        float64
	Y        float64
	Z        float64
	TiltDeg  float64
	Mode     int
	Throttle float64
	ThrustN  float64
	PowerW   float64
	Battery  float64
	Values   []float64 `gorm:"serializer:json"`
}

func (sampleRecord) TableName() string { return "samples" }

// SQLStore keeps runs in a single SQLite database.
type SQLStore struct {
	path string
	db   *gorm.DB
}

// NewSQLStore opens dir/quadsim.db. Tables are created by Init.
func NewSQLStore(dir string) (*SQLStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, sqliteFile)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("storage: setting pragma: %w", err)
		}
	}
	return &SQLStore{path: path, db: db}, nil
}

func (s *SQLStore) Init() error {
	return s.db.AutoMigrate(&runRecord{}, &sampleRecord{})
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) Save(meta RunMetadata, samples []dynamo.Sample) (string, error) {
	meta = fill(meta, samples)
	series := SeriesFromSamples(samples)

	records := make([]sampleRecord, len(samples))
	for i, smp := range samples {
		pos := smp.Observation.Position
		records[i] = sampleRecord{
			RunID:    meta.ID,
			Step:     i,
			Time:     smp.Time,
			X:        pos[0],
			Y:        pos[1],
			Z:        pos[2],
			TiltDeg:  smp.Observation.TiltDeg(),
			Mode:     int(smp.Telemetry.Mode),
			Throttle: smp.Telemetry.Throttle,
			ThrustN:  smp.Telemetry.TotalThrustN,
			PowerW:   smp.Telemetry.PowerW,
			Battery:  smp.Telemetry.Battery01,
			Values:   series.Rows[i],
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(toRecord(meta)).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 500).Error
	})
	if err != nil {
		return "", fmt.Errorf("storage: save %s: %w", meta.ID, err)
	}
	return meta.ID, nil
}

func (s *SQLStore) List() ([]RunMetadata, error) {
	var recs []runRecord
	if err := s.db.Order("timestamp desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	runs := make([]RunMetadata, len(recs))
	for i, r := range recs {
		runs[i] = fromRecord(r)
	}
	return runs, nil
}

func (s *SQLStore) Load(id string) (*RunMetadata, error) {
	var rec runRecord
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("storage: run %q: %w", id, dynamo.ErrNotFound)
		}
		return nil, err
	}
	meta := fromRecord(rec)
	return &meta, nil
}

func (s *SQLStore) LoadSeries(id string) (*Series, error) {
	if _, err := s.Load(id); err != nil {
		return nil, err
	}
	var recs []sampleRecord
	if err := s.db.Where("run_id = ?", id).Order("step").Find(&recs).Error; err != nil {
		return nil, err
	}
	series := &Series{Columns: Columns, Rows: make([][]float64, len(recs))}
	for i, r := range recs {
		series.Rows[i] = r.Values
	}
	return series, nil
}

func toRecord(m RunMetadata) *runRecord {
	return &runRecord{
		ID:         m.ID,
		Name:       m.Name,
		Timestamp:  m.Timestamp,
		Seed:       m.Seed,
		Dt:         m.Dt,
		Duration:   m.Duration,
		Integrator: m.Integrator,
		Pilot:      m.Pilot,
		Scenario:   m.Scenario,
		Steps:      m.Steps,
		FinalMode:  m.FinalMode,
		Metrics:    m.Metrics,
	}
}

func fromRecord(r runRecord) RunMetadata {
	return RunMetadata{
		ID:         r.ID,
		Name:       r.Name,
		Timestamp:  r.Timestamp,
		Seed:       r.Seed,
		Dt:         r.Dt,
		Duration:   r.Duration,
		Integrator: r.Integrator,
		Pilot:      r.Pilot,
		Scenario:   r.Scenario,
		Steps:      r.Steps,
		FinalMode:  r.FinalMode,
		Metrics:    r.Metrics,
	}
}
