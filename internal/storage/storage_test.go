package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/quadsim/internal/dynamo"
)

func testSamples(n int) []dynamo.Sample {
	samples := make([]dynamo.Sample, n)
	for i := range samples {
		t := float64(i) * 0.1
		samples[i] = dynamo.Sample{
			Time: t,
			Observation: dynamo.Observation{
				Position: mgl64.Vec3{0, t * 2, 0.5},
				Rotation: mgl64.QuatIdent(),
				Velocity: mgl64.Vec3{0, 2, 0},
			},
			Command: dynamo.Command{ThrottleDelta: 1, KillToggle: i == 2},
			Telemetry: dynamo.Telemetry{
				Throttle:     0.1 * float64(i),
				TotalThrustN: 3.25,
				Battery01:    1 - 0.01*float64(i),
				MotorRPM:     [4]float64{100, 200, 300, 400},
			},
		}
	}
	samples[n-1].Telemetry.Mode = dynamo.ModeKilled
	return samples
}

func testMeta() RunMetadata {
	return RunMetadata{
		Name:       "hover",
		Seed:       7,
		Dt:         0.1,
		Duration:   0.4,
		Integrator: "rk4",
		Pilot:      "hover",
		Metrics:    map[string]float64{"distance_m": 0.8},
	}
}

func TestSeriesFromSamples(t *testing.T) {
	s := SeriesFromSamples(testSamples(5))
	require.Equal(t, 5, s.Len())
	require.Len(t, s.Rows[0], len(Columns))

	y, err := s.Column("y")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.2, 0.4, 0.6, 0.8}, y, 1e-12)

	kill, err := s.Column("kill_toggle")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 0, 0}, kill)

	qw, err := s.Column("qw")
	require.NoError(t, err)
	assert.Equal(t, 1.0, qw[0])

	rpm, err := s.Column("rpm_bl")
	require.NoError(t, err)
	assert.Equal(t, 300.0, rpm[1])

	assert.InDelta(t, 0.1, s.Dt(), 1e-12)

	_, err = s.Column("nope")
	assert.ErrorIs(t, err, dynamo.ErrUnknownName)
}

func TestCSVRoundTrip(t *testing.T) {
	s := SeriesFromSamples(testSamples(4))
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.Columns, back.Columns)
	assert.Equal(t, s.Rows, back.Rows)
}

func TestReadCSVRejectsGarbage(t *testing.T) {
	_, err := ReadCSV(bytes.NewBufferString("time,x\n0,abc\n"))
	assert.Error(t, err)

	_, err = ReadCSV(bytes.NewBufferString(""))
	assert.Error(t, err)
}

func TestBackends(t *testing.T) {
	for _, kind := range []string{KindFile, KindSQLite} {
		t.Run(kind, func(t *testing.T) {
			store, err := New(kind, t.TempDir())
			require.NoError(t, err)
			defer store.Close()
			require.NoError(t, store.Init())

			runs, err := store.List()
			require.NoError(t, err)
			assert.Empty(t, runs)

			samples := testSamples(5)
			id, err := store.Save(testMeta(), samples)
			require.NoError(t, err)
			assert.Contains(t, id, "hover_")

			meta, err := store.Load(id)
			require.NoError(t, err)
			assert.Equal(t, id, meta.ID)
			assert.Equal(t, int64(7), meta.Seed)
			assert.Equal(t, 4, meta.Steps)
			assert.Equal(t, "killed", meta.FinalMode)
			assert.Equal(t, 0.8, meta.Metrics["distance_m"])
			assert.False(t, meta.Timestamp.IsZero())

			series, err := store.LoadSeries(id)
			require.NoError(t, err)
			assert.Equal(t, SeriesFromSamples(samples).Rows, series.Rows)

			second, err := store.Save(testMeta(), samples[:2])
			require.NoError(t, err)
			assert.NotEqual(t, id, second)

			runs, err = store.List()
			require.NoError(t, err)
			assert.Len(t, runs, 2)

			_, err = store.Load("missing")
			assert.ErrorIs(t, err, dynamo.ErrNotFound)
			_, err = store.LoadSeries("missing")
			assert.ErrorIs(t, err, dynamo.ErrNotFound)
		})
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New("postgres", t.TempDir())
	assert.ErrorIs(t, err, dynamo.ErrUnknownName)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	series := SeriesFromSamples(testSamples(3))

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, ExportCSV(csvPath, series))
	assert.FileExists(t, csvPath)

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, ExportJSON(jsonPath, testMeta(), series))
	assert.FileExists(t, jsonPath)

	assert.Error(t, ExportCSV(filepath.Join(dir, "no", "such", "dir.csv"), series))
}
