package environment

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/dynamo"
)

func TestZeroCoefficientsAreInert(t *testing.T) {
	m := New(Params{AerodynamicsEnabled: true}, NewPerlin(7))

	for i := 0; i < 500; i++ {
		tm := float64(i) * 0.01
		f := m.Step(mgl64.Vec3{tm, 2, -tm}, mgl64.Vec3{3, -1, 2}, tm)
		if f.Drag != (mgl64.Vec3{}) {
			t.Fatalf("tick %d: drag = %v, want zero", i, f.Drag)
		}
		if f.Turbulence != (mgl64.Vec3{}) {
			t.Fatalf("tick %d: turbulence = %v, want zero", i, f.Turbulence)
		}
		if f.Wind != (mgl64.Vec3{}) {
			t.Fatalf("tick %d: wind = %v, want zero", i, f.Wind)
		}
	}
}

func TestDrag(t *testing.T) {
	p := Params{AerodynamicsEnabled: true, LinearDrag: 0.1, QuadraticDrag: 0.05}
	m := New(p, Constant(0.5))

	tests := []struct {
		name string
		rel  mgl64.Vec3
		want mgl64.Vec3
	}{
		{"still air", mgl64.Vec3{}, mgl64.Vec3{}},
		{"below epsilon", mgl64.Vec3{1e-9, 0, 0}, mgl64.Vec3{}},
		{"forward 2 m/s", mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, -2 * (0.1 + 0.05*2)}},
		{"diagonal", mgl64.Vec3{3, 4, 0}, mgl64.Vec3{-3 * 0.35, -4 * 0.35, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Drag(tt.rel)
			if !got.ApproxEqualThreshold(tt.want, 1e-12) {
				t.Errorf("Drag(%v) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestDragDisabled(t *testing.T) {
	m := New(Params{LinearDrag: 1, QuadraticDrag: 1}, Constant(0.5))
	if got := m.Drag(mgl64.Vec3{5, 0, 0}); got != (mgl64.Vec3{}) {
		t.Errorf("drag with aerodynamics disabled = %v", got)
	}
}

func TestDragOpposesMotion(t *testing.T) {
	m := New(DefaultParams(), NewPerlin(1))
	for _, rel := range []mgl64.Vec3{{1, 0, 0}, {0, -4, 0}, {-2, 3, 7}} {
		if d := m.Drag(rel); d.Dot(rel) >= 0 {
			t.Errorf("drag %v does not oppose %v", d, rel)
		}
	}
}

func TestWindWithStubNoise(t *testing.T) {
	p := Params{SteadyWind: mgl64.Vec3{1, 0, -2}, GustAmplitude: 2}

	tests := []struct {
		name  string
		noise Noise
		want  mgl64.Vec3
	}{
		{"midpoint is steady", Constant(0.5), mgl64.Vec3{1, 0, -2}},
		{"max gust", Constant(1), mgl64.Vec3{3, 2, 0}},
		{"min gust", Constant(0), mgl64.Vec3{-1, -2, -4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(p, tt.noise)
			got := m.Wind(mgl64.Vec3{10, 5, 3}, 4.2)
			if !got.ApproxEqualThreshold(tt.want, 1e-12) {
				t.Errorf("Wind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGustAxesDecorrelated(t *testing.T) {
	seen := map[[2]float64]bool{}
	probe := NoiseFunc(func(x, y float64) float64 {
		seen[[2]float64{x, y}] = true
		return 0.5
	})
	m := New(Params{GustAmplitude: 1, GustFrequency: 1, TurbulenceTorque: 1, TurbulenceFrequency: 1}, probe)
	m.Wind(mgl64.Vec3{}, 1)
	m.Turbulence(1)
	if len(seen) != 6 {
		t.Errorf("expected 6 distinct sample coordinates, got %d", len(seen))
	}
}

func TestTurbulenceBounded(t *testing.T) {
	m := New(DefaultParams(), NewPerlin(42))
	limit := DefaultParams().TurbulenceTorque
	for i := 0; i < 1000; i++ {
		tq := m.Turbulence(float64(i) * 0.013)
		for axis := 0; axis < 3; axis++ {
			if math.Abs(tq[axis]) > limit+1e-12 {
				t.Fatalf("turbulence %v exceeds %v", tq, limit)
			}
		}
	}
}

func TestPerlinDeterministic(t *testing.T) {
	a, b := NewPerlin(99), NewPerlin(99)
	for i := 0; i < 50; i++ {
		x, y := float64(i)*0.37, float64(i)*0.11
		va, vb := a.Sample(x, y), b.Sample(x, y)
		if va != vb {
			t.Fatalf("same seed diverged at %d: %v != %v", i, va, vb)
		}
		if va < 0 || va > 1 {
			t.Fatalf("sample %v outside [0,1]", va)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	p := DefaultParams()
	p.QuadraticDrag = -1
	if err := p.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}
