package environment

import (
	"github.com/aquilax/go-perlin"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Noise is a deterministic coherent noise field. Sample returns a value in [0, 1].
type Noise interface {
	Sample(x, y float64) float64
}

const (
	perlinAlpha  = 2.0
	perlinBeta   = 2.0
	perlinOctave = 3
)

// Perlin samples 2D gradient noise from a seeded permutation table.
type Perlin struct {
	p *perlin.Perlin
}

func NewPerlin(seed int64) *Perlin {
	return &Perlin{p: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctave, seed)}
}

func (n *Perlin) Sample(x, y float64) float64 {
	return dynamo.Clamp01(0.5 + 0.5*n.p.Noise2D(x, y))
}

// Constant returns the same value everywhere. 0.5 maps to zero gust and zero turbulence.
type Constant float64

func (c Constant) Sample(x, y float64) float64 {
	return dynamo.Clamp01(float64(c))
}

// NoiseFunc adapts a plain function to Noise.
type NoiseFunc func(x, y float64) float64

func (f NoiseFunc) Sample(x, y float64) float64 {
	return f(x, y)
}
