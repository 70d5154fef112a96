// Package noisefield samples pluggable 2D vector fields used to perturb
// particle motion. All patterns are spatially continuous and bounded by the
// configured amplitude; the field owns its own clock so callers advance time
// once per tick.
package noisefield

import (
	"math"

	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Pattern names a vector-field family.
type Pattern string

const (
	// PatternSimplex is coherent smooth noise (angle + magnitude taps).
	PatternSimplex Pattern = "simplex"
	// PatternCurl is divergence-free swirl derived from a scalar potential.
	PatternCurl Pattern = "curl"
	// PatternFractal sums perlin octaves with decreasing amplitude.
	PatternFractal Pattern = "fractal"
	// PatternCellular pushes along a Voronoi-style distance field.
	PatternCellular Pattern = "cellular"
	// PatternFlow is a slowly rotating directional current with turbulence.
	PatternFlow Pattern = "flow"
)

// Config holds the sampling knobs for a field.
type Config struct {
	Pattern   Pattern `yaml:"pattern" json:"pattern"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	Scale     float64 `yaml:"scale" json:"scale"`
	TimeScale float64 `yaml:"time_scale" json:"time_scale"` // Time advance per tick (0 = frozen)
	Contrast  float64 `yaml:"contrast" json:"contrast"`
	Octaves   int     `yaml:"octaves" json:"octaves"`
	Seed      int64   `yaml:"seed" json:"seed"`
}

// withDefaults fills unusable knob values.
func (c Config) withDefaults() Config {
	if c.Scale <= 0 {
		c.Scale = 0.004
	}
	if c.Contrast <= 0 {
		c.Contrast = 1
	}
	if c.Octaves < 1 {
		c.Octaves = 4
	}
	return c
}

// Field samples a configured vector field.
type Field struct {
	cfg     Config
	simplex opensimplex.Noise
	perlin  *perlin.Perlin
	time    float64
}

// New creates a field for the given configuration.
func New(cfg Config) *Field {
	cfg = cfg.withDefaults()
	return &Field{
		cfg:     cfg,
		simplex: opensimplex.New(cfg.Seed),
		perlin:  perlin.NewPerlin(2, 2, int32(cfg.Octaves), cfg.Seed),
	}
}

// Config returns the active configuration.
func (f *Field) Config() Config {
	return f.cfg
}

// SetConfig swaps the configuration, rebuilding generators if the seed or
// octave count changed. The field clock is preserved.
func (f *Field) SetConfig(cfg Config) {
	cfg = cfg.withDefaults()
	if cfg.Seed != f.cfg.Seed {
		f.simplex = opensimplex.New(cfg.Seed)
	}
	if cfg.Seed != f.cfg.Seed || cfg.Octaves != f.cfg.Octaves {
		f.perlin = perlin.NewPerlin(2, 2, int32(cfg.Octaves), cfg.Seed)
	}
	f.cfg = cfg
}

// SetAmplitude adjusts the output bound without touching the generators.
func (f *Field) SetAmplitude(a float64) {
	if a < 0 {
		a = 0
	}
	f.cfg.Amplitude = a
}

// Amplitude returns the current output bound.
func (f *Field) Amplitude() float64 {
	return f.cfg.Amplitude
}

// Advance moves the field clock forward by one tick.
func (f *Field) Advance() {
	f.time += f.cfg.TimeScale
}

// Time returns the field clock.
func (f *Field) Time() float64 {
	return f.time
}

// Sample returns the field vector at (x, y) for the current clock.
// Magnitude never exceeds the configured amplitude; zero amplitude skips
// evaluation entirely.
func (f *Field) Sample(x, y float64) (fx, fy float64) {
	return f.SampleAt(x, y, f.time)
}

// SampleAt returns the field vector at (x, y) for an explicit time.
func (f *Field) SampleAt(x, y, t float64) (fx, fy float64) {
	if f.cfg.Amplitude == 0 {
		return 0, 0
	}
	u := x * f.cfg.Scale
	v := y * f.cfg.Scale

	switch f.cfg.Pattern {
	case PatternCurl:
		fx, fy = f.sampleCurl(u, v, t)
	case PatternFractal:
		fx, fy = f.sampleFractal(u, v, t)
	case PatternCellular:
		fx, fy = f.sampleCellular(u, v, t)
	case PatternFlow:
		fx, fy = f.sampleFlow(u, v, t)
	default:
		// Unknown patterns fall back to the coherent family.
		fx, fy = f.sampleSimplex(u, v, t)
	}
	return fx, fy
}

// sampleSimplex derives direction and magnitude from two offset noise taps.
func (f *Field) sampleSimplex(u, v, t float64) (float64, float64) {
	angle := f.simplex.Eval3(u, v, t) * math.Pi * 2
	mag := (f.simplex.Eval3(u+137.2, v+81.7, t) + 1) * 0.5
	mag = f.shape(mag)
	return math.Cos(angle) * mag, math.Sin(angle) * mag
}

// sampleCurl takes the rotated gradient of a scalar potential via central
// differences, so the resulting field is divergence-free. Magnitude scales
// linearly with amplitude: nonlinear reshaping, like a binding clamp, would
// reintroduce divergence. The 0.25 damping keeps the raw gradient inside
// the amplitude bound in practice; the clamp below is a safety net only.
func (f *Field) sampleCurl(u, v, t float64) (float64, float64) {
	const h = 0.1
	dpdu := (f.simplex.Eval3(u+h, v, t) - f.simplex.Eval3(u-h, v, t)) / (2 * h)
	dpdv := (f.simplex.Eval3(u, v+h, t) - f.simplex.Eval3(u, v-h, t)) / (2 * h)
	fx := 0.25 * dpdv * f.cfg.Amplitude
	fy := -0.25 * dpdu * f.cfg.Amplitude
	if m := math.Hypot(fx, fy); m > f.cfg.Amplitude {
		s := f.cfg.Amplitude / m
		fx *= s
		fy *= s
	}
	return fx, fy
}

// sampleFractal uses the perlin generator's built-in octave summation for
// both components.
func (f *Field) sampleFractal(u, v, t float64) (float64, float64) {
	nx := f.perlin.Noise3D(u, v, t)
	ny := f.perlin.Noise3D(u+59.3, v+41.1, t)
	return f.shapeVector(nx, ny)
}

// sampleCellular hashes one feature point per unit cell and pushes particles
// away from the nearest feature, fading with the F1 distance.
func (f *Field) sampleCellular(u, v, t float64) (float64, float64) {
	cu, cv := math.Floor(u), math.Floor(v)
	bestDistSq := math.Inf(1)
	var bestDX, bestDY float64
	for di := -1.0; di <= 1; di++ {
		for dj := -1.0; dj <= 1; dj++ {
			ci, cj := cu+di, cv+dj
			// Feature point jittered inside the cell, drifting slowly with time.
			jx, jy := cellHash(f.cfg.Seed, int64(ci), int64(cj))
			px := ci + 0.5 + 0.4*math.Sin(jx*math.Pi*2+t)
			py := cj + 0.5 + 0.4*math.Cos(jy*math.Pi*2+t)
			dx, dy := u-px, v-py
			distSq := dx*dx + dy*dy
			if distSq < bestDistSq {
				bestDistSq = distSq
				bestDX, bestDY = dx, dy
			}
		}
	}
	dist := math.Sqrt(bestDistSq)
	if dist < 1e-9 {
		return 0, 0
	}
	mag := f.shape(clamp01(1 - dist))
	return bestDX / dist * mag, bestDY / dist * mag
}

// sampleFlow rotates a base current slowly over time and perturbs its
// direction with perlin turbulence.
func (f *Field) sampleFlow(u, v, t float64) (float64, float64) {
	base := t * 0.2
	turb := f.perlin.Noise3D(u, v, t) * math.Pi * 0.75
	angle := base + turb
	mag := f.shape((f.perlin.Noise3D(u+23.7, v+17.9, t) + 1) * 0.5)
	return math.Cos(angle) * mag, math.Sin(angle) * mag
}

// shape maps a raw magnitude in [0,1] through the contrast curve and scales
// it by amplitude.
func (f *Field) shape(m float64) float64 {
	return math.Pow(clamp01(m), f.cfg.Contrast) * f.cfg.Amplitude
}

// shapeVector shapes a raw vector's magnitude while preserving direction.
func (f *Field) shapeVector(x, y float64) (float64, float64) {
	m := math.Hypot(x, y)
	if m < 1e-12 {
		return 0, 0
	}
	shaped := f.shape(clamp01(m))
	return x / m * shaped, y / m * shaped
}

// cellHash returns two deterministic values in [0,1) for a cell coordinate.
func cellHash(seed, ci, cj int64) (float64, float64) {
	h := uint64(seed)*0x9e3779b97f4a7c15 ^ uint64(ci)*0xbf58476d1ce4e5b9 ^ uint64(cj)*0x94d049bb133111eb
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	a := float64(h&0xffffffff) / float64(1<<32)
	b := float64(h>>32) / float64(1<<32)
	return a, b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
