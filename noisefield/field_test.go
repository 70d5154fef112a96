package noisefield

import (
	"math"
	"testing"
)

func allPatterns() []Pattern {
	return []Pattern{PatternSimplex, PatternCurl, PatternFractal, PatternCellular, PatternFlow}
}

// TestAmplitudeBound samples a grid of points for every pattern and checks
// the output magnitude never exceeds the configured amplitude.
func TestAmplitudeBound(t *testing.T) {
	const amplitude = 3.0
	for _, pattern := range allPatterns() {
		f := New(Config{Pattern: pattern, Amplitude: amplitude, Scale: 0.01, TimeScale: 0.01, Octaves: 4, Seed: 7})
		for step := 0; step < 5; step++ {
			for x := -500.0; x <= 500; x += 100 {
				for y := -500.0; y <= 500; y += 100 {
					fx, fy := f.Sample(x, y)
					if m := math.Hypot(fx, fy); m > amplitude+1e-9 {
						t.Fatalf("%s: |F(%f,%f)| = %f exceeds amplitude %f", pattern, x, y, m, amplitude)
					}
					if math.IsNaN(fx) || math.IsNaN(fy) {
						t.Fatalf("%s: F(%f,%f) is NaN", pattern, x, y)
					}
				}
			}
			f.Advance()
		}
	}
}

// TestZeroAmplitudeNoOp verifies amplitude 0 short-circuits to (0,0).
func TestZeroAmplitudeNoOp(t *testing.T) {
	for _, pattern := range allPatterns() {
		f := New(Config{Pattern: pattern, Amplitude: 0, Seed: 1})
		fx, fy := f.Sample(123, 456)
		if fx != 0 || fy != 0 {
			t.Errorf("%s: amplitude 0 sample = (%f, %f), want (0, 0)", pattern, fx, fy)
		}
	}
}

// TestSpatialContinuity verifies nearby samples stay close: no per-tick popping.
func TestSpatialContinuity(t *testing.T) {
	for _, pattern := range allPatterns() {
		if pattern == PatternCellular {
			// Cellular is piecewise by design: direction flips across
			// region boundaries while the magnitude stays continuous.
			continue
		}
		f := New(Config{Pattern: pattern, Amplitude: 1, Scale: 0.005, Octaves: 4, Seed: 11})
		const step = 0.5 // world units; 0.0025 in noise space
		prevX, prevY := f.Sample(0, 0)
		for x := step; x < 200; x += step {
			fx, fy := f.Sample(x, 0)
			jump := math.Hypot(fx-prevX, fy-prevY)
			if jump > 0.35 {
				t.Fatalf("%s: discontinuity at x=%f, jump=%f", pattern, x, jump)
			}
			prevX, prevY = fx, fy
		}
	}
}

// TestDeterministicForSeed verifies identical configs sample identically.
func TestDeterministicForSeed(t *testing.T) {
	for _, pattern := range allPatterns() {
		cfg := Config{Pattern: pattern, Amplitude: 2, Scale: 0.01, TimeScale: 0.02, Octaves: 3, Seed: 21}
		a, b := New(cfg), New(cfg)
		for i := 0; i < 10; i++ {
			ax, ay := a.SampleAt(float64(i)*13, float64(i)*7, 0.5)
			bx, by := b.SampleAt(float64(i)*13, float64(i)*7, 0.5)
			if ax != bx || ay != by {
				t.Fatalf("%s: same seed sampled differently: (%f,%f) vs (%f,%f)", pattern, ax, ay, bx, by)
			}
		}
	}
}

// TestUnknownPatternFallsBack verifies unknown patterns use the coherent family.
func TestUnknownPatternFallsBack(t *testing.T) {
	base := Config{Amplitude: 1, Scale: 0.01, Octaves: 4, Seed: 3}

	unknownCfg := base
	unknownCfg.Pattern = Pattern("plasma")
	unknown := New(unknownCfg)

	simplexCfg := base
	simplexCfg.Pattern = PatternSimplex
	simplex := New(simplexCfg)

	ux, uy := unknown.SampleAt(10, 20, 0)
	sx, sy := simplex.SampleAt(10, 20, 0)
	if ux != sx || uy != sy {
		t.Errorf("unknown pattern = (%f, %f), simplex = (%f, %f); want identical", ux, uy, sx, sy)
	}
}

// TestCurlDivergenceFree numerically estimates the divergence of the curl
// field and checks it stays near zero.
func TestCurlDivergenceFree(t *testing.T) {
	f := New(Config{Pattern: PatternCurl, Amplitude: 1, Scale: 0.01, Octaves: 4, Seed: 17})
	const h = 0.05 // world units
	maxDiv := 0.0
	for x := -300.0; x <= 300; x += 60 {
		for y := -300.0; y <= 300; y += 60 {
			fx1, _ := f.SampleAt(x+h, y, 0.3)
			fx0, _ := f.SampleAt(x-h, y, 0.3)
			_, fy1 := f.SampleAt(x, y+h, 0.3)
			_, fy0 := f.SampleAt(x, y-h, 0.3)
			div := (fx1-fx0)/(2*h) + (fy1-fy0)/(2*h)
			if math.Abs(div) > maxDiv {
				maxDiv = math.Abs(div)
			}
		}
	}
	// Magnitude scales linearly, so the only residual is finite-difference
	// discretization error of the rotated gradient.
	if maxDiv > 0.005 {
		t.Errorf("max |divergence| = %f, want near zero", maxDiv)
	}
}

// TestFrozenTime verifies TimeScale 0 keeps the field static across Advance.
func TestFrozenTime(t *testing.T) {
	f := New(Config{Pattern: PatternSimplex, Amplitude: 1, Scale: 0.01, TimeScale: 0, Octaves: 4, Seed: 9})
	x0, y0 := f.Sample(50, 50)
	for i := 0; i < 10; i++ {
		f.Advance()
	}
	x1, y1 := f.Sample(50, 50)
	if x0 != x1 || y0 != y1 {
		t.Errorf("frozen field changed: (%f,%f) -> (%f,%f)", x0, y0, x1, y1)
	}
}
