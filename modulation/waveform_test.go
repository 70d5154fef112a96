package modulation

import (
	"math"
	"testing"
)

func TestEvaluateStaysInUnitRange(t *testing.T) {
	for _, w := range Waveforms {
		w := w
		t.Run(string(w), func(t *testing.T) {
			for i := 0; i <= 1000; i++ {
				p := float64(i) / 1000
				v := Evaluate(w, p, 99)
				if v < 0 || v > 1 || math.IsNaN(v) {
					t.Fatalf("Evaluate(%s, %f) = %f outside [0, 1]", w, p, v)
				}
			}
		})
	}
}

func TestEvaluateIsPeriodic(t *testing.T) {
	// Every waveform, including random, must repeat exactly each cycle.
	for _, w := range Waveforms {
		for i := 0; i < 50; i++ {
			p := float64(i) / 50
			a := Evaluate(w, p, 7)
			b := Evaluate(w, p+1, 7)
			c := Evaluate(w, p+13, 7)
			if math.Abs(a-b) > 1e-12 || math.Abs(a-c) > 1e-12 {
				t.Errorf("%s not periodic at phase %f: %f, %f, %f", w, p, a, b, c)
			}
		}
	}
}

func TestEvaluateNegativePhaseWraps(t *testing.T) {
	for _, w := range Waveforms {
		a := Evaluate(w, -0.25, 3)
		b := Evaluate(w, 0.75, 3)
		if math.Abs(a-b) > 1e-12 {
			t.Errorf("%s: Evaluate(-0.25) = %f, Evaluate(0.75) = %f", w, a, b)
		}
	}
}

func TestSineShape(t *testing.T) {
	if v := Evaluate(WaveSine, 0, 0); math.Abs(v) > 1e-12 {
		t.Errorf("sine at phase 0 = %f, want 0", v)
	}
	if v := Evaluate(WaveSine, 0.5, 0); math.Abs(v-1) > 1e-12 {
		t.Errorf("sine at phase 0.5 = %f, want 1", v)
	}
}

func TestTrianglePeaksAtHalfPeriod(t *testing.T) {
	if v := Evaluate(WaveTriangle, 0.5, 0); v != 1 {
		t.Errorf("triangle at phase 0.5 = %f, want 1", v)
	}
	if v := Evaluate(WaveTriangle, 0.25, 0); v != 0.5 {
		t.Errorf("triangle at phase 0.25 = %f, want 0.5", v)
	}
}

func TestRandomHoldsStepsWithinCycle(t *testing.T) {
	// Two phases inside the same step see the same held value.
	a := Evaluate(WaveRandom, 0.01, 42)
	b := Evaluate(WaveRandom, 0.12, 42)
	if a != b {
		t.Errorf("values within one step differ: %f vs %f", a, b)
	}
	// Different seeds decorrelate.
	c := Evaluate(WaveRandom, 0.01, 43)
	if a == c {
		t.Errorf("different seeds produced identical value %f", a)
	}
}

func TestUnknownWaveformFallsBackToSine(t *testing.T) {
	for i := 0; i < 20; i++ {
		p := float64(i) / 20
		if got, want := Evaluate(Waveform("warble"), p, 0), Evaluate(WaveSine, p, 0); got != want {
			t.Fatalf("fallback mismatch at phase %f: %f vs %f", p, got, want)
		}
	}
}
