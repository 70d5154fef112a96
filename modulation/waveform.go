// Package modulation drives simulation parameters along periodic waveforms.
//
// A modulation binds one registered parameter to a waveform oscillating
// between a min and max value over a fixed duration. The manager evaluates
// all active modulations once per tick, before the physics step, so a tick
// always sees a consistent parameter set.
package modulation

import "math"

// Waveform names a periodic unit shape mapping phase [0,1) to value [0,1].
type Waveform string

const (
	WaveSine         Waveform = "sine"
	WaveTriangle     Waveform = "triangle"
	WaveSawtooth     Waveform = "sawtooth"
	WaveSquare       Waveform = "square"
	WaveSmoothSquare Waveform = "smooth-square"
	WaveExponential  Waveform = "exponential"
	WaveLogarithmic  Waveform = "logarithmic"
	WaveElastic      Waveform = "elastic"
	WaveBounce       Waveform = "bounce"
	WaveRandom       Waveform = "random"
)

// Waveforms lists every supported waveform, in UI order.
var Waveforms = []Waveform{
	WaveSine, WaveTriangle, WaveSawtooth, WaveSquare, WaveSmoothSquare,
	WaveExponential, WaveLogarithmic, WaveElastic, WaveBounce, WaveRandom,
}

// randomSteps is the number of held random values per cycle of WaveRandom.
const randomSteps = 8

// Evaluate maps a phase to [0, 1] for the given waveform. Phase wraps, so
// Evaluate(w, p, s) == Evaluate(w, p+1, s) for every waveform including
// random. Unknown waveforms fall back to sine.
func Evaluate(w Waveform, phase float64, seed uint64) float64 {
	p := phase - math.Floor(phase)
	switch w {
	case WaveTriangle:
		if p < 0.5 {
			return 2 * p
		}
		return 2 - 2*p
	case WaveSawtooth:
		return p
	case WaveSquare:
		if p < 0.5 {
			return 0
		}
		return 1
	case WaveSmoothSquare:
		// Softened square: tanh of a sine keeps the edges smooth and the
		// shape periodic. Steepness 0.25 gives near-flat plateaus.
		return 0.5 + 0.5*math.Tanh(math.Sin(2*math.Pi*(p-0.25))/0.25)
	case WaveExponential:
		return (math.Exp(4*p) - 1) / (math.Exp(4) - 1)
	case WaveLogarithmic:
		return math.Log10(1 + 9*p)
	case WaveElastic:
		return clamp01(easeOutElastic(p))
	case WaveBounce:
		return easeOutBounce(p)
	case WaveRandom:
		// Held random steps keyed by (seed, step) so a cycle repeats
		// exactly: same phase, same value.
		step := uint64(p * randomSteps)
		if step >= randomSteps {
			step = randomSteps - 1
		}
		return hashUnit(seed, step)
	default:
		// Sine, phased so the minimum sits at phase 0.
		return 0.5 - 0.5*math.Cos(2*math.Pi*p)
	}
}

func easeOutElastic(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	const c4 = 2 * math.Pi / 3
	return math.Pow(2, -10*p)*math.Sin((p*10-0.75)*c4) + 1
}

func easeOutBounce(p float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case p < 1/d1:
		return n1 * p * p
	case p < 2/d1:
		p -= 1.5 / d1
		return n1*p*p + 0.75
	case p < 2.5/d1:
		p -= 2.25 / d1
		return n1*p*p + 0.9375
	default:
		p -= 2.625 / d1
		return n1*p*p + 0.984375
	}
}

// hashUnit maps (seed, step) to [0, 1) via splitmix64.
func hashUnit(seed, step uint64) float64 {
	z := seed + step*0x9e3779b97f4a7c15 + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float64(z>>11) / float64(1<<53)
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
