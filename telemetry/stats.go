// Package telemetry aggregates simulation statistics over time windows and
// writes them to structured logs and CSV files.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/drift/sim"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	ParticleCount int `csv:"particles"`
	SpeciesCount  int `csv:"species"`

	// Motion distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	KineticEnergy     float64 `csv:"kinetic_energy"`
	EnergyPerParticle float64 `csv:"energy_per_particle"`

	// Activity during the window
	ShockwavesSpawned int `csv:"shockwaves_spawned"`
	MatrixEdits       int `csv:"matrix_edits"`

	// Active state at window end
	ActiveShockwaves  int `csv:"active_shockwaves"`
	ActiveModulations int `csv:"active_modulations"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.ParticleCount),
		slog.Int("species", s.SpeciesCount),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Int("shockwaves_spawned", s.ShockwavesSpawned),
		slog.Int("matrix_edits", s.MatrixEdits),
		slog.Int("active_shockwaves", s.ActiveShockwaves),
		slog.Int("active_modulations", s.ActiveModulations),
	)
}

// LogStats logs the window stats.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int64
	dt                  float64

	windowStartTick int64

	shockwavesSpawned int
	matrixEdits       int
}

// NewCollector creates a stats collector.
// windowDurationSec is the window length in simulation seconds; dt converts
// ticks to time.
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticks := int64(windowDurationSec / dt)
	if ticks < 1 {
		ticks = 1
	}
	return &Collector{
		windowDurationTicks: ticks,
		dt:                  dt,
	}
}

// RecordShockwave records a spawned shockwave.
func (c *Collector) RecordShockwave() {
	c.shockwavesSpawned++
}

// RecordMatrixEdit records a manual force matrix edit.
func (c *Collector) RecordMatrixEdit() {
	c.matrixEdits++
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush samples the engine, produces stats for the closing window, and
// starts the next one.
func (c *Collector) Flush(eng *sim.Engine, activeModulations int, currentTick int64) WindowStats {
	view := eng.View()
	speeds := make([]float64, len(view))
	for i := range view {
		vx := float64(view[i].VX)
		vy := float64(view[i].VY)
		speeds[i] = math.Sqrt(vx*vx + vy*vy)
	}

	s := WindowStats{
		WindowStartTick:   c.windowStartTick,
		WindowEndTick:     currentTick,
		SimTimeSec:        float64(currentTick) * c.dt,
		ParticleCount:     len(view),
		SpeciesCount:      eng.Registry().Count(),
		KineticEnergy:     eng.KineticEnergy(),
		ShockwavesSpawned: c.shockwavesSpawned,
		MatrixEdits:       c.matrixEdits,
		ActiveShockwaves:  eng.ActiveShockwaves(),
		ActiveModulations: activeModulations,
	}
	if len(speeds) > 0 {
		s.SpeedMean = stat.Mean(speeds, nil)
		sort.Float64s(speeds)
		s.SpeedP10 = stat.Quantile(0.10, stat.Empirical, speeds, nil)
		s.SpeedP50 = stat.Quantile(0.50, stat.Empirical, speeds, nil)
		s.SpeedP90 = stat.Quantile(0.90, stat.Empirical, speeds, nil)
		s.EnergyPerParticle = s.KineticEnergy / float64(len(speeds))
	}

	c.windowStartTick = currentTick
	c.shockwavesSpawned = 0
	c.matrixEdits = 0
	return s
}
