package game

import (
	"github.com/pthm-cable/drift/config"
	"github.com/pthm-cable/drift/telemetry"
)

// Update runs one frame worth of simulation plus input handling.
func (g *Game) Update() {
	g.handleInput()
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// UpdateHeadless runs simulation ticks without input or rendering.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// step advances one tick: modulations first, then physics, then telemetry.
// Modulations run before the engine so the tick sees a consistent
// parameter set.
func (g *Game) step() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseModulation)
	g.simTimeMs += config.Cfg().Physics.DT * 1000
	g.mods.Tick(g.simTimeMs)

	g.perfCollector.StartPhase(telemetry.PhasePhysics)
	g.engine.Step()
	g.tick = g.engine.Tick()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// SimTimeMs returns the accumulated simulation time in milliseconds.
func (g *Game) SimTimeMs() float64 {
	return g.simTimeMs
}
