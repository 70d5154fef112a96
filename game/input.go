package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drift/config"
	"github.com/pthm-cable/drift/forcegen"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyH) {
		g.showHUD = !g.showHUD
	}
	if rl.IsKeyPressed(rl.KeyM) {
		g.showMatrix = !g.showMatrix
	}

	// Regenerate the force matrix with the configured topology.
	if rl.IsKeyPressed(rl.KeyR) {
		cfg := config.Cfg()
		g.RegenerateMatrix(forcegen.Topology(cfg.Matrix.Topology), cfg.Matrix.EdgeBias, matrixParams(cfg))
	}

	// Reseed particle positions without touching the matrix.
	if rl.IsKeyPressed(rl.KeyI) {
		g.engine.InitParticles()
		slog.Info("reinitialized particles")
	}

	// Species count adjustment.
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		if err := g.SetSpeciesCount(g.engine.Registry().Count() + 1); err != nil {
			slog.Warn("cannot grow species pool", "error", err)
		}
	}
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		if err := g.SetSpeciesCount(g.engine.Registry().Count() - 1); err != nil {
			slog.Warn("cannot shrink species pool", "error", err)
		}
	}

	if rl.IsKeyPressed(rl.KeyF5) {
		g.saveSnapshot()
	}
	if rl.IsKeyPressed(rl.KeyF9) {
		g.loadLatestSnapshot()
	}

	// Left click spawns a shockwave at the cursor's world position.
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		mouse := rl.GetMousePosition()
		wx, wy := g.screenToWorld(mouse.X, mouse.Y)
		g.engine.SpawnShockwave(wx, wy)
		g.collector.RecordShockwave()
	}

	g.handleResize()
}

// handleResize propagates window resizes to the renderer scale.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
}

// screenToWorld maps a screen coordinate to world space.
func (g *Game) screenToWorld(sx, sy float32) (float32, float32) {
	ww, wh := g.engine.Extent()
	return sx / g.screenWidth * ww, sy / g.screenHeight * wh
}

// worldToScreen maps a world coordinate to screen space.
func (g *Game) worldToScreen(wx, wy float32) (float32, float32) {
	ww, wh := g.engine.Extent()
	return wx / ww * g.screenWidth, wy / wh * g.screenHeight
}
