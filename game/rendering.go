package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drift/species"
)

// Draw renders the current frame.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()

	// Trail effect: a translucent wipe instead of a full clear leaves
	// fading streaks behind moving particles. Blur strength comes from
	// the highest per-species trail setting.
	blur := g.maxTrailBlur()
	if blur > 0 {
		alpha := uint8((1 - blur) * 255)
		if alpha < 8 {
			alpha = 8
		}
		rl.DrawRectangle(0, 0, int32(g.screenWidth), int32(g.screenHeight), rl.Color{R: 0, G: 0, B: 0, A: alpha})
	} else {
		rl.ClearBackground(rl.Black)
	}

	g.drawParticles()
	g.drawShockwaves()

	if g.showHUD {
		g.drawHUD()
	}
	if g.showMatrix {
		g.drawMatrixOverlay()
	}

	rl.EndDrawing()
}

func (g *Game) maxTrailBlur() float64 {
	max := 0.0
	for _, s := range g.engine.Registry().All() {
		if s.TrailBlur > max {
			max = s.TrailBlur
		}
	}
	return max
}

// drawParticles renders the published view: halo ring, glow disc, body.
func (g *Game) drawParticles() {
	list := g.engine.Registry().All()
	ww, _ := g.engine.Extent()
	scale := g.screenWidth / ww

	for _, p := range g.engine.View() {
		if int(p.Species) >= len(list) {
			continue
		}
		sp := &list[p.Species]
		sx, sy := g.worldToScreen(p.X, p.Y)
		radius := float32(sp.Size) * scale
		if radius < 1 {
			radius = 1
		}
		color := speciesColor(sp)

		if sp.Halo.Intensity > 0 {
			haloR := radius * (2 + float32(sp.Halo.Radius))
			haloColor := color
			haloColor.A = uint8(sp.Halo.Intensity * 90)
			rl.DrawCircleLines(int32(sx), int32(sy), haloR, haloColor)
		}
		if sp.Glow.Intensity > 0 {
			glowR := radius * (1.5 + float32(sp.Glow.Size))
			glowColor := color
			glowColor.A = uint8(sp.Glow.Intensity * 70)
			rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, glowR, glowColor)
		}
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, color)
	}
}

// drawShockwaves renders active waves as expanding rings.
func (g *Game) drawShockwaves() {
	if g.engine.ActiveShockwaves() == 0 {
		return
	}
	ww, _ := g.engine.Extent()
	scale := g.screenWidth / ww
	for _, sw := range g.engine.Shockwaves() {
		sx, sy := g.worldToScreen(sw.X, sw.Y)
		rl.DrawCircleLines(int32(sx), int32(sy), sw.Size*scale, rl.Color{R: 255, G: 255, B: 255, A: 60})
	}
}

func (g *Game) drawHUD() {
	rl.DrawText(fmt.Sprintf("Tick: %d", g.tick), 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Species: %d  Particles: %d",
		g.engine.Registry().Count(), len(g.engine.View())), 10, 35, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Speed: %dx  [</>]  Mods: %d", g.stepsPerUpdate, g.mods.Count()), 10, 60, 20, rl.White)
	if g.paused {
		rl.DrawText("PAUSED", 10, 85, 20, rl.Yellow)
	}

	stats := g.perfCollector.Stats()
	if stats.FPS > 0 {
		rl.DrawText(fmt.Sprintf("FPS: %d  Tick: %dus", int(stats.FPS), stats.AvgTickDuration.Microseconds()),
			10, int32(g.screenHeight)-30, 16, rl.Gray)
	}
}

// drawMatrixOverlay renders the force matrix as a colored grid: green for
// attraction, red for repulsion, brightness for magnitude.
func (g *Game) drawMatrixOverlay() {
	social, _, _ := g.engine.Matrices()
	n := g.engine.Registry().Count()
	bound := g.forceBound()

	const cell = 18
	originX := int32(g.screenWidth) - int32(n*cell) - 20
	originY := int32(20)

	rl.DrawRectangle(originX-4, originY-4, int32(n*cell)+8, int32(n*cell)+8, rl.Color{R: 0, G: 0, B: 0, A: 200})
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := social.At(i, j) / bound
			var c rl.Color
			if v >= 0 {
				c = rl.Color{G: uint8(v * 255), A: 255}
			} else {
				c = rl.Color{R: uint8(-v * 255), A: 255}
			}
			rl.DrawRectangle(originX+int32(j*cell), originY+int32(i*cell), cell-1, cell-1, c)
		}
	}
}

func speciesColor(sp *species.Species) rl.Color {
	return rl.Color{R: sp.Color.R, G: sp.Color.G, B: sp.Color.B, A: 255}
}
