// Force matrix preview tool - interactive topology visualization with sliders.
//
// Usage: go run ./cmd/matrixpreview
package main

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/drift/forcegen"
	"github.com/pthm-cable/drift/species"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// MatrixParams holds the generator inputs driven by the sliders.
type MatrixParams struct {
	Topology     int
	SpeciesCount float32
	EdgeBias     float32
	MaxForce     float32
	Seed         float32
}

var topologies = []forcegen.Topology{
	forcegen.TopologyRandom,
	forcegen.TopologyClusters,
	forcegen.TopologyPredatorPrey,
	forcegen.TopologyTerritorial,
	forcegen.TopologySymbiotic,
	forcegen.TopologyCyclic,
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Force Matrix Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := MatrixParams{
		Topology:     0,
		SpeciesCount: 5,
		EdgeBias:     0.25,
		MaxForce:     1.0,
		Seed:         42,
	}

	reg, err := species.NewRegistry(int(params.SpeciesCount), species.Defaults{ParticleCount: 0, Size: 1})
	if err != nil {
		panic(err)
	}

	matrix := regenerate(params)
	needsRegen := false

	for !rl.WindowShouldClose() {
		if needsRegen {
			matrix = regenerate(params)
			_ = reg.SetCount(int(params.SpeciesCount))
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		drawMatrix(matrix, reg, params)

		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Force Matrix Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		rl.DrawText(fmt.Sprintf("Topology: %s  [T to cycle]", topologies[params.Topology]), int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 25
		if rl.IsKeyPressed(rl.KeyT) {
			params.Topology = (params.Topology + 1) % len(topologies)
			needsRegen = true
		}

		rl.DrawText("Species count", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newCount := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "20",
			params.SpeciesCount, 1, 20,
		)
		if int(newCount) != int(params.SpeciesCount) {
			params.SpeciesCount = newCount
			needsRegen = true
		}
		panelY += 30

		rl.DrawText("Edge bias (0 = uniform, 1 = polarized)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newBias := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.0", "1.0",
			params.EdgeBias, 0, 1,
		)
		if newBias != params.EdgeBias {
			params.EdgeBias = newBias
			needsRegen = true
		}
		panelY += 30

		rl.DrawText("Max force", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newForce := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.1", "5.0",
			params.MaxForce, 0.1, 5,
		)
		if newForce != params.MaxForce {
			params.MaxForce = newForce
			needsRegen = true
		}
		panelY += 30

		rl.DrawText("Seed", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSeed := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "9999",
			params.Seed, 0, 9999,
		)
		if int(newSeed) != int(params.Seed) {
			params.Seed = newSeed
			needsRegen = true
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 28}, "Reroll seed") {
			params.Seed = float32(rl.GetRandomValue(0, 9999))
			needsRegen = true
		}

		rl.EndDrawing()
	}
}

func regenerate(p MatrixParams) *mat.Dense {
	gen := forcegen.NewGenerator(float64(p.MaxForce))
	return gen.Generate(topologies[p.Topology], int(p.SpeciesCount), float64(p.EdgeBias), nil, int64(p.Seed))
}

// drawMatrix renders the matrix as a colored grid with species swatches
// along both axes: green attraction, red repulsion.
func drawMatrix(m *mat.Dense, reg *species.Registry, p MatrixParams) {
	n := int(p.SpeciesCount)
	const origin = 40
	cell := (previewSize - origin) / n
	if cell < 4 {
		cell = 4
	}

	for i := 0; i < n; i++ {
		sp := reg.Get(i)
		if sp == nil {
			continue
		}
		c := rl.Color{R: sp.Color.R, G: sp.Color.G, B: sp.Color.B, A: 255}
		rl.DrawRectangle(int32(origin+i*cell), 10, int32(cell-2), 24, c)
		rl.DrawRectangle(10, int32(origin+i*cell), 24, int32(cell-2), c)
	}

	bound := float64(p.MaxForce)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.At(i, j) / bound
			var c rl.Color
			if v >= 0 {
				c = rl.Color{G: uint8(v * 255), A: 255}
			} else {
				c = rl.Color{R: uint8(-v * 255), A: 255}
			}
			x := int32(origin + j*cell)
			y := int32(origin + i*cell)
			rl.DrawRectangle(x, y, int32(cell-2), int32(cell-2), c)
			if cell >= 30 {
				rl.DrawText(fmt.Sprintf("%.2f", m.At(i, j)), x+3, y+int32(cell)/2-6, 10, rl.RayWhite)
			}
		}
	}
}
