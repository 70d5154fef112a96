package sim

// Neighbor holds a nearby particle with precomputed spatial data.
// This avoids recomputing deltas and distances in the force loop.
type Neighbor struct {
	Index  int32
	DX, DY float32 // Delta from query origin toward the neighbor
	DistSq float32 // Squared distance (avoid sqrt until needed)
}

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid over
// the particle snapshot arrays. The grid understands both toroidal and
// bounded worlds; in toroidal mode deltas take the short way around.
type SpatialGrid struct {
	cellW  float32
	cellH  float32
	cols   int
	rows   int
	width  float32
	height float32
	wrap   bool
	cells  [][]int32
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float32, wrap bool) *SpatialGrid {
	g := &SpatialGrid{}
	g.Reset(width, height, cellSize, wrap)
	return g
}

// Reset reconfigures the grid dimensions and clears all cells.
// Cells tile the world exactly (each at least cellSize wide), so toroidal
// cell adjacency matches world adjacency with no partial edge cells.
func (g *SpatialGrid) Reset(width, height, cellSize float32, wrap bool) {
	if cellSize < 1 {
		cellSize = 1
	}
	cols := int(width / cellSize)
	if cols < 1 {
		cols = 1
	}
	rows := int(height / cellSize)
	if rows < 1 {
		rows = 1
	}

	if cols != g.cols || rows != g.rows {
		g.cells = make([][]int32, cols*rows)
		for i := range g.cells {
			g.cells[i] = make([]int32, 0, 8)
		}
	} else {
		g.Clear()
	}

	g.cellW = width / float32(cols)
	g.cellH = height / float32(rows)
	g.cols = cols
	g.rows = rows
	g.width = width
	g.height = height
	g.wrap = wrap
}

// Clear removes all particles from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds a particle index to the grid at the given position.
func (g *SpatialGrid) Insert(idx int32, x, y float32) {
	ci := g.cellIndex(x, y)
	if ci >= 0 && ci < len(g.cells) {
		g.cells[ci] = append(g.cells[ci], idx)
	}
}

// QueryInto finds particles within radius of (x, y) and appends them to dst.
// Returns the updated slice; reuse dst across calls to avoid allocations.
// posX/posY are the snapshot position arrays the stored indices point into.
func (g *SpatialGrid) QueryInto(dst []Neighbor, x, y, radius float32, exclude int32, posX, posY []float32) []Neighbor {
	cellRadiusX := int(radius/g.cellW) + 1
	cellRadiusY := int(radius/g.cellH) + 1
	centerCol := int(x / g.cellW)
	centerRow := int(y / g.cellH)
	radiusSq := radius * radius

	// Each cell is visited at most once: a radius spanning the whole world
	// in wrap mode degenerates to a full sweep, not a double-counted one.
	startC, endC := centerCol-cellRadiusX, centerCol+cellRadiusX
	startR, endR := centerRow-cellRadiusY, centerRow+cellRadiusY
	if g.wrap {
		if endC-startC+1 > g.cols {
			startC, endC = 0, g.cols-1
		}
		if endR-startR+1 > g.rows {
			startR, endR = 0, g.rows-1
		}
	}

	for c := startC; c <= endC; c++ {
		for r := startR; r <= endR; r++ {
			col, row := c, r
			if g.wrap {
				col = (col%g.cols + g.cols) % g.cols
				row = (row%g.rows + g.rows) % g.rows
			} else if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
				continue
			}

			for _, idx := range g.cells[row*g.cols+col] {
				if idx == exclude {
					continue
				}
				dx, dy := g.Delta(x, y, posX[idx], posY[idx])
				distSq := dx*dx + dy*dy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{Index: idx, DX: dx, DY: dy, DistSq: distSq})
				}
			}
		}
	}
	return dst
}

// Delta returns the delta from (x1,y1) to (x2,y2), taking the short way
// around in toroidal mode.
func (g *SpatialGrid) Delta(x1, y1, x2, y2 float32) (dx, dy float32) {
	dx = x2 - x1
	dy = y2 - y1
	if !g.wrap {
		return dx, dy
	}
	if dx > g.width/2 {
		dx -= g.width
	} else if dx < -g.width/2 {
		dx += g.width
	}
	if dy > g.height/2 {
		dy -= g.height
	} else if dy < -g.height/2 {
		dy += g.height
	}
	return dx, dy
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float32) int {
	col := int(x / g.cellW)
	row := int(y / g.cellH)

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}
