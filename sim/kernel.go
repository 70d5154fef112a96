package sim

// scratch is per-worker reusable state for the compute phase.
type scratch struct {
	neighbors []Neighbor
}

// computeChunk computes new velocity and position for particles [start, end)
// against the immutable tick snapshot, writing results into e.intents.
// Safe to call concurrently for disjoint ranges: it only reads shared state
// and writes its own slice segment.
func (e *Engine) computeChunk(start, end int, sc *scratch) {
	ts := &e.tickState
	n := ts.n

	for i := start; i < end; i++ {
		s := int(e.member[i])
		px, py := e.posX[i], e.posY[i]

		var fx, fy float32

		// Pairwise social attraction/repulsion and hard-core collision
		// repulsion against everything inside the species' largest radius.
		sc.neighbors = sc.neighbors[:0]
		sc.neighbors = e.grid.QueryInto(sc.neighbors, px, py, ts.maxRadius[s], int32(i), e.posX, e.posY)
		for k := range sc.neighbors {
			nb := &sc.neighbors[k]
			s2 := int(e.member[nb.Index])
			idx := s*n + s2

			dist := fastSqrt(nb.DistSq)
			if dist < minDistance {
				dist = minDistance
			}
			invDist := 1 / dist
			ux, uy := nb.DX*invDist, nb.DY*invDist

			// Social term: linear falloff from full strength at contact to
			// zero at the interaction radius. Positive matrix entries pull
			// i toward its neighbor, negative push away.
			if r := ts.socialRad[idx]; dist < r {
				f := ts.social[idx] * ts.forceFactor * (1 - dist/r)
				fx += ux * f
				fy += uy * f
			}

			// Collision term: strictly repulsive inside the collision
			// threshold, ramping linearly to full strength at contact.
			// Always wins over social attraction at very short range.
			if thr := ts.collThresh[idx]; thr > 0 && dist < thr {
				f := collisionStrength * ts.forceFactor * (thr - dist) / thr
				fx -= ux * f
				fy -= uy * f
			}
		}

		// Environmental pressure: linear radial force from the world center.
		// Positive pushes outward, negative pulls inward.
		if ts.pressure != 0 {
			cx := px - ts.centerX
			cy := py - ts.centerY
			fx += cx * ts.invHalfExtent * ts.pressure
			fy += cy * ts.invHalfExtent * ts.pressure
		}

		// Noise perturbation.
		if nx, ny := e.noise.Sample(float64(px), float64(py)); nx != 0 || ny != 0 {
			fx += float32(nx)
			fy += float32(ny)
		}

		// Active shockwaves push radially outward from their origin.
		for w := range e.shockwaves {
			sw := &e.shockwaves[w]
			dx, dy := e.grid.Delta(sw.X, sw.Y, px, py)
			dist := fastSqrt(dx*dx + dy*dy)
			if f := sw.forceAt(dist, ts.waveAges[w]); f > 0 {
				if dist < minDistance {
					dist = minDistance
				}
				fx += dx / dist * f
				fy += dy / dist * f
			}
		}

		// Wall repulsion inside the margin (bounded worlds only; toroidal
		// mode zeroes ts.repulsive).
		if ts.repulsive > 0 {
			if px < wallMargin {
				fx += ts.repulsive * (1 - px/wallMargin)
			} else if px > e.width-wallMargin {
				fx -= ts.repulsive * (1 - (e.width-px)/wallMargin)
			}
			if py < wallMargin {
				fy += ts.repulsive * (1 - py/wallMargin)
			} else if py > e.height-wallMargin {
				fy -= ts.repulsive * (1 - (e.height-py)/wallMargin)
			}
		}

		// Integrate. Species inertia overrides the global friction damp
		// when set; mobility scales force response.
		mob := ts.mobility[s]
		if mob <= 0 {
			mob = 1
		}
		damp := ts.inertia[s]
		if damp <= 0 {
			damp = ts.friction
		}

		vx := (e.velX[i] + fx*mob*ts.dt) * damp
		vy := (e.velY[i] + fy*mob*ts.dt) * damp

		if ts.maxSpeed > 0 {
			speedSq := vx*vx + vy*vy
			if speedSq > ts.maxSpeed*ts.maxSpeed {
				scale := ts.maxSpeed / fastSqrt(speedSq)
				vx *= scale
				vy *= scale
			}
		}

		x := px + vx*ts.dt
		y := py + vy*ts.dt

		if ts.wrap {
			x = mod(x, e.width)
			y = mod(y, e.height)
		} else {
			// Reflect off walls, damping the normal velocity component.
			// At damping 1.0 the reflection is an exact negation.
			if x < 0 {
				x = -x
				vx = -vx * ts.wallDamping
			} else if x > e.width {
				x = 2*e.width - x
				vx = -vx * ts.wallDamping
			}
			if y < 0 {
				y = -y
				vy = -vy * ts.wallDamping
			} else if y > e.height {
				y = 2*e.height - y
				vy = -vy * ts.wallDamping
			}
			x = clampf(x, 0, e.width)
			y = clampf(y, 0, e.height)
		}

		// Non-finite values never propagate: a corrupted particle resets
		// to a resting state in place.
		if !isFinite(x) || !isFinite(y) || !isFinite(vx) || !isFinite(vy) {
			x, y = px, py
			vx, vy = 0, 0
			if !isFinite(x) || !isFinite(y) {
				x, y = ts.centerX, ts.centerY
			}
		}

		e.intents[i] = intent{X: x, Y: y, VX: vx, VY: vy}
	}
}
