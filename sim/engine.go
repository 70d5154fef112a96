// Package sim implements the per-tick physics kernel: pairwise social and
// collision forces from species matrices, environmental pressure, noise
// perturbation, transient shockwaves, and boundary handling.
//
// The particle pool lives in an ECS world. Each tick the kernel snapshots
// particle state and the force/radius matrices into flat arrays, computes
// new velocities and positions (in parallel above a population threshold),
// applies them back, and publishes a read-only view for renderers. Matrices
// are therefore handed over copy-on-write at tick start: mutating them
// between ticks never races a tick in flight.
package sim

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/drift/forcegen"
	"github.com/pthm-cable/drift/noisefield"
	"github.com/pthm-cable/drift/species"
)

// parallelThreshold is the minimum particle count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 256

// minDistance clamps degenerate zero-distance pairs so force directions
// stay finite.
const minDistance = 1e-3

// wallMargin is the distance from a wall within which the repulsive wall
// force ramps up, in world units.
const wallMargin = 50.0

// collisionStrength scales the collision repulsion term relative to the
// social force scale.
const collisionStrength = 2.0

// DistPoint is one normalized point of an initial-distribution map.
type DistPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Size    float64 `json:"size"`
	Opacity float64 `json:"opacity"`
}

// Options configures a new Engine.
type Options struct {
	Width, Height   float32
	Config          Config
	Registry        *species.Registry
	Social          *mat.Dense
	SocialRadius    *mat.Dense
	CollisionRadius *mat.Dense
	MaxForce        float64 // magnitude bound for force edits and regeneration; <=0 infers it from Social
	Noise           *noisefield.Field
	Shock           ShockwaveParams
	Seed            int64
}

// Engine owns the particle pool and advances it one tick at a time.
type Engine struct {
	world  *ecs.World
	mapper *ecs.Map3[Position, Velocity, Membership]
	filter *ecs.Filter3[Position, Velocity, Membership]

	registry *species.Registry
	cfg      Config
	noise    *noisefield.Field

	// Canonical matrices; flattened into float32 snapshots at tick start.
	social          *mat.Dense
	socialRadius    *mat.Dense
	collisionRadius *mat.Dense

	// Base radii used to fill new matrix entries on species resize.
	baseSocialRadius    float64
	baseCollisionRadius float64

	// Fixed magnitude bound for SetForce and ApplyForcePattern. Captured at
	// construction so repeated regeneration never ratchets forces down.
	maxForce float64

	width, height float32
	grid          *SpatialGrid
	shockDefaults ShockwaveParams

	// Per-tick snapshot state (phase A of each tick).
	posX, posY []float32
	velX, velY []float32
	member     []uint8
	intents    []intent
	tickState  tickState

	pool *workerPool

	shockwaves []Shockwave
	pendingMu  sync.Mutex
	pending    []Shockwave

	view []ParticleView

	distribution map[int][]DistPoint

	tick int64
	rng  *rand.Rand
}

// intent captures computed particle state to apply after the compute phase.
type intent struct {
	X, Y   float32
	VX, VY float32
}

// tickState holds the flattened per-tick parameter snapshot the compute
// phase reads. Rebuilt at every tick start.
type tickState struct {
	n int // species count

	social     []float32 // n*n social force
	socialRad  []float32 // n*n social radius
	collThresh []float32 // n*n collision threshold (radius*multiplier+offset)

	maxRadius []float32 // per-species largest query radius
	mobility  []float32 // per-species mobility (<=0 means default 1)
	inertia   []float32 // per-species inertia (<=0 means global friction)

	forceFactor float32
	friction    float32
	wallDamping float32
	repulsive   float32
	pressure    float32
	maxSpeed    float32
	dt          float32
	wrap        bool

	centerX, centerY float32
	invHalfExtent    float32

	waveAges []float32 // per active shockwave, age in seconds
}

// NewEngine creates an engine and populates the initial particle pool.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("sim: registry is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("sim: world extent %gx%g invalid", opts.Width, opts.Height)
	}
	n := opts.Registry.Count()
	for name, m := range map[string]*mat.Dense{
		"social":           opts.Social,
		"social radius":    opts.SocialRadius,
		"collision radius": opts.CollisionRadius,
	} {
		if m == nil {
			return nil, fmt.Errorf("sim: %s matrix is required", name)
		}
		if r, c := m.Dims(); r != n || c != n {
			return nil, fmt.Errorf("sim: %s matrix is %dx%d, want %dx%d", name, r, c, n, n)
		}
	}

	world := ecs.NewWorld()
	e := &Engine{
		world:           world,
		mapper:          ecs.NewMap3[Position, Velocity, Membership](world),
		filter:          ecs.NewFilter3[Position, Velocity, Membership](world),
		registry:        opts.Registry,
		cfg:             opts.Config.sanitized(),
		noise:           opts.Noise,
		social:          opts.Social,
		socialRadius:    opts.SocialRadius,
		collisionRadius: opts.CollisionRadius,
		width:           opts.Width,
		height:          opts.Height,
		shockDefaults:   opts.Shock.withDefaults(),
		rng:             rand.New(rand.NewSource(opts.Seed)),
	}
	if e.noise == nil {
		e.noise = noisefield.New(noisefield.Config{})
	}
	e.baseSocialRadius = matMax(e.socialRadius)
	e.baseCollisionRadius = matMax(e.collisionRadius)
	e.maxForce = opts.MaxForce
	if e.maxForce <= 0 {
		e.maxForce = matMaxAbs(e.social)
	}
	if e.maxForce <= 0 {
		e.maxForce = 1
	}
	e.grid = NewSpatialGrid(e.width, e.height, e.gridCellSize(), e.cfg.WrapAroundWalls)
	e.pool = newWorkerPool(e)

	e.InitParticles()
	return e, nil
}

// Close stops the worker pool.
func (e *Engine) Close() {
	e.pool.stop()
}

// Tick returns the number of completed ticks.
func (e *Engine) Tick() int64 {
	return e.tick
}

// Config returns the current scalar configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetConfig replaces the scalar configuration, clamping invalid values.
func (e *Engine) SetConfig(cfg Config) {
	e.cfg = cfg.sanitized()
}

// Registry returns the species registry.
func (e *Engine) Registry() *species.Registry {
	return e.registry
}

// NoiseField returns the perturbation field.
func (e *Engine) NoiseField() *noisefield.Field {
	return e.noise
}

// Extent returns the world dimensions.
func (e *Engine) Extent() (w, h float32) {
	return e.width, e.height
}

// Matrices returns the canonical force and radius matrices.
// Callers must only mutate them between ticks.
func (e *Engine) Matrices() (social, socialRadius, collisionRadius *mat.Dense) {
	return e.social, e.socialRadius, e.collisionRadius
}

// SetMatrices validates and installs a full matrix set.
func (e *Engine) SetMatrices(social, socialRadius, collisionRadius *mat.Dense) error {
	n := e.registry.Count()
	for name, m := range map[string]*mat.Dense{
		"social":           social,
		"social radius":    socialRadius,
		"collision radius": collisionRadius,
	} {
		if m == nil {
			return fmt.Errorf("sim: %s matrix is nil", name)
		}
		if r, c := m.Dims(); r != n || c != n {
			return fmt.Errorf("sim: %s matrix is %dx%d, want %dx%d", name, r, c, n, n)
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if socialRadius.At(i, j) <= 0 {
				return fmt.Errorf("sim: social radius [%d][%d] = %f, must be positive", i, j, socialRadius.At(i, j))
			}
			if collisionRadius.At(i, j) <= 0 {
				return fmt.Errorf("sim: collision radius [%d][%d] = %f, must be positive", i, j, collisionRadius.At(i, j))
			}
		}
	}
	e.social = social
	e.socialRadius = socialRadius
	e.collisionRadius = collisionRadius
	return nil
}

// MaxForce returns the configured force magnitude bound.
func (e *Engine) MaxForce() float64 {
	return e.maxForce
}

// SetForce edits a single force matrix entry. The diagonal stays zero and
// the value is clamped to the configured magnitude bound.
func (e *Engine) SetForce(i, j int, v float64) error {
	n := e.registry.Count()
	if i < 0 || i >= n || j < 0 || j >= n {
		return fmt.Errorf("sim: force index [%d][%d] out of range for %d species", i, j, n)
	}
	if i == j {
		return fmt.Errorf("sim: force diagonal [%d][%d] is fixed at zero", i, j)
	}
	e.social.Set(i, j, clamp64(v, -e.maxForce, e.maxForce))
	return nil
}

// ApplyForcePattern regenerates the social force matrix from a named
// topology against the configured magnitude bound, so identical
// (topology, params, seed) inputs always yield the same matrix.
func (e *Engine) ApplyForcePattern(topo forcegen.Topology, edgeBias float64, params forcegen.Params, seed int64) {
	gen := forcegen.NewGenerator(e.maxForce)
	e.social = gen.Generate(topo, e.registry.Count(), edgeBias, params, seed)
}

// SetSpeciesCount resizes the species pool. This is a stop-the-world
// operation: matrices are resized preserving the surviving prefix, and the
// particle pool is reallocated wholesale.
func (e *Engine) SetSpeciesCount(n int) error {
	if err := e.registry.SetCount(n); err != nil {
		return err
	}
	e.social = forcegen.Resize(e.social, n, nil)
	socialFill := func(i, j int) float64 { return e.baseSocialRadius }
	collisionFill := func(i, j int) float64 { return e.baseCollisionRadius }
	e.socialRadius = forcegen.Resize(e.socialRadius, n, socialFill)
	e.collisionRadius = forcegen.Resize(e.collisionRadius, n, collisionFill)
	e.InitParticles()
	return nil
}

// SpeciesName returns the display name for a species id.
func (e *Engine) SpeciesName(id int) string {
	return e.registry.DisplayName(id)
}

// ResizeWorld changes the simulation extent, scaling particle positions
// proportionally so the relative layout survives.
func (e *Engine) ResizeWorld(w, h float32) {
	if w <= 0 || h <= 0 {
		return
	}
	sx := w / e.width
	sy := h / e.height
	query := e.filter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		pos.X *= sx
		pos.Y *= sy
	}
	e.width = w
	e.height = h
	e.grid.Reset(w, h, e.gridCellSize(), e.cfg.WrapAroundWalls)
	e.publishView()
}

// ClearCaches drops per-tick scratch state; it is rebuilt on the next tick.
func (e *Engine) ClearCaches() {
	e.tickState = tickState{}
	e.posX, e.posY = nil, nil
	e.velX, e.velY = nil, nil
	e.member = nil
	e.intents = nil
	e.grid.Clear()
}

// InitParticles reallocates the particle pool with uniform random positions.
func (e *Engine) InitParticles() {
	e.distribution = nil
	e.resetPool(func(sp *species.Species) (float32, float32) {
		return e.rng.Float32() * e.width, e.rng.Float32() * e.height
	})
}

// InitParticlesFromDistribution reallocates the particle pool placing each
// species' particles around its normalized distribution points. Species
// without points fall back to uniform random placement.
func (e *Engine) InitParticlesFromDistribution(dist map[int][]DistPoint) {
	if len(dist) == 0 {
		e.InitParticles()
		return
	}
	e.distribution = cloneDistribution(dist)

	counters := make(map[int]int)
	minExtent := e.width
	if e.height < minExtent {
		minExtent = e.height
	}

	e.resetPool(func(sp *species.Species) (float32, float32) {
		points := dist[sp.ID]
		if len(points) == 0 {
			return e.rng.Float32() * e.width, e.rng.Float32() * e.height
		}
		// Round-robin over the species' points; spread shrinks with opacity.
		k := counters[sp.ID]
		counters[sp.ID] = k + 1
		p := points[k%len(points)]

		spread := float32(p.Size) * minExtent * 0.5
		if spread <= 0 {
			spread = minExtent * 0.02
		}
		jitterX := float32(e.rng.NormFloat64()) * spread * (1.1 - float32(clamp64(p.Opacity, 0, 1)))
		jitterY := float32(e.rng.NormFloat64()) * spread * (1.1 - float32(clamp64(p.Opacity, 0, 1)))
		x := clampf(float32(p.X)*e.width+jitterX, 0, e.width)
		y := clampf(float32(p.Y)*e.height+jitterY, 0, e.height)
		return x, y
	})
}

// Distribution returns the initial-distribution map used by the last
// initialization, or nil for uniform random pools.
func (e *Engine) Distribution() map[int][]DistPoint {
	return cloneDistribution(e.distribution)
}

// resetPool removes every particle and spawns fresh ones, positioning each
// via place.
func (e *Engine) resetPool(place func(sp *species.Species) (float32, float32)) {
	var toRemove []ecs.Entity
	query := e.filter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, ent := range toRemove {
		e.mapper.Remove(ent)
	}

	for _, sp := range e.registry.All() {
		s := sp
		for i := 0; i < s.ParticleCount; i++ {
			x, y := place(&s)
			pos := Position{X: x, Y: y}
			vel := Velocity{}
			mem := Membership{Species: uint8(s.ID)}
			e.mapper.NewEntity(&pos, &vel, &mem)
		}
	}
	e.publishView()
}

// SpawnShockwave queues a shockwave with default parameters at (x, y).
// Safe to call from input handlers: waves are appended to a pending list
// consumed at the next tick start.
func (e *Engine) SpawnShockwave(x, y float32) {
	e.SpawnShockwaveWith(Shockwave{
		X:        x,
		Y:        y,
		Strength: e.shockDefaults.Strength,
		Size:     e.shockDefaults.Size,
		Falloff:  e.shockDefaults.Falloff,
		DecayTau: e.shockDefaults.DecayTau,
	})
}

// SpawnShockwaveWith queues a fully specified shockwave.
func (e *Engine) SpawnShockwaveWith(sw Shockwave) {
	sw.Strength = clampf(sw.Strength, -1e6, 1e6)
	if sw.Size <= 0 {
		sw.Size = e.shockDefaults.Size
	}
	if sw.Falloff <= 0 {
		sw.Falloff = e.shockDefaults.Falloff
	}
	if sw.DecayTau <= 0 {
		sw.DecayTau = e.shockDefaults.DecayTau
	}
	e.pendingMu.Lock()
	e.pending = append(e.pending, sw)
	e.pendingMu.Unlock()
}

// ActiveShockwaves returns the number of currently active waves.
func (e *Engine) ActiveShockwaves() int {
	return len(e.shockwaves)
}

// Shockwaves returns a copy of the active wave list, for rendering.
func (e *Engine) Shockwaves() []Shockwave {
	out := make([]Shockwave, len(e.shockwaves))
	copy(out, e.shockwaves)
	return out
}

// View returns the particle state published after the last tick.
// The slice is replaced, never mutated in place, so readers holding it
// never observe a half-updated tick.
func (e *Engine) View() []ParticleView {
	return e.view
}

// KineticEnergy sums 0.5·size·|v|² over the published view.
func (e *Engine) KineticEnergy() float64 {
	total := 0.0
	list := e.registry.All()
	for i := range e.view {
		p := &e.view[i]
		size := 1.0
		if int(p.Species) < len(list) {
			size = list[p.Species].Size
		}
		v2 := float64(p.VX)*float64(p.VX) + float64(p.VY)*float64(p.VY)
		total += 0.5 * size * v2
	}
	return total
}

// Step advances the simulation one tick.
func (e *Engine) Step() {
	// Consume externally spawned shockwaves: Pending → Active.
	e.pendingMu.Lock()
	for _, sw := range e.pending {
		sw.SpawnTick = e.tick
		e.shockwaves = append(e.shockwaves, sw)
	}
	e.pending = e.pending[:0]
	e.pendingMu.Unlock()

	e.noise.Advance()
	e.refreshTickState()
	e.buildSnapshots()
	e.rebuildGrid()

	n := len(e.posX)
	if n > 0 {
		if n >= parallelThreshold {
			e.pool.run(n)
		} else {
			e.computeChunk(0, n, &e.pool.scratches[0])
		}
		e.applyIntents()
	}
	e.publishView()
	e.expireShockwaves()
	e.tick++
}

// refreshTickState flattens matrices and per-species attributes into the
// float32 arrays the compute phase reads.
func (e *Engine) refreshTickState() {
	n := e.registry.Count()
	ts := &e.tickState
	ts.n = n

	if cap(ts.social) < n*n {
		ts.social = make([]float32, n*n)
		ts.socialRad = make([]float32, n*n)
		ts.collThresh = make([]float32, n*n)
	}
	ts.social = ts.social[:n*n]
	ts.socialRad = ts.socialRad[:n*n]
	ts.collThresh = ts.collThresh[:n*n]

	cfg := e.cfg
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			idx := i*n + j
			ts.social[idx] = float32(e.social.At(i, j))
			ts.socialRad[idx] = float32(e.socialRadius.At(i, j))
			thresh := e.collisionRadius.At(i, j)*cfg.CollisionMultiplier + cfg.CollisionOffset
			if thresh < 0 {
				thresh = 0
			}
			ts.collThresh[idx] = float32(thresh)
		}
	}

	if cap(ts.maxRadius) < n {
		ts.maxRadius = make([]float32, n)
		ts.mobility = make([]float32, n)
		ts.inertia = make([]float32, n)
	}
	ts.maxRadius = ts.maxRadius[:n]
	ts.mobility = ts.mobility[:n]
	ts.inertia = ts.inertia[:n]

	list := e.registry.All()
	for s := 0; s < n; s++ {
		maxR := float32(0)
		for s2 := 0; s2 < n; s2++ {
			if r := ts.socialRad[s*n+s2]; r > maxR {
				maxR = r
			}
			if r := ts.collThresh[s*n+s2]; r > maxR {
				maxR = r
			}
		}
		ts.maxRadius[s] = maxR
		ts.mobility[s] = float32(list[s].Mobility)
		ts.inertia[s] = float32(list[s].Inertia)
	}

	ts.forceFactor = float32(cfg.ForceFactor)
	ts.friction = float32(cfg.Friction)
	ts.wallDamping = float32(cfg.WallDamping)
	ts.repulsive = float32(cfg.RepulsiveForce)
	if cfg.WrapAroundWalls {
		// Toroidal space has no walls to push off.
		ts.repulsive = 0
	}
	ts.pressure = float32(cfg.EnvironmentalPressure)
	ts.maxSpeed = float32(cfg.MaxSpeed)
	ts.dt = float32(cfg.DT)
	ts.wrap = cfg.WrapAroundWalls
	ts.centerX = e.width / 2
	ts.centerY = e.height / 2
	half := e.width
	if e.height > half {
		half = e.height
	}
	ts.invHalfExtent = 2 / half

	if cap(ts.waveAges) < len(e.shockwaves) {
		ts.waveAges = make([]float32, len(e.shockwaves))
	}
	ts.waveAges = ts.waveAges[:len(e.shockwaves)]
	for i := range e.shockwaves {
		ts.waveAges[i] = float32(e.tick-e.shockwaves[i].SpawnTick) * ts.dt
	}
}

// buildSnapshots copies particle state out of the ECS into flat arrays.
func (e *Engine) buildSnapshots() {
	e.posX = e.posX[:0]
	e.posY = e.posY[:0]
	e.velX = e.velX[:0]
	e.velY = e.velY[:0]
	e.member = e.member[:0]

	query := e.filter.Query()
	for query.Next() {
		pos, vel, mem := query.Get()
		e.posX = append(e.posX, pos.X)
		e.posY = append(e.posY, pos.Y)
		e.velX = append(e.velX, vel.X)
		e.velY = append(e.velY, vel.Y)
		e.member = append(e.member, mem.Species)
	}

	if cap(e.intents) < len(e.posX) {
		e.intents = make([]intent, len(e.posX))
	}
	e.intents = e.intents[:len(e.posX)]
}

// rebuildGrid reindexes the spatial grid from the current snapshot.
func (e *Engine) rebuildGrid() {
	e.grid.Reset(e.width, e.height, e.gridCellSize(), e.cfg.WrapAroundWalls)
	for i := range e.posX {
		e.grid.Insert(int32(i), e.posX[i], e.posY[i])
	}
}

// gridCellSize keys the grid by the largest active radius unless the
// config pins an explicit cell size.
func (e *Engine) gridCellSize() float32 {
	if e.cfg.GridCellSize > 0 {
		return float32(e.cfg.GridCellSize)
	}
	maxR := float32(0)
	n := e.registry.Count()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if r := float32(e.socialRadius.At(i, j)); r > maxR {
				maxR = r
			}
			thresh := float32(e.collisionRadius.At(i, j)*e.cfg.CollisionMultiplier + e.cfg.CollisionOffset)
			if thresh > maxR {
				maxR = thresh
			}
		}
	}
	if maxR < 8 {
		maxR = 8
	}
	return maxR
}

// applyIntents writes computed state back to the ECS. Query order is
// stable between buildSnapshots and here because no structural changes
// happen during a tick, so intents align by index.
func (e *Engine) applyIntents() {
	i := 0
	query := e.filter.Query()
	for query.Next() {
		if i >= len(e.intents) {
			break
		}
		pos, vel, _ := query.Get()
		it := &e.intents[i]
		pos.X, pos.Y = it.X, it.Y
		vel.X, vel.Y = it.VX, it.VY
		i++
	}
}

// publishView snapshots particle state for readers. A fresh slice is
// published wholesale so render code never sees a partial tick.
func (e *Engine) publishView() {
	view := make([]ParticleView, 0, len(e.posX))
	query := e.filter.Query()
	for query.Next() {
		pos, vel, mem := query.Get()
		view = append(view, ParticleView{X: pos.X, Y: pos.Y, VX: vel.X, VY: vel.Y, Species: mem.Species})
	}
	e.view = view
}

// expireShockwaves drops waves whose contribution became negligible.
func (e *Engine) expireShockwaves() {
	alive := e.shockwaves[:0]
	for i := range e.shockwaves {
		sw := e.shockwaves[i]
		age := float32(e.tick-sw.SpawnTick) * float32(e.cfg.DT)
		if !sw.expired(age) {
			alive = append(alive, sw)
		}
	}
	e.shockwaves = alive
}

func cloneDistribution(dist map[int][]DistPoint) map[int][]DistPoint {
	if dist == nil {
		return nil
	}
	out := make(map[int][]DistPoint, len(dist))
	for id, points := range dist {
		cp := make([]DistPoint, len(points))
		copy(cp, points)
		out[id] = cp
	}
	return out
}

// matMax returns the largest entry of m, or 0 for empty matrices.
func matMax(m *mat.Dense) float64 {
	r, c := m.Dims()
	best := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); v > best {
				best = v
			}
		}
	}
	return best
}

// matMaxAbs returns the largest absolute entry of m, or 0 for empty matrices.
func matMaxAbs(m *mat.Dense) float64 {
	r, c := m.Dims()
	best := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if v < 0 {
				v = -v
			}
			if v > best {
				best = v
			}
		}
	}
	return best
}
