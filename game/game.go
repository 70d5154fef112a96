// Package game wires the simulation engine, modulation manager, telemetry,
// input, and rendering into a runnable application.
package game

import (
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/drift/config"
	"github.com/pthm-cable/drift/forcegen"
	"github.com/pthm-cable/drift/modulation"
	"github.com/pthm-cable/drift/noisefield"
	"github.com/pthm-cable/drift/sim"
	"github.com/pthm-cable/drift/species"
	"github.com/pthm-cable/drift/telemetry"
)

// Options configures a new Game.
type Options struct {
	Seed           int64
	Headless       bool
	LogStats       bool
	StatsWindowSec float64
	SnapshotDir    string
	SnapshotPath   string // snapshot to restore at startup
	OutputDir      string
	StepsPerUpdate int
}

// Game holds the complete application state.
type Game struct {
	engine *sim.Engine
	params *modulation.Registry
	mods   *modulation.Manager
	rng    *rand.Rand

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager

	tick           int64
	simTimeMs      float64
	paused         bool
	stepsPerUpdate int
	headless       bool
	logStats       bool
	snapshotDir    string

	showHUD    bool
	showMatrix bool

	screenWidth, screenHeight float32
}

// NewGameWithOptions builds the full simulation stack from the loaded config.
func NewGameWithOptions(opts Options) *Game {
	cfg := config.Cfg()

	g := &Game{
		rng:            rand.New(rand.NewSource(opts.Seed)),
		stepsPerUpdate: opts.StepsPerUpdate,
		headless:       opts.Headless,
		logStats:       opts.LogStats,
		snapshotDir:    opts.SnapshotDir,
		showHUD:        true,
		screenWidth:    cfg.Derived.ScreenW32,
		screenHeight:   cfg.Derived.ScreenH32,
	}
	if g.stepsPerUpdate < 1 {
		g.stepsPerUpdate = 1
	}

	registry, err := species.NewRegistry(cfg.Species.Count, species.Defaults{
		ParticleCount: cfg.Species.ParticlesPerSpecies,
		Size:          cfg.Species.Size,
		Mobility:      cfg.Species.Mobility,
		Inertia:       cfg.Species.Inertia,
	})
	if err != nil {
		slog.Error("invalid species config", "error", err)
		panic(err)
	}

	n := registry.Count()
	gen := forcegen.NewGenerator(cfg.Matrix.MaxForce)
	social := gen.Generate(
		forcegen.Topology(cfg.Matrix.Topology), n,
		cfg.Matrix.EdgeBias, matrixParams(cfg), cfg.Matrix.Seed,
	)

	noise := noisefield.New(noisefield.Config{
		Pattern:   noisefield.Pattern(cfg.Noise.Pattern),
		Amplitude: cfg.Noise.Amplitude,
		Scale:     cfg.Noise.Scale,
		TimeScale: cfg.Noise.TimeScale,
		Contrast:  cfg.Noise.Contrast,
		Octaves:   cfg.Noise.Octaves,
		Seed:      cfg.Noise.Seed,
	})

	engine, err := sim.NewEngine(sim.Options{
		Width:  cfg.Derived.WorldW32,
		Height: cfg.Derived.WorldH32,
		Config: sim.Config{
			DT:                    cfg.Physics.DT,
			ForceFactor:           cfg.Physics.ForceFactor,
			Friction:              cfg.Physics.Friction,
			WallDamping:           cfg.Physics.WallDamping,
			RepulsiveForce:        cfg.Physics.RepulsiveForce,
			WrapAroundWalls:       cfg.Physics.WrapAroundWalls,
			EnvironmentalPressure: cfg.Physics.EnvironmentalPressure,
			CollisionMultiplier:   cfg.Physics.CollisionMultiplier,
			CollisionOffset:       cfg.Physics.CollisionOffset,
			MaxSpeed:              cfg.Physics.MaxSpeed,
			GridCellSize:          cfg.Physics.GridCellSize,
		},
		Registry:        registry,
		Social:          social,
		SocialRadius:    forcegen.UniformRadius(n, cfg.Matrix.SocialRadius),
		CollisionRadius: forcegen.UniformRadius(n, cfg.Matrix.CollisionRadius),
		MaxForce:        cfg.Matrix.MaxForce,
		Noise:           noise,
		Shock: sim.ShockwaveParams{
			Strength: float32(cfg.Shockwave.Strength),
			Size:     float32(cfg.Shockwave.Size),
			Falloff:  float32(cfg.Shockwave.Falloff),
			DecayTau: float32(cfg.Shockwave.DecayTau),
		},
		Seed: opts.Seed,
	})
	if err != nil {
		slog.Error("engine construction failed", "error", err)
		panic(err)
	}
	g.engine = engine

	g.params = modulation.NewRegistry()
	g.mods = modulation.NewManager(g.params)
	g.registerParameters()

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Physics.DT)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		slog.Error("output manager setup failed", "error", err)
	} else {
		g.outputManager = om
		if err := g.outputManager.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
		}
	}

	if opts.SnapshotPath != "" {
		if err := g.loadSnapshotFile(opts.SnapshotPath); err != nil {
			slog.Error("failed to restore snapshot", "path", opts.SnapshotPath, "error", err)
		} else {
			slog.Info("restored snapshot", "path", opts.SnapshotPath)
		}
	}

	slog.Info("simulation initialized",
		"species", registry.Count(),
		"particles", registry.TotalParticles(),
		"topology", cfg.Matrix.Topology,
		"world_w", cfg.Derived.WorldW32,
		"world_h", cfg.Derived.WorldH32,
	)
	return g
}

// matrixParams maps the config's topology section to generator parameters.
func matrixParams(cfg *config.Config) forcegen.Params {
	switch forcegen.Topology(cfg.Matrix.Topology) {
	case forcegen.TopologyClusters:
		return forcegen.ClustersParams{
			Mode:               cfg.Matrix.Clusters.Mode,
			CohesionStrength:   cfg.Matrix.Clusters.CohesionStrength,
			SeparationDistance: cfg.Matrix.Clusters.SeparationDistance,
			FormationBias:      cfg.Matrix.Clusters.FormationBias,
		}
	case forcegen.TopologyPredatorPrey:
		return forcegen.PredatorPreyParams{
			Structure:         cfg.Matrix.PredatorPrey.Structure,
			HuntIntensity:     cfg.Matrix.PredatorPrey.HuntIntensity,
			EscapeIntensity:   cfg.Matrix.PredatorPrey.EscapeIntensity,
			PopulationBalance: cfg.Matrix.PredatorPrey.PopulationBalance,
		}
	case forcegen.TopologyTerritorial:
		return forcegen.TerritorialParams{
			TerritorySize:    cfg.Matrix.Territorial.TerritorySize,
			BoundaryStrength: cfg.Matrix.Territorial.BoundaryStrength,
			InvasionResponse: cfg.Matrix.Territorial.InvasionResponse,
		}
	case forcegen.TopologySymbiotic:
		return forcegen.SymbioticParams{
			CooperationStrength:  cfg.Matrix.Symbiotic.CooperationStrength,
			DependencyLevel:      cfg.Matrix.Symbiotic.DependencyLevel,
			CompetitionIntensity: cfg.Matrix.Symbiotic.CompetitionIntensity,
		}
	case forcegen.TopologyCyclic:
		return forcegen.CyclicParams{
			DominanceStrength: cfg.Matrix.Cyclic.DominanceStrength,
		}
	default:
		return nil
	}
}

// Engine exposes the simulation engine.
func (g *Game) Engine() *sim.Engine {
	return g.engine
}

// Modulations exposes the modulation manager.
func (g *Game) Modulations() *modulation.Manager {
	return g.mods
}

// Tick returns the number of completed simulation ticks.
func (g *Game) Tick() int64 {
	return g.tick
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// SetForce edits one force matrix entry and records the edit.
func (g *Game) SetForce(i, j int, v float64) error {
	if err := g.engine.SetForce(i, j, v); err != nil {
		return err
	}
	g.collector.RecordMatrixEdit()
	return nil
}

// RegenerateMatrix replaces the force matrix with a fresh topology draw.
func (g *Game) RegenerateMatrix(topo forcegen.Topology, edgeBias float64, params forcegen.Params) {
	seed := g.rng.Int63()
	g.engine.ApplyForcePattern(topo, edgeBias, params, seed)
	g.collector.RecordMatrixEdit()
	slog.Info("regenerated force matrix", "topology", string(topo), "seed", seed)
}

// Unload releases resources.
func (g *Game) Unload() {
	g.engine.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// forceBound is the matrix magnitude bound used for modulation domains.
func (g *Game) forceBound() float64 {
	return g.engine.MaxForce()
}
