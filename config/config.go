// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Species   SpeciesConfig   `yaml:"species"`
	Matrix    MatrixConfig    `yaml:"matrix"`
	Noise     NoiseConfig     `yaml:"noise"`
	Shockwave ShockwaveConfig `yaml:"shockwave"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation world dimensions.
// World can be larger than the screen; rendering scales the viewport.
type WorldConfig struct {
	Width  int `yaml:"width"`  // World width in world units (0 = use screen width)
	Height int `yaml:"height"` // World height in world units (0 = use screen height)
}

// PhysicsConfig holds the simulation scalar parameters.
// These are the initial values; the modulation engine may rewrite them live.
type PhysicsConfig struct {
	DT                    float64 `yaml:"dt"`
	ForceFactor           float64 `yaml:"force_factor"`
	Friction              float64 `yaml:"friction"`
	WallDamping           float64 `yaml:"wall_damping"`
	RepulsiveForce        float64 `yaml:"repulsive_force"`
	WrapAroundWalls       bool    `yaml:"wrap_around_walls"`
	EnvironmentalPressure float64 `yaml:"environmental_pressure"`
	CollisionMultiplier   float64 `yaml:"collision_multiplier"`
	CollisionOffset       float64 `yaml:"collision_offset"`
	MaxSpeed              float64 `yaml:"max_speed"`      // Velocity clamp in world units per second
	GridCellSize          float64 `yaml:"grid_cell_size"` // 0 = derive from largest active radius
}

// SpeciesConfig holds species pool defaults.
type SpeciesConfig struct {
	Count               int     `yaml:"count"`
	ParticlesPerSpecies int     `yaml:"particles_per_species"`
	Size                float64 `yaml:"size"`
	Mobility            float64 `yaml:"mobility"`
	Inertia             float64 `yaml:"inertia"`
}

// MatrixConfig holds force matrix generation parameters.
type MatrixConfig struct {
	Topology        string  `yaml:"topology"`
	EdgeBias        float64 `yaml:"edge_bias"`
	MaxForce        float64 `yaml:"max_force"`
	SocialRadius    float64 `yaml:"social_radius"`
	CollisionRadius float64 `yaml:"collision_radius"`
	Seed            int64   `yaml:"seed"`

	Clusters     ClustersConfig     `yaml:"clusters"`
	PredatorPrey PredatorPreyConfig `yaml:"predator_prey"`
	Territorial  TerritorialConfig  `yaml:"territorial"`
	Symbiotic    SymbioticConfig    `yaml:"symbiotic"`
	Cyclic       CyclicConfig       `yaml:"cyclic"`
}

// ClustersConfig holds cluster topology parameters.
type ClustersConfig struct {
	Mode               string  `yaml:"mode"` // orbital, layered, competitive, symbiotic-chains, hierarchical-rings
	CohesionStrength   float64 `yaml:"cohesion_strength"`
	SeparationDistance float64 `yaml:"separation_distance"`
	FormationBias      float64 `yaml:"formation_bias"`
}

// PredatorPreyConfig holds predator-prey topology parameters.
type PredatorPreyConfig struct {
	Structure         string  `yaml:"structure"` // simple, complex, territorial, pack
	HuntIntensity     float64 `yaml:"hunt_intensity"`
	EscapeIntensity   float64 `yaml:"escape_intensity"`
	PopulationBalance float64 `yaml:"population_balance"`
}

// TerritorialConfig holds territorial topology parameters.
type TerritorialConfig struct {
	TerritorySize    float64 `yaml:"territory_size"`
	BoundaryStrength float64 `yaml:"boundary_strength"`
	InvasionResponse float64 `yaml:"invasion_response"`
}

// SymbioticConfig holds symbiotic topology parameters.
type SymbioticConfig struct {
	CooperationStrength  float64 `yaml:"cooperation_strength"`
	DependencyLevel      float64 `yaml:"dependency_level"`
	CompetitionIntensity float64 `yaml:"competition_intensity"`
}

// CyclicConfig holds cyclic topology parameters.
type CyclicConfig struct {
	DominanceStrength float64 `yaml:"dominance_strength"`
}

// NoiseConfig holds noise field parameters.
type NoiseConfig struct {
	Pattern   string  `yaml:"pattern"` // simplex, curl, fractal, cellular, flow
	Amplitude float64 `yaml:"amplitude"`
	Scale     float64 `yaml:"scale"`
	TimeScale float64 `yaml:"time_scale"` // Time advance per tick (0 = frozen)
	Contrast  float64 `yaml:"contrast"`
	Octaves   int     `yaml:"octaves"`
	Seed      int64   `yaml:"seed"`
}

// ShockwaveConfig holds the defaults for input-spawned shockwaves.
type ShockwaveConfig struct {
	Strength float64 `yaml:"strength"`
	Size     float64 `yaml:"size"`
	Falloff  float64 `yaml:"falloff"`   // Falloff exponent over distance
	DecayTau float64 `yaml:"decay_tau"` // Age decay time constant in seconds
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Physics.DT as float32
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
	WorldW32  float32 // Effective world width as float32
	WorldH32  float32 // Effective world height as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Physics.DT <= 0 {
		c.Physics.DT = 1.0 / 60.0
	}
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// World dimensions default to screen size if not specified
	worldW := c.World.Width
	if worldW == 0 {
		worldW = c.Screen.Width
	}
	worldH := c.World.Height
	if worldH == 0 {
		worldH = c.Screen.Height
	}
	c.Derived.WorldW32 = float32(worldW)
	c.Derived.WorldH32 = float32(worldH)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
