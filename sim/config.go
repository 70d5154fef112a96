package sim

// Config is the simulation scalar value object. The kernel reads it at the
// start of every tick; external callers (UI handlers, the modulation engine)
// mutate it only between ticks via Engine.SetConfig or the registered
// parameter setters.
type Config struct {
	DT                    float64 `yaml:"dt" json:"dt"`
	ForceFactor           float64 `yaml:"force_factor" json:"force_factor"`
	Friction              float64 `yaml:"friction" json:"friction"`
	WallDamping           float64 `yaml:"wall_damping" json:"wall_damping"`
	RepulsiveForce        float64 `yaml:"repulsive_force" json:"repulsive_force"`
	WrapAroundWalls       bool    `yaml:"wrap_around_walls" json:"wrap_around_walls"`
	EnvironmentalPressure float64 `yaml:"environmental_pressure" json:"environmental_pressure"`
	CollisionMultiplier   float64 `yaml:"collision_multiplier" json:"collision_multiplier"`
	CollisionOffset       float64 `yaml:"collision_offset" json:"collision_offset"`
	MaxSpeed              float64 `yaml:"max_speed" json:"max_speed"`
	GridCellSize          float64 `yaml:"grid_cell_size" json:"grid_cell_size"` // 0 = derive from largest active radius
}

// sanitized clamps configuration scalars into usable ranges. Invalid values
// are recovered locally; they never abort the tick loop.
func (c Config) sanitized() Config {
	if c.DT <= 0 {
		c.DT = 1.0 / 60.0
	}
	c.Friction = clamp64(c.Friction, 0, 1)
	c.WallDamping = clamp64(c.WallDamping, 0, 1)
	if c.RepulsiveForce < 0 {
		c.RepulsiveForce = 0
	}
	if c.CollisionMultiplier < 0 {
		c.CollisionMultiplier = 0
	}
	if c.CollisionOffset < 0 {
		c.CollisionOffset = 0
	}
	if c.MaxSpeed <= 0 {
		c.MaxSpeed = 600
	}
	if c.GridCellSize < 0 {
		c.GridCellSize = 0
	}
	return c
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
