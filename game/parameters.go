package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/drift/modulation"
	"github.com/pthm-cable/drift/sim"
	"github.com/pthm-cable/drift/species"
)

// registerParameters exposes the modulatable simulation parameters.
// Called once at startup and again whenever the species pool is resized,
// since species-indexed parameter ids change with the pool.
func (g *Game) registerParameters() {
	g.registerPhysicsParameters()
	g.registerNoiseParameters()
	g.ensureSpeciesParameters(g.engine.Registry().Count())
}

func (g *Game) registerPhysicsParameters() {
	cfgParam := func(id, label string, min, max float64, get func(sim.Config) float64, set func(*sim.Config, float64)) {
		d := modulation.Descriptor{
			ID:    id,
			Label: label,
			Min:   min,
			Max:   max,
			Get:   func() float64 { return get(g.engine.Config()) },
			Set: func(v float64) {
				c := g.engine.Config()
				set(&c, v)
				g.engine.SetConfig(c)
			},
		}
		if err := g.params.Register(d); err != nil {
			slog.Error("parameter registration failed", "id", id, "error", err)
		}
	}

	cfgParam("physics.force_factor", "Force Factor", 0, 10,
		func(c sim.Config) float64 { return c.ForceFactor },
		func(c *sim.Config, v float64) { c.ForceFactor = v })
	cfgParam("physics.friction", "Friction", 0, 1,
		func(c sim.Config) float64 { return c.Friction },
		func(c *sim.Config, v float64) { c.Friction = v })
	cfgParam("physics.wall_damping", "Wall Damping", 0, 1,
		func(c sim.Config) float64 { return c.WallDamping },
		func(c *sim.Config, v float64) { c.WallDamping = v })
	cfgParam("physics.repulsive_force", "Wall Repulsion", 0, 2000,
		func(c sim.Config) float64 { return c.RepulsiveForce },
		func(c *sim.Config, v float64) { c.RepulsiveForce = v })
	cfgParam("physics.environmental_pressure", "Environmental Pressure", -2000, 2000,
		func(c sim.Config) float64 { return c.EnvironmentalPressure },
		func(c *sim.Config, v float64) { c.EnvironmentalPressure = v })
	cfgParam("physics.collision_multiplier", "Collision Multiplier", 0, 10,
		func(c sim.Config) float64 { return c.CollisionMultiplier },
		func(c *sim.Config, v float64) { c.CollisionMultiplier = v })
	cfgParam("physics.collision_offset", "Collision Offset", 0, 100,
		func(c sim.Config) float64 { return c.CollisionOffset },
		func(c *sim.Config, v float64) { c.CollisionOffset = v })
	cfgParam("physics.max_speed", "Max Speed", 1, 5000,
		func(c sim.Config) float64 { return c.MaxSpeed },
		func(c *sim.Config, v float64) { c.MaxSpeed = v })
}

func (g *Game) registerNoiseParameters() {
	noise := g.engine.NoiseField()
	register := func(d modulation.Descriptor) {
		if err := g.params.Register(d); err != nil {
			slog.Error("parameter registration failed", "id", d.ID, "error", err)
		}
	}

	register(modulation.Descriptor{
		ID: "noise.amplitude", Label: "Noise Amplitude", Min: 0, Max: 2000,
		Get: func() float64 { return noise.Amplitude() },
		Set: func(v float64) { noise.SetAmplitude(v) },
	})
	register(modulation.Descriptor{
		ID: "noise.time_scale", Label: "Noise Time Scale", Min: 0, Max: 1,
		Get: func() float64 { return noise.Config().TimeScale },
		Set: func(v float64) {
			c := noise.Config()
			c.TimeScale = v
			noise.SetConfig(c)
		},
	})
	register(modulation.Descriptor{
		ID: "noise.contrast", Label: "Noise Contrast", Min: 0.1, Max: 8,
		Get: func() float64 { return noise.Config().Contrast },
		Set: func(v float64) {
			c := noise.Config()
			c.Contrast = v
			noise.SetConfig(c)
		},
	})
}

// ensureSpeciesParameters makes the species-indexed descriptor set match a
// pool of n species: ids [0, n) are registered, everything beyond is
// dropped along with any modulations bound to it. Descriptors capture the
// species id, not a pointer, so they survive registry reallocation.
func (g *Game) ensureSpeciesParameters(n int) {
	g.unregisterSpeciesParameters(n)

	registry := g.engine.Registry()
	register := func(d modulation.Descriptor) {
		if err := g.params.Register(d); err != nil {
			slog.Error("parameter registration failed", "id", d.ID, "error", err)
		}
	}

	for id := 0; id < n; id++ {
		id := id
		prefix := fmt.Sprintf("species.%d.", id)

		register(modulation.Descriptor{
			ID: prefix + "mobility", Label: g.engine.SpeciesName(id) + " Mobility", Min: 0, Max: 5,
			Get: func() float64 { return speciesField(registry, id, func(s *species.Species) float64 { return s.Mobility }) },
			Set: func(v float64) {
				if s := registry.Get(id); s != nil {
					s.Mobility = v
				}
			},
		})
		register(modulation.Descriptor{
			ID: prefix + "size", Label: g.engine.SpeciesName(id) + " Size", Min: 0.1, Max: 20,
			Get: func() float64 { return speciesField(registry, id, func(s *species.Species) float64 { return s.Size }) },
			Set: func(v float64) {
				if s := registry.Get(id); s != nil {
					s.Size = v
				}
			},
		})
		register(modulation.Descriptor{
			ID: prefix + "glow", Label: g.engine.SpeciesName(id) + " Glow", Min: 0, Max: 1,
			Get: func() float64 { return speciesField(registry, id, func(s *species.Species) float64 { return s.Glow.Intensity }) },
			Set: func(v float64) {
				if s := registry.Get(id); s != nil {
					s.Glow.Intensity = v
				}
			},
		})
		register(modulation.Descriptor{
			ID: prefix + "halo", Label: g.engine.SpeciesName(id) + " Halo", Min: 0, Max: 1,
			Get: func() float64 { return speciesField(registry, id, func(s *species.Species) float64 { return s.Halo.Intensity }) },
			Set: func(v float64) {
				if s := registry.Get(id); s != nil {
					s.Halo.Intensity = v
				}
			},
		})
		register(modulation.Descriptor{
			ID: prefix + "trail_blur", Label: g.engine.SpeciesName(id) + " Trail Blur", Min: 0, Max: 1,
			Get: func() float64 { return speciesField(registry, id, func(s *species.Species) float64 { return s.TrailBlur }) },
			Set: func(v float64) {
				if s := registry.Get(id); s != nil {
					s.TrailBlur = v
				}
			},
		})
		if err := g.params.RegisterColor(modulation.ColorDescriptor{
			ID:    prefix + "color",
			Label: g.engine.SpeciesName(id) + " Color",
			Get: func() modulation.RGB {
				s := registry.Get(id)
				if s == nil {
					return modulation.RGB{}
				}
				return modulation.RGB{R: s.Color.R, G: s.Color.G, B: s.Color.B}
			},
			Set: func(c modulation.RGB) {
				if s := registry.Get(id); s != nil {
					s.Color = species.RGB{R: c.R, G: c.G, B: c.B}
				}
			},
		}); err != nil {
			slog.Error("parameter registration failed", "id", prefix+"color", "error", err)
		}
	}
}

// unregisterSpeciesParameters drops species-indexed descriptors beyond the
// current pool size, removing any modulations bound to them first.
func (g *Game) unregisterSpeciesParameters(fromID int) {
	for id := fromID; id < species.MaxSpecies; id++ {
		prefix := fmt.Sprintf("species.%d.", id)
		for _, suffix := range []string{"mobility", "size", "glow", "halo", "trail_blur", "color"} {
			paramID := prefix + suffix
			if mod := g.mods.ForParam(paramID); mod != nil {
				_ = g.mods.Remove(mod.ID)
			}
			g.params.Unregister(paramID)
		}
	}
}

// SetSpeciesCount resizes the species pool and refreshes the parameter set.
func (g *Game) SetSpeciesCount(n int) error {
	if err := g.engine.SetSpeciesCount(n); err != nil {
		return err
	}
	g.ensureSpeciesParameters(n)
	slog.Info("species pool resized", "count", n, "particles", g.engine.Registry().TotalParticles())
	return nil
}

func speciesField(r *species.Registry, id int, get func(*species.Species) float64) float64 {
	if s := r.Get(id); s != nil {
		return get(s)
	}
	return 0
}
