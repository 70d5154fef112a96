// Package species holds the per-species attribute registry.
//
// Every per-species matrix in the simulation is index-aligned with this
// registry: species id N corresponds to matrix row/column N. Resizing the
// registry preserves existing records so matrix prefixes stay valid.
package species

import (
	"fmt"
	"math"
)

// MaxSpecies is the upper bound on concurrently simulated species.
const MaxSpecies = 20

// RGB is an 8-bit color triple.
type RGB struct {
	R uint8 `yaml:"r" json:"r"`
	G uint8 `yaml:"g" json:"g"`
	B uint8 `yaml:"b" json:"b"`
}

// Glow holds additive glow rendering settings.
type Glow struct {
	Intensity float64 `yaml:"intensity" json:"intensity"`
	Size      float64 `yaml:"size" json:"size"`
}

// Halo holds halo ring rendering settings.
type Halo struct {
	Intensity float64 `yaml:"intensity" json:"intensity"`
	Radius    float64 `yaml:"radius" json:"radius"`
}

// Species describes one sub-population of particles.
type Species struct {
	ID            int     `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	Color         RGB     `yaml:"color" json:"color"`
	ParticleCount int     `yaml:"particle_count" json:"particle_count"`
	Size          float64 `yaml:"size" json:"size"`
	Mobility      float64 `yaml:"mobility" json:"mobility"`
	Inertia       float64 `yaml:"inertia" json:"inertia"`
	Glow          Glow    `yaml:"glow" json:"glow"`
	Halo          Halo    `yaml:"halo" json:"halo"`
	TrailBlur     float64 `yaml:"trail_blur" json:"trail_blur"`
}

// Defaults are the attribute values applied to newly appended species.
type Defaults struct {
	ParticleCount int
	Size          float64
	Mobility      float64
	Inertia       float64
}

// Registry owns the species list.
type Registry struct {
	list     []Species
	defaults Defaults
}

// NewRegistry creates a registry with n species using the given defaults.
func NewRegistry(n int, defaults Defaults) (*Registry, error) {
	r := &Registry{defaults: defaults}
	if err := r.SetCount(n); err != nil {
		return nil, err
	}
	return r, nil
}

// Count returns the number of species.
func (r *Registry) Count() int {
	return len(r.list)
}

// Get returns a pointer to the species with the given id, or nil if out of range.
func (r *Registry) Get(id int) *Species {
	if id < 0 || id >= len(r.list) {
		return nil
	}
	return &r.list[id]
}

// All returns the species slice. Callers must treat it as read-only.
func (r *Registry) All() []Species {
	return r.list
}

// SetCount resizes the registry to n species.
// Existing records are preserved; new species get default attributes and a
// palette color. Returns an error for counts outside [1, MaxSpecies].
func (r *Registry) SetCount(n int) error {
	if n < 1 || n > MaxSpecies {
		return fmt.Errorf("species count %d outside [1, %d]", n, MaxSpecies)
	}
	if n <= len(r.list) {
		r.list = r.list[:n]
		return nil
	}
	for i := len(r.list); i < n; i++ {
		r.list = append(r.list, Species{
			ID:            i,
			Color:         paletteColor(i, MaxSpecies),
			ParticleCount: r.defaults.ParticleCount,
			Size:          r.defaults.Size,
			Mobility:      r.defaults.Mobility,
			Inertia:       r.defaults.Inertia,
		})
	}
	return nil
}

// Validate checks a complete species list without mutating anything, so
// callers can reject a list before committing any other state.
func Validate(list []Species) error {
	if len(list) < 1 || len(list) > MaxSpecies {
		return fmt.Errorf("species count %d outside [1, %d]", len(list), MaxSpecies)
	}
	for i, s := range list {
		if s.ParticleCount < 0 {
			return fmt.Errorf("species %d: negative particle count %d", i, s.ParticleCount)
		}
		if s.Size <= 0 {
			return fmt.Errorf("species %d: non-positive size %f", i, s.Size)
		}
	}
	return nil
}

// Replace swaps in a complete species list, e.g. when restoring a snapshot.
// The list is validated before any state changes.
func (r *Registry) Replace(list []Species) error {
	if err := Validate(list); err != nil {
		return err
	}
	r.list = make([]Species, len(list))
	copy(r.list, list)
	for i := range r.list {
		r.list[i].ID = i
	}
	return nil
}

// DisplayName returns the species' name, or a generated fallback.
func (r *Registry) DisplayName(id int) string {
	s := r.Get(id)
	if s == nil {
		return fmt.Sprintf("Species %d", id+1)
	}
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Species %d", id+1)
}

// TotalParticles returns the sum of all species particle counts.
func (r *Registry) TotalParticles() int {
	total := 0
	for i := range r.list {
		total += r.list[i].ParticleCount
	}
	return total
}

// SetGlow updates one species' glow settings.
func (r *Registry) SetGlow(id int, g Glow) error {
	s := r.Get(id)
	if s == nil {
		return fmt.Errorf("species id %d out of range", id)
	}
	s.Glow = g
	return nil
}

// SetHalo updates one species' halo settings.
func (r *Registry) SetHalo(id int, h Halo) error {
	s := r.Get(id)
	if s == nil {
		return fmt.Errorf("species id %d out of range", id)
	}
	s.Halo = h
	return nil
}

// paletteColor spreads hues evenly around the color wheel.
func paletteColor(i, n int) RGB {
	h := float64(i) / float64(n) * 360
	rf, gf, bf := hsvToRGB(h, 0.85, 1)
	return RGB{R: uint8(rf * 255), G: uint8(gf * 255), B: uint8(bf * 255)}
}

// hsvToRGB converts HSV (h in degrees) to RGB in [0,1].
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}
