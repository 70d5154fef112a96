package sim

// ShockwaveParams are the tunables for input-spawned shockwaves.
type ShockwaveParams struct {
	Strength float32 // Peak radial force
	Size     float32 // Influence radius in world units
	Falloff  float32 // Distance falloff exponent
	DecayTau float32 // Age decay time constant in seconds
}

// withDefaults fills unusable parameter values.
func (p ShockwaveParams) withDefaults() ShockwaveParams {
	if p.Strength <= 0 {
		p.Strength = 400
	}
	if p.Size <= 0 {
		p.Size = 200
	}
	if p.Falloff <= 0 {
		p.Falloff = 2
	}
	if p.DecayTau <= 0 {
		p.DecayTau = 0.6
	}
	return p
}

// Shockwave is a transient radial impulse. Spawned waves sit in a pending
// list until the next tick start, stay active while decaying, and are
// removed once their contribution becomes negligible.
type Shockwave struct {
	X, Y      float32
	Strength  float32
	Size      float32
	Falloff   float32
	DecayTau  float32
	SpawnTick int64
}

// expiryFactor is the age decay multiplier below which a wave is removed.
const expiryFactor = 1e-3

// ageFactor returns the exponential age decay multiplier for the given age
// in seconds.
func (s *Shockwave) ageFactor(age float32) float32 {
	if age < 0 {
		age = 0
	}
	return fastExp(-age / s.DecayTau)
}

// expired reports whether the wave's contribution has become negligible.
func (s *Shockwave) expired(age float32) bool {
	return s.ageFactor(age) < expiryFactor
}

// forceAt returns the outward force magnitude at distance dist for the given
// age. Zero outside the wave's size.
func (s *Shockwave) forceAt(dist, age float32) float32 {
	if dist >= s.Size {
		return 0
	}
	falloff := powf(1-dist/s.Size, s.Falloff)
	return s.Strength * s.ageFactor(age) * falloff
}
