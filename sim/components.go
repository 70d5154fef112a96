package sim

// Position is a particle's world-space location.
type Position struct {
	X, Y float32
}

// Velocity is a particle's velocity in world units per second.
type Velocity struct {
	X, Y float32
}

// Membership assigns a particle to its species.
type Membership struct {
	Species uint8
}

// ParticleView is the read-only render state published after each tick.
type ParticleView struct {
	X, Y    float32
	VX, VY  float32
	Species uint8
}
