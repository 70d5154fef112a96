// Package forcegen builds N×N signed social-force matrices from named
// topologies, plus the companion radius matrices the kernel consumes.
//
// Generation is fully deterministic: identical (topology, n, edgeBias,
// params, seed) inputs always produce an identical matrix, so configurations
// are reproducible across runs and machines.
package forcegen

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Topology names a matrix generation strategy.
type Topology string

const (
	TopologyRandom       Topology = "random"
	TopologyClusters     Topology = "clusters"
	TopologyPredatorPrey Topology = "predator-prey"
	TopologyTerritorial  Topology = "territorial"
	TopologySymbiotic    Topology = "symbiotic"
	TopologyCyclic       Topology = "cyclic"
)

// Params is the sealed parameter family; each topology carries its own schema.
type Params interface {
	topology() Topology
}

// ClustersParams groups species and shapes intra/inter group forces.
type ClustersParams struct {
	Mode               string  // orbital, layered, competitive, symbiotic-chains, hierarchical-rings
	CohesionStrength   float64 // intra-group attraction scale
	SeparationDistance float64 // inter-group repulsion scale
	FormationBias      float64 // 0 = noisy, 1 = fully structured
}

func (ClustersParams) topology() Topology { return TopologyClusters }

// PredatorPreyParams builds directed dominance edges.
type PredatorPreyParams struct {
	Structure         string  // simple, complex, territorial, pack
	HuntIntensity     float64 // predator→prey attraction
	EscapeIntensity   float64 // prey→predator repulsion
	PopulationBalance float64 // fraction of species acting as predators
}

func (PredatorPreyParams) topology() Topology { return TopologyPredatorPrey }

// TerritorialParams drives mutual cross-species repulsion.
type TerritorialParams struct {
	TerritorySize    float64 // fraction of pairs tolerated inside a territory
	BoundaryStrength float64 // base repulsion at territory boundaries
	InvasionResponse float64 // extra repulsion against intruders
}

func (TerritorialParams) topology() Topology { return TopologyTerritorial }

// SymbioticParams pairs species into mutually attractive partnerships.
type SymbioticParams struct {
	CooperationStrength  float64 // partner attraction
	DependencyLevel      float64 // asymmetry of the partnership
	CompetitionIntensity float64 // repulsion between non-partners (0 = neutral noise)
}

func (SymbioticParams) topology() Topology { return TopologySymbiotic }

// CyclicParams builds a rock-paper-scissors dominance cycle.
type CyclicParams struct {
	DominanceStrength float64
}

func (CyclicParams) topology() Topology { return TopologyCyclic }

// Generator produces force matrices bounded by MaxForce.
type Generator struct {
	MaxForce float64
}

// NewGenerator returns a generator with the given magnitude bound.
// Non-positive bounds fall back to 1.
func NewGenerator(maxForce float64) *Generator {
	if maxForce <= 0 {
		maxForce = 1
	}
	return &Generator{MaxForce: maxForce}
}

// Generate builds an n×n signed force matrix for the given topology.
//
// edgeBias in [0,1] remaps uniform samples toward the extremes:
// sign(r)·|r|^(1-bias). Unknown topologies, or params that do not match the
// topology, fall back to uniform random (non-fatal). n <= 0 returns an empty
// matrix. The diagonal is always zero and every entry is clamped to
// [-MaxForce, MaxForce].
func (g *Generator) Generate(topo Topology, n int, edgeBias float64, params Params, seed int64) *mat.Dense {
	if n <= 0 {
		return &mat.Dense{}
	}
	edgeBias = clamp(edgeBias, 0, 1)
	rng := rand.New(rand.NewSource(seed))
	m := mat.NewDense(n, n, nil)

	switch topo {
	case TopologyClusters:
		if p, ok := params.(ClustersParams); ok {
			g.fillClusters(m, n, edgeBias, p, rng)
		} else {
			g.fillRandom(m, n, edgeBias, rng)
		}
	case TopologyPredatorPrey:
		if p, ok := params.(PredatorPreyParams); ok {
			g.fillPredatorPrey(m, n, edgeBias, p, rng)
		} else {
			g.fillRandom(m, n, edgeBias, rng)
		}
	case TopologyTerritorial:
		if p, ok := params.(TerritorialParams); ok {
			g.fillTerritorial(m, n, edgeBias, p, rng)
		} else {
			g.fillRandom(m, n, edgeBias, rng)
		}
	case TopologySymbiotic:
		if p, ok := params.(SymbioticParams); ok {
			g.fillSymbiotic(m, n, edgeBias, p, rng)
		} else {
			g.fillRandom(m, n, edgeBias, rng)
		}
	case TopologyCyclic:
		if p, ok := params.(CyclicParams); ok {
			g.fillCyclic(m, n, p)
		} else {
			g.fillRandom(m, n, edgeBias, rng)
		}
	default:
		g.fillRandom(m, n, edgeBias, rng)
	}

	g.finalize(m, n)
	return m
}

// sample draws a signed value in [-MaxForce, MaxForce] with extremes pushed
// outward as bias approaches 1.
func (g *Generator) sample(rng *rand.Rand, bias float64) float64 {
	r := rng.Float64()*2 - 1
	if r == 0 {
		return 0
	}
	sign := 1.0
	if r < 0 {
		sign = -1.0
	}
	return sign * math.Pow(math.Abs(r), 1-bias) * g.MaxForce
}

// jitter draws a positive magnitude factor in [0.75, 1].
func jitter(rng *rand.Rand) float64 {
	return 0.75 + rng.Float64()*0.25
}

func (g *Generator) fillRandom(m *mat.Dense, n int, bias float64, rng *rand.Rand) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			m.Set(i, j, g.sample(rng, bias))
		}
	}
}

func (g *Generator) fillClusters(m *mat.Dense, n int, bias float64, p ClustersParams, rng *rand.Rand) {
	groups := int(math.Round(math.Sqrt(float64(n))))
	if groups < 1 {
		groups = 1
	}
	cohesion := clamp(p.CohesionStrength, 0, 1) * g.MaxForce
	separation := clamp(p.SeparationDistance, 0, 1) * g.MaxForce
	formation := clamp(p.FormationBias, 0, 1)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			gi, gj := i%groups, j%groups
			var structured float64
			switch {
			case gi == gj:
				structured = cohesion * jitter(rng)
				if p.Mode == "orbital" && i > j {
					// Asymmetric intra-group pull produces orbiting pairs.
					structured *= -0.3
				}
			default:
				structured = -separation * jitter(rng)
				switch p.Mode {
				case "layered":
					// Adjacent groups tolerate each other; distant ones repel harder.
					if absInt(gi-gj) == 1 {
						structured *= 0.25
					}
				case "competitive":
					structured *= 1.5
				case "symbiotic-chains":
					// Each group chases the next one in the chain.
					if gj == (gi+1)%groups {
						structured = cohesion * 0.6 * jitter(rng)
					}
				case "hierarchical-rings":
					// Outer rings feel the center more strongly.
					structured *= 1 + float64(absInt(gi-gj))/float64(groups)
				}
			}
			noise := g.sample(rng, bias)
			m.Set(i, j, structured*formation+noise*(1-formation))
		}
	}
}

func (g *Generator) fillPredatorPrey(m *mat.Dense, n int, bias float64, p PredatorPreyParams, rng *rand.Rand) {
	if n == 1 {
		return
	}
	predators := int(math.Round(clamp(p.PopulationBalance, 0, 1) * float64(n)))
	if predators < 1 {
		predators = 1
	}
	if predators >= n {
		predators = n - 1
	}
	hunt := clamp(p.HuntIntensity, 0, 1) * g.MaxForce
	escape := clamp(p.EscapeIntensity, 0, 1) * g.MaxForce

	// Species [0, predators) are predators; the rest are prey.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			iPred, jPred := i < predators, j < predators
			switch {
			case iPred && !jPred:
				m.Set(i, j, hunt*jitter(rng))
			case !iPred && jPred:
				m.Set(i, j, -escape*jitter(rng))
			case iPred && jPred:
				switch p.Structure {
				case "pack":
					m.Set(i, j, hunt*0.4*jitter(rng))
				case "territorial":
					m.Set(i, j, -hunt*0.5*jitter(rng))
				default:
					m.Set(i, j, g.sample(rng, bias)*0.2)
				}
			default: // prey ↔ prey
				switch p.Structure {
				case "complex":
					// Secondary dominance chain among prey.
					if j == i+1 {
						m.Set(i, j, hunt*0.3*jitter(rng))
					} else {
						m.Set(i, j, g.sample(rng, bias)*0.3)
					}
				default:
					m.Set(i, j, escape*0.2*jitter(rng))
				}
			}
		}
	}
}

func (g *Generator) fillTerritorial(m *mat.Dense, n int, bias float64, p TerritorialParams, rng *rand.Rand) {
	boundary := clamp(p.BoundaryStrength, 0, 1)
	invasion := clamp(p.InvasionResponse, 0, 1)
	tolerated := clamp(p.TerritorySize, 0, 1) * 0.4
	repulsion := -g.MaxForce * boundary * (0.5 + 0.5*invasion)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if rng.Float64() < tolerated {
				// Overlapping territories: weak tolerance edge.
				m.Set(i, j, math.Abs(g.sample(rng, bias))*0.2)
			} else {
				m.Set(i, j, repulsion*jitter(rng))
			}
		}
	}
}

func (g *Generator) fillSymbiotic(m *mat.Dense, n int, bias float64, p SymbioticParams, rng *rand.Rand) {
	cooperation := clamp(p.CooperationStrength, 0, 1) * g.MaxForce
	dependency := clamp(p.DependencyLevel, 0, 1)
	competition := clamp(p.CompetitionIntensity, 0, 1) * g.MaxForce

	partner := make([]int, n)
	for i := range partner {
		partner[i] = -1
	}
	for i := 0; i+1 < n; i += 2 {
		partner[i] = i + 1
		partner[i+1] = i
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if partner[i] == j {
				// The second member of each pair depends on the first more
				// strongly as dependency rises.
				v := cooperation * jitter(rng)
				if i > j {
					v *= 0.5 + 0.5*dependency
				}
				m.Set(i, j, v)
			} else if competition > 0 {
				m.Set(i, j, -competition*jitter(rng))
			} else {
				m.Set(i, j, g.sample(rng, bias)*0.25)
			}
		}
	}
}

func (g *Generator) fillCyclic(m *mat.Dense, n int, p CyclicParams) {
	if n == 1 {
		return
	}
	dominance := clamp(p.DominanceStrength, 0, 1) * g.MaxForce
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		m.Set(i, next, dominance)
		m.Set(next, i, -dominance)
	}
}

// finalize zeroes the diagonal and clamps every entry to the magnitude bound.
func (g *Generator) finalize(m *mat.Dense, n int) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				m.Set(i, j, 0)
				continue
			}
			m.Set(i, j, clamp(m.At(i, j), -g.MaxForce, g.MaxForce))
		}
	}
}

// UniformRadius builds an n×n matrix with every entry set to v.
// Non-positive v is clamped to a small positive radius so the invariant
// "all radii > 0" holds regardless of input.
func UniformRadius(n int, v float64) *mat.Dense {
	if n <= 0 {
		return &mat.Dense{}
	}
	if v <= 0 {
		v = 1
	}
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, v)
		}
	}
	return m
}

// Resize returns an n×n matrix preserving old entries at indices below
// min(oldN, n); new entries come from fill (which may be nil for zeroes).
func Resize(old *mat.Dense, n int, fill func(i, j int) float64) *mat.Dense {
	if n <= 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(n, n, nil)
	oldN := 0
	if old != nil {
		r, c := old.Dims()
		oldN = minInt(r, c)
	}
	keep := minInt(oldN, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i < keep && j < keep {
				m.Set(i, j, old.At(i, j))
			} else if fill != nil {
				m.Set(i, j, fill(i, j))
			}
		}
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
