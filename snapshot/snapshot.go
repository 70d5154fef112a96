// Package snapshot captures and restores the full simulation configuration:
// species attributes, interaction matrices, physics scalars, noise settings,
// active modulations, and the initial particle distribution.
//
// Snapshots are versioned JSON documents. Apply validates the entire
// document before mutating anything, so a malformed snapshot never leaves
// the simulation half-restored.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/drift/modulation"
	"github.com/pthm-cable/drift/noisefield"
	"github.com/pthm-cable/drift/sim"
	"github.com/pthm-cable/drift/species"
)

// Version is the current snapshot schema version.
const Version = 1

// Snapshot is the serializable simulation configuration.
type Snapshot struct {
	Version         int                     `json:"version"`
	World           WorldState              `json:"world"`
	Species         []species.Species       `json:"species"`
	ForceMatrix     [][]float64             `json:"force_matrix"`
	SocialRadius    [][]float64             `json:"social_radius"`
	CollisionRadius [][]float64             `json:"collision_radius"`
	Physics         sim.Config              `json:"physics"`
	Noise           noisefield.Config       `json:"noise"`
	Modulations     []modulation.Config     `json:"modulations"`
	Distribution    map[int][]sim.DistPoint `json:"distribution,omitempty"`
}

// WorldState records the simulation extent.
type WorldState struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// Capture builds a snapshot of the engine and modulation state.
func Capture(eng *sim.Engine, mgr *modulation.Manager) *Snapshot {
	social, socialRad, collRad := eng.Matrices()
	w, h := eng.Extent()
	list := eng.Registry().All()
	speciesCopy := make([]species.Species, len(list))
	copy(speciesCopy, list)

	return &Snapshot{
		Version:         Version,
		World:           WorldState{Width: w, Height: h},
		Species:         speciesCopy,
		ForceMatrix:     denseToRows(social),
		SocialRadius:    denseToRows(socialRad),
		CollisionRadius: denseToRows(collRad),
		Physics:         eng.Config(),
		Noise:           eng.NoiseField().Config(),
		Modulations:     mgr.Export(),
		Distribution:    eng.Distribution(),
	}
}

// Apply restores a snapshot into the engine and modulation manager.
// The whole document is validated first; on error nothing changes.
func Apply(s *Snapshot, eng *sim.Engine, mgr *modulation.Manager, nowMs float64) error {
	if s.Version != Version {
		return fmt.Errorf("snapshot: unsupported version %d, want %d", s.Version, Version)
	}
	n := len(s.Species)
	if n < 1 || n > species.MaxSpecies {
		return fmt.Errorf("snapshot: species count %d outside [1, %d]", n, species.MaxSpecies)
	}
	social, err := rowsToDense("force_matrix", s.ForceMatrix, n)
	if err != nil {
		return err
	}
	socialRad, err := rowsToDense("social_radius", s.SocialRadius, n)
	if err != nil {
		return err
	}
	collRad, err := rowsToDense("collision_radius", s.CollisionRadius, n)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if socialRad.At(i, j) <= 0 {
				return fmt.Errorf("snapshot: social_radius[%d][%d] = %f, must be positive", i, j, socialRad.At(i, j))
			}
			if collRad.At(i, j) <= 0 {
				return fmt.Errorf("snapshot: collision_radius[%d][%d] = %f, must be positive", i, j, collRad.At(i, j))
			}
		}
	}
	if s.World.Width <= 0 || s.World.Height <= 0 {
		return fmt.Errorf("snapshot: world extent %gx%g invalid", s.World.Width, s.World.Height)
	}
	if err := species.Validate(s.Species); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	// Every remaining validation has now passed; the modulation import is
	// itself all-or-nothing, so it is the first mutation and a bad
	// modulation list still aborts the restore with nothing changed.
	if err := mgr.Import(s.Modulations, nowMs); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if err := eng.Registry().Replace(s.Species); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := eng.SetMatrices(social, socialRad, collRad); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	eng.SetConfig(s.Physics)
	eng.NoiseField().SetConfig(s.Noise)
	eng.ResizeWorld(s.World.Width, s.World.Height)
	if len(s.Distribution) > 0 {
		eng.InitParticlesFromDistribution(s.Distribution)
	} else {
		eng.InitParticles()
	}
	return nil
}

// Save writes a snapshot as indented JSON.
func Save(s *Snapshot, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// Load reads a snapshot from disk.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", path, err)
	}
	return &s, nil
}

func denseToRows(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

func rowsToDense(name string, rows [][]float64, n int) (*mat.Dense, error) {
	if len(rows) != n {
		return nil, fmt.Errorf("snapshot: %s has %d rows, want %d", name, len(rows), n)
	}
	m := mat.NewDense(n, n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("snapshot: %s row %d has %d columns, want %d", name, i, len(row), n)
		}
		for j, v := range row {
			m.Set(i, j, v)
		}
	}
	return m, nil
}
