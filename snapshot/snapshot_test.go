package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/drift/forcegen"
	"github.com/pthm-cable/drift/modulation"
	"github.com/pthm-cable/drift/noisefield"
	"github.com/pthm-cable/drift/sim"
	"github.com/pthm-cable/drift/species"
)

func newTestWorld(t *testing.T, nSpecies int) (*sim.Engine, *modulation.Manager) {
	t.Helper()
	reg, err := species.NewRegistry(nSpecies, species.Defaults{ParticleCount: 20, Size: 1, Mobility: 1})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	eng, err := sim.NewEngine(sim.Options{
		Width:           800,
		Height:          600,
		Config:          sim.Config{ForceFactor: 1, Friction: 0.95, WallDamping: 0.8},
		Registry:        reg,
		Social:          forcegen.NewGenerator(1).Generate(forcegen.TopologyRandom, nSpecies, 0.3, nil, 5),
		SocialRadius:    forcegen.UniformRadius(nSpecies, 60),
		CollisionRadius: forcegen.UniformRadius(nSpecies, 8),
		Noise:           noisefield.New(noisefield.Config{Pattern: noisefield.PatternSimplex, Amplitude: 30, Seed: 9}),
		Seed:            1,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(eng.Close)

	params := modulation.NewRegistry()
	cfgGet := func() float64 { return eng.Config().Friction }
	cfgSet := func(v float64) {
		c := eng.Config()
		c.Friction = v
		eng.SetConfig(c)
	}
	if err := params.Register(modulation.Descriptor{
		ID: "physics.friction", Min: 0, Max: 1, Get: cfgGet, Set: cfgSet,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return eng, modulation.NewManager(params)
}

func TestSnapshotRoundTrip(t *testing.T) {
	eng, mgr := newTestWorld(t, 4)
	if err := eng.SetForce(1, 2, 0.42); err != nil {
		t.Fatalf("SetForce: %v", err)
	}
	if _, err := mgr.Add("physics.friction", modulation.WaveTriangle, 0.5, 0.99, 4000, 7, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	eng.InitParticlesFromDistribution(map[int][]sim.DistPoint{
		0: {{X: 0.5, Y: 0.5, Size: 0.1, Opacity: 0.8}},
	})

	path := filepath.Join(t.TempDir(), "state.json")
	snap := Capture(eng, mgr)
	if err := Save(snap, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	eng2, mgr2 := newTestWorld(t, 2)
	if err := Apply(loaded, eng2, mgr2, 0); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := eng2.Registry().Count(); got != 4 {
		t.Errorf("restored species count = %d, want 4", got)
	}
	social, _, _ := eng2.Matrices()
	if got := social.At(1, 2); got != 0.42 {
		t.Errorf("restored force[1][2] = %f, want 0.42", got)
	}
	origSocial, _, _ := eng.Matrices()
	if !mat.Equal(social, origSocial) {
		t.Error("restored force matrix differs from captured one")
	}
	if got := eng2.Config().WallDamping; got != 0.8 {
		t.Errorf("restored wall damping = %f, want 0.8", got)
	}
	if got := eng2.NoiseField().Config(); got.Amplitude != 30 || got.Pattern != noisefield.PatternSimplex {
		t.Errorf("restored noise config mismatch: %+v", got)
	}
	if w, h := eng2.Extent(); w != 800 || h != 600 {
		t.Errorf("restored extent = %gx%g, want 800x600", w, h)
	}
	mod := mgr2.ForParam("physics.friction")
	if mod == nil || mod.Waveform != modulation.WaveTriangle || mod.DurationMs != 4000 {
		t.Errorf("restored modulation mismatch: %+v", mod)
	}
	dist := eng2.Distribution()
	if len(dist) != 1 || dist[0][0].X != 0.5 {
		t.Errorf("restored distribution mismatch: %+v", dist)
	}
}

func TestApplyRejectsMalformedSnapshots(t *testing.T) {
	base := func(t *testing.T) *Snapshot {
		eng, mgr := newTestWorld(t, 3)
		return Capture(eng, mgr)
	}

	cases := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"wrong version", func(s *Snapshot) { s.Version = 99 }},
		{"no species", func(s *Snapshot) { s.Species = nil }},
		{"ragged force matrix", func(s *Snapshot) { s.ForceMatrix[1] = s.ForceMatrix[1][:1] }},
		{"matrix dims mismatch", func(s *Snapshot) { s.ForceMatrix = s.ForceMatrix[:2] }},
		{"non-positive radius", func(s *Snapshot) { s.SocialRadius[0][0] = 0 }},
		{"zero world", func(s *Snapshot) { s.World.Width = 0 }},
		{"unknown modulation target", func(s *Snapshot) {
			s.Modulations = []modulation.Config{{ParamID: "nope", Waveform: modulation.WaveSine, Min: 0, Max: 1, DurationMs: 1000}}
		}},
		{"bad species size", func(s *Snapshot) { s.Species[0].Size = 0 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			snap := base(t)
			tc.mutate(snap)

			eng, mgr := newTestWorld(t, 3)
			live, err := mgr.Add("physics.friction", modulation.WaveSine, 0.5, 0.9, 2000, 3, 0)
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			before, _, _ := eng.Matrices()
			beforeCopy := mat.DenseCopyOf(before)

			if err := Apply(snap, eng, mgr, 0); err == nil {
				t.Fatal("malformed snapshot accepted")
			}
			after, _, _ := eng.Matrices()
			if !mat.Equal(after, beforeCopy) {
				t.Error("failed apply mutated the engine matrices")
			}
			if eng.Registry().Count() != 3 {
				t.Errorf("failed apply changed species count to %d", eng.Registry().Count())
			}
			if mgr.Count() != 1 || mgr.Get(live.ID) == nil {
				t.Errorf("failed apply mutated the modulation set: count = %d, want 1", mgr.Count())
			}
		})
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("invalid JSON accepted")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
}
