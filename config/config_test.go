package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Species.Count < 1 {
		t.Errorf("default species count = %d", cfg.Species.Count)
	}
	if cfg.Physics.DT <= 0 {
		t.Errorf("default dt = %f", cfg.Physics.DT)
	}
	if cfg.Matrix.Topology == "" {
		t.Error("default topology empty")
	}
	if cfg.Derived.DT32 != float32(cfg.Physics.DT) {
		t.Error("derived DT32 not computed")
	}
	if cfg.Derived.WorldW32 != cfg.Derived.ScreenW32 {
		t.Errorf("world width %f should default to screen width %f",
			cfg.Derived.WorldW32, cfg.Derived.ScreenW32)
	}
}

func TestLoadMergesUserConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	user := []byte("physics:\n  friction: 0.5\nworld:\n  width: 4000\n  height: 3000\n")
	if err := os.WriteFile(path, user, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Physics.Friction != 0.5 {
		t.Errorf("friction = %f, want user override 0.5", cfg.Physics.Friction)
	}
	// Untouched fields keep embedded defaults.
	defaults, _ := Load("")
	if cfg.Physics.WallDamping != defaults.Physics.WallDamping {
		t.Errorf("wall damping = %f, want default %f", cfg.Physics.WallDamping, defaults.Physics.WallDamping)
	}
	if cfg.Derived.WorldW32 != 4000 || cfg.Derived.WorldH32 != 3000 {
		t.Errorf("derived world = %fx%f, want 4000x3000", cfg.Derived.WorldW32, cfg.Derived.WorldH32)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Physics.ForceFactor = 3.25

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Physics.ForceFactor != 3.25 {
		t.Errorf("force factor after round trip = %f", back.Physics.ForceFactor)
	}
}
