package species

import "testing"

func defaults() Defaults {
	return Defaults{ParticleCount: 100, Size: 2, Mobility: 1, Inertia: 0}
}

func TestSetCountBounds(t *testing.T) {
	r, err := NewRegistry(5, defaults())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := r.SetCount(0); err == nil {
		t.Error("count 0 accepted")
	}
	if err := r.SetCount(MaxSpecies + 1); err == nil {
		t.Error("count above MaxSpecies accepted")
	}
	if r.Count() != 5 {
		t.Errorf("failed resize changed count to %d", r.Count())
	}
	if err := r.SetCount(MaxSpecies); err != nil {
		t.Errorf("SetCount(MaxSpecies): %v", err)
	}
}

func TestSetCountPreservesExistingRecords(t *testing.T) {
	r, err := NewRegistry(3, defaults())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	r.Get(1).Name = "Drifters"
	r.Get(1).Mobility = 2.5

	if err := r.SetCount(6); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if s := r.Get(1); s.Name != "Drifters" || s.Mobility != 2.5 {
		t.Errorf("record 1 mutated by grow: %+v", s)
	}
	if s := r.Get(5); s.ParticleCount != 100 || s.Size != 2 {
		t.Errorf("appended species missing defaults: %+v", s)
	}
	if s := r.Get(5); s.ID != 5 {
		t.Errorf("appended species id = %d, want 5", s.ID)
	}

	if err := r.SetCount(2); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if s := r.Get(1); s.Name != "Drifters" {
		t.Error("record 1 lost on shrink")
	}
}

func TestPaletteColorsDiffer(t *testing.T) {
	r, _ := NewRegistry(8, defaults())
	seen := make(map[RGB]bool)
	for _, s := range r.All() {
		if seen[s.Color] {
			t.Fatalf("duplicate palette color %+v", s.Color)
		}
		seen[s.Color] = true
	}
}

func TestReplaceValidatesBeforeMutating(t *testing.T) {
	r, _ := NewRegistry(3, defaults())
	bad := []Species{
		{Name: "ok", ParticleCount: 10, Size: 1},
		{Name: "bad", ParticleCount: 10, Size: 0},
	}
	if err := r.Replace(bad); err == nil {
		t.Fatal("species with zero size accepted")
	}
	if r.Count() != 3 {
		t.Errorf("failed replace changed count to %d", r.Count())
	}

	good := []Species{
		{Name: "a", ParticleCount: 10, Size: 1},
		{Name: "b", ParticleCount: 20, Size: 2},
	}
	if err := r.Replace(good); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if r.Count() != 2 || r.Get(1).ID != 1 {
		t.Errorf("replace result malformed: count=%d", r.Count())
	}
	if r.TotalParticles() != 30 {
		t.Errorf("TotalParticles = %d, want 30", r.TotalParticles())
	}
}

func TestDisplayNameFallback(t *testing.T) {
	r, _ := NewRegistry(2, defaults())
	r.Get(0).Name = "Sparks"
	if got := r.DisplayName(0); got != "Sparks" {
		t.Errorf("DisplayName(0) = %q", got)
	}
	if got := r.DisplayName(1); got != "Species 2" {
		t.Errorf("DisplayName(1) = %q, want fallback", got)
	}
	if got := r.DisplayName(99); got != "Species 100" {
		t.Errorf("DisplayName(99) = %q", got)
	}
}
