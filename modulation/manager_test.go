package modulation

import (
	"errors"
	"math"
	"testing"
)

func newTestSetup(t *testing.T) (*Registry, *Manager, *float64) {
	t.Helper()
	value := 1.0
	reg := NewRegistry()
	err := reg.Register(Descriptor{
		ID:    "physics.friction",
		Label: "Friction",
		Min:   0,
		Max:   10,
		Get:   func() float64 { return value },
		Set:   func(v float64) { value = v },
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg, NewManager(reg), &value
}

func TestTriangleModulationTimeline(t *testing.T) {
	// Triangle from 0.5 to 3.0 over 4 seconds: min at start, peak at half
	// period, back to min at the full period.
	_, mgr, value := newTestSetup(t)
	if _, err := mgr.Add("physics.friction", WaveTriangle, 0.5, 3.0, 4000, 0, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	steps := []struct {
		nowMs float64
		want  float64
	}{
		{0, 0.5},
		{1000, 1.75},
		{2000, 3.0},
		{3000, 1.75},
		{4000, 0.5},
	}
	for _, st := range steps {
		mgr.Tick(st.nowMs)
		if math.Abs(*value-st.want) > 1e-9 {
			t.Errorf("value at t=%.0fms = %f, want %f", st.nowMs, *value, st.want)
		}
	}
}

func TestRemoveRestoresBaseline(t *testing.T) {
	_, mgr, value := newTestSetup(t)
	mod, err := mgr.Add("physics.friction", WaveSine, 0, 5, 1000, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	mgr.Tick(250)
	if *value == 1.0 {
		t.Fatal("modulation did not move the parameter")
	}
	if err := mgr.Remove(mod.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if *value != 1.0 {
		t.Errorf("value after remove = %f, want baseline 1.0", *value)
	}
	if mgr.Count() != 0 {
		t.Errorf("count after remove = %d", mgr.Count())
	}
}

func TestReplaceInheritsOriginalBaseline(t *testing.T) {
	_, mgr, value := newTestSetup(t)
	if _, err := mgr.Add("physics.friction", WaveSine, 0, 5, 1000, 0, 0); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	mgr.Tick(250) // parameter now mid-oscillation, not at baseline

	second, err := mgr.Add("physics.friction", WaveSquare, 2, 4, 500, 0, 250)
	if err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if mgr.Count() != 1 {
		t.Fatalf("replace left %d modulations, want 1", mgr.Count())
	}
	if err := mgr.Remove(second.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if *value != 1.0 {
		t.Errorf("value after remove = %f, want original baseline 1.0", *value)
	}
}

func TestUpdateRestartsCycle(t *testing.T) {
	_, mgr, value := newTestSetup(t)
	mod, err := mgr.Add("physics.friction", WaveSawtooth, 0, 1, 1000, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := mgr.Update(mod.ID, WaveSawtooth, 0, 2, 2000, 5000); err != nil {
		t.Fatalf("Update: %v", err)
	}
	mgr.Tick(5500) // quarter of the new cycle
	if math.Abs(*value-0.5) > 1e-9 {
		t.Errorf("value after restarted cycle = %f, want 0.5", *value)
	}
	if err := mgr.Update(999, WaveSine, 0, 1, 1000, 0); !errors.Is(err, ErrUnknownModulation) {
		t.Errorf("Update on missing id: %v", err)
	}
}

func TestPreviewOverridesModulationWithoutResidue(t *testing.T) {
	_, mgr, value := newTestSetup(t)
	if _, err := mgr.Add("physics.friction", WaveSine, 0, 5, 1000, 0, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := mgr.Preview("physics.friction", 7.5); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	mgr.Tick(333)
	if *value != 7.5 {
		t.Errorf("preview did not win over modulation: %f", *value)
	}

	mgr.StopPreview("physics.friction")
	mgr.Tick(250)
	want := 0 + 5*Evaluate(WaveSine, 0.25, 0)
	if math.Abs(*value-want) > 1e-9 {
		t.Errorf("modulation after preview = %f, want %f", *value, want)
	}
}

func TestPreviewOnUnmodulatedParameterRestores(t *testing.T) {
	_, mgr, value := newTestSetup(t)
	if err := mgr.Preview("physics.friction", 4); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if *value != 4 {
		t.Fatalf("preview value not applied: %f", *value)
	}
	mgr.StopPreview("physics.friction")
	if *value != 1.0 {
		t.Errorf("value after stop = %f, want pre-preview 1.0", *value)
	}
}

func TestPreviewModulationAuditionsWaveform(t *testing.T) {
	// A candidate waveform runs through the override path: it is evaluated
	// per tick, wins over the committed modulation, and cancels without
	// residue when the preview stops.
	_, mgr, value := newTestSetup(t)
	if _, err := mgr.Add("physics.friction", WaveSine, 0, 5, 1000, 0, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := mgr.PreviewModulation("physics.friction", WaveTriangle, 0, 2, 1000, 0, 0); err != nil {
		t.Fatalf("PreviewModulation: %v", err)
	}

	mgr.Tick(250)
	if math.Abs(*value-1.0) > 1e-9 {
		t.Errorf("previewed triangle at quarter period = %f, want 1.0", *value)
	}
	mgr.Tick(500)
	if math.Abs(*value-2.0) > 1e-9 {
		t.Errorf("previewed triangle at half period = %f, want 2.0", *value)
	}

	mgr.StopPreview("physics.friction")
	mgr.Tick(250)
	want := 5 * Evaluate(WaveSine, 0.25, 0)
	if math.Abs(*value-want) > 1e-9 {
		t.Errorf("committed modulation after preview = %f, want %f", *value, want)
	}
}

func TestPreviewModulationOnUnmodulatedParameterRestores(t *testing.T) {
	_, mgr, value := newTestSetup(t)
	if err := mgr.PreviewModulation("physics.friction", WaveSawtooth, 0, 4, 1000, 0, 0); err != nil {
		t.Fatalf("PreviewModulation: %v", err)
	}
	mgr.Tick(500)
	if math.Abs(*value-2.0) > 1e-9 {
		t.Fatalf("previewed sawtooth at half period = %f, want 2.0", *value)
	}
	mgr.StopPreview("physics.friction")
	if *value != 1.0 {
		t.Errorf("value after stop = %f, want pre-preview 1.0", *value)
	}
	if mgr.Count() != 0 {
		t.Errorf("preview committed a modulation: count = %d", mgr.Count())
	}

	if err := mgr.PreviewModulation("physics.gravity", WaveSine, 0, 1, 1000, 0, 0); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("unknown parameter: %v", err)
	}
	if err := mgr.PreviewModulation("physics.friction", WaveSine, 0, 1, 0, 0, 0); err == nil {
		t.Error("zero duration accepted")
	}
}

func TestPreviewClampsToDomain(t *testing.T) {
	_, mgr, value := newTestSetup(t)
	if err := mgr.Preview("physics.friction", 99); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if *value != 10 {
		t.Errorf("preview value = %f, want domain max 10", *value)
	}
}

func TestAddClampsRangeAndSwapsInverted(t *testing.T) {
	_, mgr, _ := newTestSetup(t)
	mod, err := mgr.Add("physics.friction", WaveSine, 50, -3, 1000, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if mod.Min != 0 || mod.Max != 10 {
		t.Errorf("range = [%f, %f], want clamped [0, 10]", mod.Min, mod.Max)
	}
}

func TestAddRejectsUnknownParameterAndBadDuration(t *testing.T) {
	_, mgr, _ := newTestSetup(t)
	if _, err := mgr.Add("physics.gravity", WaveSine, 0, 1, 1000, 0, 0); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("unknown parameter: %v", err)
	}
	if _, err := mgr.Add("physics.friction", WaveSine, 0, 1, 0, 0, 0); err == nil {
		t.Error("zero duration accepted")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	reg, mgr, _ := newTestSetup(t)
	other := 0.0
	if err := reg.Register(Descriptor{
		ID: "noise.amplitude", Min: 0, Max: 100,
		Get: func() float64 { return other },
		Set: func(v float64) { other = v },
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := mgr.Add("physics.friction", WaveTriangle, 0.5, 3, 4000, 11, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := mgr.Add("noise.amplitude", WaveRandom, 0, 50, 2000, 22, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	exported := mgr.Export()
	if len(exported) != 2 {
		t.Fatalf("exported %d configs, want 2", len(exported))
	}

	fresh := NewManager(reg)
	if err := fresh.Import(exported, 0); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if fresh.Count() != 2 {
		t.Errorf("imported count = %d, want 2", fresh.Count())
	}
	got := fresh.ForParam("noise.amplitude")
	if got == nil || got.Waveform != WaveRandom || got.Seed != 22 || got.DurationMs != 2000 {
		t.Errorf("imported modulation mismatch: %+v", got)
	}
}

func newColorSetup(t *testing.T) (*Registry, *Manager, *RGB) {
	t.Helper()
	color := RGB{R: 200, G: 100, B: 50}
	reg := NewRegistry()
	err := reg.RegisterColor(ColorDescriptor{
		ID:    "species.0.color",
		Label: "Alpha Color",
		Get:   func() RGB { return color },
		Set:   func(c RGB) { color = c },
	})
	if err != nil {
		t.Fatalf("RegisterColor: %v", err)
	}
	return reg, NewManager(reg), &color
}

func TestColorModulationSweepsComponentWise(t *testing.T) {
	// Sine from black to white: black at phase 0, mid gray at the quarter
	// period, white at the half period.
	_, mgr, color := newColorSetup(t)
	black, white := RGB{}, RGB{R: 255, G: 255, B: 255}
	if _, err := mgr.AddColor("species.0.color", WaveSine, black, white, 1000, 0, 0); err != nil {
		t.Fatalf("AddColor: %v", err)
	}

	steps := []struct {
		nowMs float64
		want  RGB
	}{
		{0, black},
		{250, RGB{R: 128, G: 128, B: 128}},
		{500, white},
	}
	for _, st := range steps {
		mgr.Tick(st.nowMs)
		if *color != st.want {
			t.Errorf("color at t=%.0fms = %+v, want %+v", st.nowMs, *color, st.want)
		}
	}
}

func TestColorRemoveRestoresBaseline(t *testing.T) {
	_, mgr, color := newColorSetup(t)
	base := *color
	mod, err := mgr.AddColor("species.0.color", WaveSine, RGB{}, RGB{R: 255}, 1000, 0, 0)
	if err != nil {
		t.Fatalf("AddColor: %v", err)
	}
	mgr.Tick(250)
	if *color == base {
		t.Fatal("modulation did not move the color")
	}
	if err := mgr.Remove(mod.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if *color != base {
		t.Errorf("color after remove = %+v, want baseline %+v", *color, base)
	}
}

func TestColorPreviewWithoutResidue(t *testing.T) {
	_, mgr, color := newColorSetup(t)
	base := *color
	pinned := RGB{R: 10, G: 20, B: 30}
	if err := mgr.PreviewColor("species.0.color", pinned); err != nil {
		t.Fatalf("PreviewColor: %v", err)
	}
	mgr.Tick(0)
	if *color != pinned {
		t.Fatalf("preview not applied: %+v", *color)
	}
	mgr.StopPreview("species.0.color")
	if *color != base {
		t.Errorf("color after stop = %+v, want pre-preview %+v", *color, base)
	}
}

func TestPreviewColorModulationAuditions(t *testing.T) {
	_, mgr, color := newColorSetup(t)
	base := *color
	white := RGB{R: 255, G: 255, B: 255}
	if err := mgr.PreviewColorModulation("species.0.color", WaveSine, RGB{}, white, 1000, 0, 0); err != nil {
		t.Fatalf("PreviewColorModulation: %v", err)
	}
	mgr.Tick(500)
	if *color != white {
		t.Errorf("previewed color at half period = %+v, want white", *color)
	}
	mgr.StopPreview("species.0.color")
	if *color != base {
		t.Errorf("color after stop = %+v, want pre-preview %+v", *color, base)
	}
}

func TestUpdateRejectsKindMismatch(t *testing.T) {
	reg, mgr, _ := newColorSetup(t)
	value := 0.0
	if err := reg.Register(Descriptor{
		ID: "noise.amplitude", Min: 0, Max: 100,
		Get: func() float64 { return value },
		Set: func(v float64) { value = v },
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	colorMod, err := mgr.AddColor("species.0.color", WaveSine, RGB{}, RGB{R: 255}, 1000, 0, 0)
	if err != nil {
		t.Fatalf("AddColor: %v", err)
	}
	numMod, err := mgr.Add("noise.amplitude", WaveSine, 0, 50, 1000, 0, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := mgr.Update(colorMod.ID, WaveSine, 0, 1, 1000, 0); err == nil {
		t.Error("Update accepted a color modulation")
	}
	if err := mgr.UpdateColor(numMod.ID, WaveSine, RGB{}, RGB{R: 255}, 1000, 0); err == nil {
		t.Error("UpdateColor accepted a numeric modulation")
	}
}

func TestColorExportImportRoundTrip(t *testing.T) {
	reg, mgr, _ := newColorSetup(t)
	from, to := RGB{R: 10, G: 20, B: 30}, RGB{R: 200, G: 210, B: 220}
	if _, err := mgr.AddColor("species.0.color", WaveTriangle, from, to, 3000, 7, 0); err != nil {
		t.Fatalf("AddColor: %v", err)
	}

	exported := mgr.Export()
	if len(exported) != 1 || exported[0].Kind != KindColor {
		t.Fatalf("exported = %+v, want one color config", exported)
	}

	fresh := NewManager(reg)
	if err := fresh.Import(exported, 0); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got := fresh.ForParam("species.0.color")
	if got == nil || got.Kind != KindColor || got.MinColor != from || got.MaxColor != to {
		t.Errorf("imported modulation mismatch: %+v", got)
	}
}

func TestImportRejectsColorConfigOnNumericParameter(t *testing.T) {
	_, mgr, _ := newTestSetup(t)
	bad := []Config{{
		ParamID: "physics.friction", Kind: KindColor,
		Waveform: WaveSine, MaxColor: RGB{R: 255}, DurationMs: 1000,
	}}
	if err := mgr.Import(bad, 0); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("color config on numeric parameter: %v", err)
	}
}

func TestImportIsAllOrNothing(t *testing.T) {
	_, mgr, _ := newTestSetup(t)
	if _, err := mgr.Add("physics.friction", WaveSine, 0, 1, 1000, 0, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	bad := []Config{
		{ParamID: "physics.friction", Waveform: WaveSine, Min: 0, Max: 1, DurationMs: 1000},
		{ParamID: "does.not.exist", Waveform: WaveSine, Min: 0, Max: 1, DurationMs: 1000},
	}
	if err := mgr.Import(bad, 0); err == nil {
		t.Fatal("import with unknown parameter accepted")
	}
	if mgr.Count() != 1 || mgr.ForParam("physics.friction") == nil {
		t.Error("failed import mutated the active set")
	}
}
