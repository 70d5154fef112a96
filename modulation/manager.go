package modulation

import (
	"errors"
	"fmt"
)

// ErrUnknownParameter is returned when a parameter id has no descriptor.
var ErrUnknownParameter = errors.New("modulation: unknown parameter")

// ErrUnknownModulation is returned when a modulation id does not exist.
var ErrUnknownModulation = errors.New("modulation: unknown modulation")

// Kind discriminates numeric and color modulations.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindColor   Kind = "color"
)

// Modulation is one active binding of a parameter to a waveform.
// At most one modulation exists per parameter. Numeric modulations sweep
// [Min, Max]; color modulations sweep component-wise [MinColor, MaxColor].
type Modulation struct {
	ID         int      `json:"id"`
	ParamID    string   `json:"param_id"`
	Kind       Kind     `json:"kind"`
	Waveform   Waveform `json:"waveform"`
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	MinColor   RGB      `json:"min_color"`
	MaxColor   RGB      `json:"max_color"`
	DurationMs float64  `json:"duration_ms"`
	Seed       uint64   `json:"seed"`

	startMs       float64
	baseline      float64
	baselineColor RGB
}

// Config is the exported form of a modulation, used for snapshots.
// An empty Kind means numeric, so older snapshots keep loading.
type Config struct {
	ParamID    string   `json:"param_id" yaml:"param_id"`
	Kind       Kind     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Waveform   Waveform `json:"waveform" yaml:"waveform"`
	Min        float64  `json:"min" yaml:"min"`
	Max        float64  `json:"max" yaml:"max"`
	MinColor   RGB      `json:"min_color" yaml:"min_color"`
	MaxColor   RGB      `json:"max_color" yaml:"max_color"`
	DurationMs float64  `json:"duration_ms" yaml:"duration_ms"`
	Seed       uint64   `json:"seed" yaml:"seed"`
}

// preview is a transient parameter override: either a pinned constant or a
// candidate modulation evaluated per tick (hasWave selects). Either way the
// pre-preview value is kept so StopPreview leaves no residue.
type preview struct {
	kind          Kind
	value         float64
	color         RGB
	baseline      float64
	baselineColor RGB

	hasWave            bool
	waveform           Waveform
	min, max           float64
	minColor, maxColor RGB
	durationMs         float64
	seed               uint64
	startMs            float64
}

// Manager owns all active modulations and parameter previews.
// Not safe for concurrent use; call it from the tick loop goroutine only.
type Manager struct {
	registry *Registry
	byParam  map[string]*Modulation
	byID     map[int]*Modulation
	previews map[string]preview
	nextID   int
}

// NewManager creates a manager over a parameter registry.
func NewManager(registry *Registry) *Manager {
	return &Manager{
		registry: registry,
		byParam:  make(map[string]*Modulation),
		byID:     make(map[int]*Modulation),
		previews: make(map[string]preview),
		nextID:   1,
	}
}

// Add creates a modulation on a parameter, starting its cycle at nowMs.
// The parameter's current value is captured as the baseline restored on
// removal. Adding to an already modulated parameter replaces the old
// modulation but keeps its original baseline, so removal still restores
// the true pre-modulation value.
func (m *Manager) Add(paramID string, w Waveform, min, max, durationMs float64, seed uint64, nowMs float64) (*Modulation, error) {
	desc := m.registry.Lookup(paramID)
	if desc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, paramID)
	}
	if durationMs <= 0 {
		return nil, fmt.Errorf("modulation: duration %f ms must be positive", durationMs)
	}
	min, max = clampRange(min, max, desc)

	baseline := desc.Get()
	if old := m.byParam[paramID]; old != nil {
		baseline = old.baseline
		delete(m.byID, old.ID)
	}

	mod := &Modulation{
		ID:         m.nextID,
		ParamID:    paramID,
		Kind:       KindNumeric,
		Waveform:   w,
		Min:        min,
		Max:        max,
		DurationMs: durationMs,
		Seed:       seed,
		startMs:    nowMs,
		baseline:   baseline,
	}
	m.nextID++
	m.byParam[paramID] = mod
	m.byID[mod.ID] = mod
	return mod, nil
}

// AddColor creates a color modulation sweeping component-wise from one
// endpoint color to the other. Baseline semantics match Add.
func (m *Manager) AddColor(paramID string, w Waveform, from, to RGB, durationMs float64, seed uint64, nowMs float64) (*Modulation, error) {
	desc := m.registry.LookupColor(paramID)
	if desc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, paramID)
	}
	if durationMs <= 0 {
		return nil, fmt.Errorf("modulation: duration %f ms must be positive", durationMs)
	}

	baseline := desc.Get()
	if old := m.byParam[paramID]; old != nil {
		baseline = old.baselineColor
		delete(m.byID, old.ID)
	}

	mod := &Modulation{
		ID:            m.nextID,
		ParamID:       paramID,
		Kind:          KindColor,
		Waveform:      w,
		MinColor:      from,
		MaxColor:      to,
		DurationMs:    durationMs,
		Seed:          seed,
		startMs:       nowMs,
		baselineColor: baseline,
	}
	m.nextID++
	m.byParam[paramID] = mod
	m.byID[mod.ID] = mod
	return mod, nil
}

// Update replaces a numeric modulation's shape in place. The cycle restarts
// at nowMs; the original baseline is kept.
func (m *Manager) Update(id int, w Waveform, min, max, durationMs float64, nowMs float64) error {
	mod := m.byID[id]
	if mod == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownModulation, id)
	}
	if mod.Kind == KindColor {
		return fmt.Errorf("modulation: id %d is a color modulation, use UpdateColor", id)
	}
	if durationMs <= 0 {
		return fmt.Errorf("modulation: duration %f ms must be positive", durationMs)
	}
	desc := m.registry.Lookup(mod.ParamID)
	if desc == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, mod.ParamID)
	}
	mod.Waveform = w
	mod.Min, mod.Max = clampRange(min, max, desc)
	mod.DurationMs = durationMs
	mod.startMs = nowMs
	return nil
}

// UpdateColor replaces a color modulation's shape in place, restarting its
// cycle at nowMs.
func (m *Manager) UpdateColor(id int, w Waveform, from, to RGB, durationMs float64, nowMs float64) error {
	mod := m.byID[id]
	if mod == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownModulation, id)
	}
	if mod.Kind != KindColor {
		return fmt.Errorf("modulation: id %d is not a color modulation", id)
	}
	if durationMs <= 0 {
		return fmt.Errorf("modulation: duration %f ms must be positive", durationMs)
	}
	mod.Waveform = w
	mod.MinColor, mod.MaxColor = from, to
	mod.DurationMs = durationMs
	mod.startMs = nowMs
	return nil
}

// Remove deletes a modulation and restores the parameter to its baseline.
func (m *Manager) Remove(id int) error {
	mod := m.byID[id]
	if mod == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownModulation, id)
	}
	delete(m.byID, id)
	delete(m.byParam, mod.ParamID)
	if mod.Kind == KindColor {
		if desc := m.registry.LookupColor(mod.ParamID); desc != nil {
			desc.Set(mod.baselineColor)
		}
	} else if desc := m.registry.Lookup(mod.ParamID); desc != nil {
		desc.Set(mod.baseline)
	}
	return nil
}

// RemoveAll deletes every modulation, restoring all baselines.
func (m *Manager) RemoveAll() {
	for id := range m.byID {
		_ = m.Remove(id)
	}
}

// Get returns the modulation with the given id, or nil.
func (m *Manager) Get(id int) *Modulation {
	return m.byID[id]
}

// ForParam returns the modulation bound to a parameter, or nil.
func (m *Manager) ForParam(paramID string) *Modulation {
	return m.byParam[paramID]
}

// Count returns the number of active modulations.
func (m *Manager) Count() int {
	return len(m.byID)
}

// Preview pins a parameter to a fixed value, overriding any modulation,
// until StopPreview. Used by UI sliders while dragging.
func (m *Manager) Preview(paramID string, value float64) error {
	desc := m.registry.Lookup(paramID)
	if desc == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, paramID)
	}
	pv, active := m.previews[paramID]
	if !active {
		pv.kind = KindNumeric
		pv.baseline = desc.Get()
	}
	pv.hasWave = false
	pv.value = clamp(value, desc.Min, desc.Max)
	m.previews[paramID] = pv
	desc.Set(pv.value)
	return nil
}

// PreviewModulation auditions a candidate modulation without committing it:
// the waveform is evaluated per tick as a transient override until
// StopPreview. Adding the same shape afterwards commits what was heard.
func (m *Manager) PreviewModulation(paramID string, w Waveform, min, max, durationMs float64, seed uint64, nowMs float64) error {
	desc := m.registry.Lookup(paramID)
	if desc == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, paramID)
	}
	if durationMs <= 0 {
		return fmt.Errorf("modulation: duration %f ms must be positive", durationMs)
	}
	pv, active := m.previews[paramID]
	if !active {
		pv.kind = KindNumeric
		pv.baseline = desc.Get()
	}
	pv.hasWave = true
	pv.waveform = w
	pv.min, pv.max = clampRange(min, max, desc)
	pv.durationMs = durationMs
	pv.seed = seed
	pv.startMs = nowMs
	m.previews[paramID] = pv
	desc.Set(pv.min + (pv.max-pv.min)*Evaluate(w, 0, seed))
	return nil
}

// PreviewColor pins a color parameter to a fixed color until StopPreview.
func (m *Manager) PreviewColor(paramID string, value RGB) error {
	desc := m.registry.LookupColor(paramID)
	if desc == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, paramID)
	}
	pv, active := m.previews[paramID]
	if !active {
		pv.kind = KindColor
		pv.baselineColor = desc.Get()
	}
	pv.hasWave = false
	pv.color = value
	m.previews[paramID] = pv
	desc.Set(value)
	return nil
}

// PreviewColorModulation auditions a candidate color modulation, evaluated
// per tick as a transient override until StopPreview.
func (m *Manager) PreviewColorModulation(paramID string, w Waveform, from, to RGB, durationMs float64, seed uint64, nowMs float64) error {
	desc := m.registry.LookupColor(paramID)
	if desc == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, paramID)
	}
	if durationMs <= 0 {
		return fmt.Errorf("modulation: duration %f ms must be positive", durationMs)
	}
	pv, active := m.previews[paramID]
	if !active {
		pv.kind = KindColor
		pv.baselineColor = desc.Get()
	}
	pv.hasWave = true
	pv.waveform = w
	pv.minColor, pv.maxColor = from, to
	pv.durationMs = durationMs
	pv.seed = seed
	pv.startMs = nowMs
	m.previews[paramID] = pv
	desc.Set(lerpRGB(from, to, Evaluate(w, 0, seed)))
	return nil
}

// StopPreview ends a preview. Modulated parameters fall back to their
// waveform on the next tick; unmodulated ones restore the pre-preview
// value immediately, leaving no residue.
func (m *Manager) StopPreview(paramID string) {
	pv, active := m.previews[paramID]
	if !active {
		return
	}
	delete(m.previews, paramID)
	if m.byParam[paramID] != nil {
		return
	}
	if pv.kind == KindColor {
		if desc := m.registry.LookupColor(paramID); desc != nil {
			desc.Set(pv.baselineColor)
		}
	} else if desc := m.registry.Lookup(paramID); desc != nil {
		desc.Set(pv.baseline)
	}
}

// Tick evaluates every modulation at nowMs and writes the results through
// the descriptors. Previews are applied last and win over modulations.
func (m *Manager) Tick(nowMs float64) {
	for _, mod := range m.byParam {
		phase := (nowMs - mod.startMs) / mod.DurationMs
		v := Evaluate(mod.Waveform, phase, mod.Seed)
		if mod.Kind == KindColor {
			if desc := m.registry.LookupColor(mod.ParamID); desc != nil {
				desc.Set(lerpRGB(mod.MinColor, mod.MaxColor, v))
			}
			continue
		}
		if desc := m.registry.Lookup(mod.ParamID); desc != nil {
			desc.Set(mod.Min + (mod.Max-mod.Min)*v)
		}
	}
	for paramID, pv := range m.previews {
		if pv.kind == KindColor {
			desc := m.registry.LookupColor(paramID)
			if desc == nil {
				continue
			}
			if pv.hasWave {
				v := Evaluate(pv.waveform, (nowMs-pv.startMs)/pv.durationMs, pv.seed)
				desc.Set(lerpRGB(pv.minColor, pv.maxColor, v))
			} else {
				desc.Set(pv.color)
			}
			continue
		}
		desc := m.registry.Lookup(paramID)
		if desc == nil {
			continue
		}
		if pv.hasWave {
			v := Evaluate(pv.waveform, (nowMs-pv.startMs)/pv.durationMs, pv.seed)
			desc.Set(pv.min + (pv.max-pv.min)*v)
		} else {
			desc.Set(pv.value)
		}
	}
}

// Export returns all active modulations as snapshot configs, ordered by id.
func (m *Manager) Export() []Config {
	out := make([]Config, 0, len(m.byID))
	for id := 1; id < m.nextID; id++ {
		mod := m.byID[id]
		if mod == nil {
			continue
		}
		out = append(out, Config{
			ParamID:    mod.ParamID,
			Kind:       mod.Kind,
			Waveform:   mod.Waveform,
			Min:        mod.Min,
			Max:        mod.Max,
			MinColor:   mod.MinColor,
			MaxColor:   mod.MaxColor,
			DurationMs: mod.DurationMs,
			Seed:       mod.Seed,
		})
	}
	return out
}

// Import validates every config, then replaces the active modulation set.
// On any validation error nothing changes. A config with no Kind is numeric.
func (m *Manager) Import(configs []Config, nowMs float64) error {
	for i, c := range configs {
		if c.Kind == KindColor {
			if m.registry.LookupColor(c.ParamID) == nil {
				return fmt.Errorf("%w: config %d references color %q", ErrUnknownParameter, i, c.ParamID)
			}
		} else if m.registry.Lookup(c.ParamID) == nil {
			return fmt.Errorf("%w: config %d references %q", ErrUnknownParameter, i, c.ParamID)
		}
		if c.DurationMs <= 0 {
			return fmt.Errorf("modulation: config %d duration %f ms must be positive", i, c.DurationMs)
		}
	}
	m.RemoveAll()
	for _, c := range configs {
		var err error
		if c.Kind == KindColor {
			_, err = m.AddColor(c.ParamID, c.Waveform, c.MinColor, c.MaxColor, c.DurationMs, c.Seed, nowMs)
		} else {
			_, err = m.Add(c.ParamID, c.Waveform, c.Min, c.Max, c.DurationMs, c.Seed, nowMs)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func clampRange(min, max float64, desc *Descriptor) (float64, float64) {
	if min > max {
		min, max = max, min
	}
	return clamp(min, desc.Min, desc.Max), clamp(max, desc.Min, desc.Max)
}

// lerpRGB interpolates component-wise, rounding to the nearest channel value.
func lerpRGB(a, b RGB, t float64) RGB {
	ch := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return RGB{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B)}
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
