package modulation

import (
	"fmt"
	"sort"
)

// Descriptor exposes one mutable simulation parameter to the modulation
// engine. Min and Max bound the parameter's legal domain; modulation ranges
// are clamped into it before any value is written.
type Descriptor struct {
	ID    string
	Label string
	Min   float64
	Max   float64
	Get   func() float64
	Set   func(float64)
}

// RGB is an 8-bit color triple, the payload of color modulations.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ColorDescriptor exposes one mutable color parameter. Color modulations
// interpolate component-wise between two endpoint colors.
type ColorDescriptor struct {
	ID    string
	Label string
	Get   func() RGB
	Set   func(RGB)
}

// Registry maps parameter ids to descriptors. Numeric and color parameters
// share one id namespace: an id names exactly one parameter of one kind.
type Registry struct {
	params map[string]*Descriptor
	colors map[string]*ColorDescriptor
}

// NewRegistry returns an empty parameter registry.
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[string]*Descriptor),
		colors: make(map[string]*ColorDescriptor),
	}
}

// Register adds a descriptor. Registering an id twice replaces the old
// descriptor, which is what species-indexed parameters need after a resize.
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("modulation: descriptor with empty id")
	}
	if d.Get == nil || d.Set == nil {
		return fmt.Errorf("modulation: descriptor %q missing accessors", d.ID)
	}
	if d.Min >= d.Max {
		return fmt.Errorf("modulation: descriptor %q has empty domain [%f, %f]", d.ID, d.Min, d.Max)
	}
	cp := d
	r.params[d.ID] = &cp
	return nil
}

// RegisterColor adds a color descriptor. Registering an id twice replaces
// the old descriptor.
func (r *Registry) RegisterColor(d ColorDescriptor) error {
	if d.ID == "" {
		return fmt.Errorf("modulation: color descriptor with empty id")
	}
	if d.Get == nil || d.Set == nil {
		return fmt.Errorf("modulation: color descriptor %q missing accessors", d.ID)
	}
	cp := d
	r.colors[d.ID] = &cp
	return nil
}

// Unregister removes a descriptor of either kind if present.
func (r *Registry) Unregister(id string) {
	delete(r.params, id)
	delete(r.colors, id)
}

// Lookup returns the numeric descriptor for id, or nil.
func (r *Registry) Lookup(id string) *Descriptor {
	return r.params[id]
}

// LookupColor returns the color descriptor for id, or nil.
func (r *Registry) LookupColor(id string) *ColorDescriptor {
	return r.colors[id]
}

// IDs returns all registered parameter ids of both kinds, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.params)+len(r.colors))
	for id := range r.params {
		ids = append(ids, id)
	}
	for id := range r.colors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
