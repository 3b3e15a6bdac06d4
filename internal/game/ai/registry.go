package ai

import (
	"fmt"
	"sort"
)

// Registry indexes Personas by ID.
//
// Invariant: each persona ID is registered at most once.
type Registry struct {
	personas map[string]*Persona
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{personas: make(map[string]*Persona)}
}

// Register stores p.
//
// Precondition: p must not be nil and must have passed Validate.
// Postcondition: returns error on persona ID collision.
func (r *Registry) Register(p *Persona) error {
	if _, exists := r.personas[p.ID]; exists {
		return fmt.Errorf("ai.Registry: persona %q already registered", p.ID)
	}
	r.personas[p.ID] = p
	return nil
}

// Get returns the persona for id, or false if not registered.
func (r *Registry) Get(id string) (*Persona, bool) {
	p, ok := r.personas[id]
	return p, ok
}

// IDs returns every registered persona id in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.personas))
	for id := range r.personas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
