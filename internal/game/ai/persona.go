// Package ai implements the bot decision engine: personas (weight vectors),
// per-kind ability heuristics, and the Bot chooser that picks attackers,
// targets and chain allies without ever blocking.
package ai

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Factor is one dimension of a persona's weight vector.
type Factor string

const (
	FactorHP      Factor = "hp"
	FactorDamage  Factor = "damage"
	FactorReload  Factor = "reload"
	FactorAbility Factor = "ability"
)

func (f Factor) valid() bool {
	switch f {
	case FactorHP, FactorDamage, FactorReload, FactorAbility:
		return true
	}
	return false
}

// Persona is a named weight table that drives bot scoring. Negative weights
// express "pick worst" or "prefer not ready" preferences.
type Persona struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Random      bool               `yaml:"random"`
	Weights     map[Factor]float64 `yaml:"weights"`
	// ScriptHook names a global Lua function (kind, role, score) -> number
	// that may adjust a candidate's score. Empty disables it.
	ScriptHook string `yaml:"script_hook"`
}

// Weight returns the weight for f, or 0 when unset.
func (p *Persona) Weight(f Factor) float64 {
	return p.Weights[f]
}

// Unweighted reports whether the persona picks uniformly at random.
func (p *Persona) Unweighted() bool {
	if p.Random {
		return true
	}
	for _, w := range p.Weights {
		if w != 0 {
			return false
		}
	}
	return true
}

// Validate checks the persona's invariants.
//
// Precondition: p must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty and every weight
// names a known factor.
func (p *Persona) Validate() error {
	if p.ID == "" {
		return errors.New("persona: id must not be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("persona %q: name must not be empty", p.ID)
	}
	for f := range p.Weights {
		if !f.valid() {
			return fmt.Errorf("persona %q: unknown weight factor %q", p.ID, f)
		}
	}
	return nil
}

// LoadPersonaFromBytes parses and validates one persona. Unknown YAML fields
// are rejected.
func LoadPersonaFromBytes(data []byte) (*Persona, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var p Persona
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing persona YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPersonas reads every *.yaml file in dir of fsys into a Registry.
//
// Postcondition: Returns the populated registry or the first load error.
func LoadPersonas(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading persona dir %q: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	reg := NewRegistry()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		persona, err := LoadPersonaFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", p, err)
		}
		if err := reg.Register(persona); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
