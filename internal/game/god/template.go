package god

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

// Template is the immutable stat block for one god kind, loaded from YAML.
type Template struct {
	Kind        string `yaml:"kind"`
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MaxHP       int    `yaml:"max_hp"`
	Damage      int    `yaml:"damage"`
	Cooldown    int    `yaml:"cooldown"`
}

// Validate checks the template's invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff kind names a known god whose id matches, Name
// is non-empty, MaxHP >= 1, Damage >= 0 and Cooldown >= 0.
func (t *Template) Validate() error {
	k, err := ParseKind(t.Kind)
	if err != nil {
		return fmt.Errorf("god template: %w", err)
	}
	if int(k) != t.ID {
		return fmt.Errorf("god template %q: id %d does not match kind id %d", t.Kind, t.ID, int(k))
	}
	if t.Name == "" {
		return fmt.Errorf("god template %q: name must not be empty", t.Kind)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("god template %q: max_hp must be >= 1", t.Kind)
	}
	if t.Damage < 0 {
		return fmt.Errorf("god template %q: damage must be >= 0", t.Kind)
	}
	if t.Cooldown < 0 {
		return fmt.Errorf("god template %q: cooldown must be >= 0", t.Kind)
	}
	return nil
}

// KindValue returns the parsed Kind. Only meaningful after Validate succeeds.
func (t *Template) KindValue() Kind {
	k, _ := ParseKind(t.Kind)
	return k
}

// LoadTemplateFromBytes parses and validates one template. Unknown YAML
// fields are rejected.
//
// Postcondition: Returns a validated *Template or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var tmpl Template
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing god template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// ErrIncompleteCatalog is returned when a catalog does not define all twenty kinds.
var ErrIncompleteCatalog = errors.New("god catalog is incomplete")

// Catalog is the immutable set of templates, one per kind. It is safe for
// concurrent use because nothing mutates it after construction.
type Catalog struct {
	byKind map[Kind]*Template
}

// NewCatalog builds a catalog from already validated templates.
//
// Precondition: each template must have passed Validate.
// Postcondition: Returns an error on a duplicate kind, or ErrIncompleteCatalog
// when fewer than all twenty kinds are present.
func NewCatalog(templates []*Template) (*Catalog, error) {
	c := &Catalog{byKind: make(map[Kind]*Template, KindCount)}
	for _, t := range templates {
		k := t.KindValue()
		if _, dup := c.byKind[k]; dup {
			return nil, fmt.Errorf("god catalog: duplicate kind %q", t.Kind)
		}
		cp := *t
		c.byKind[k] = &cp
	}
	var missing []string
	for _, k := range Kinds() {
		if _, ok := c.byKind[k]; !ok {
			missing = append(missing, k.String())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteCatalog, strings.Join(missing, ", "))
	}
	return c, nil
}

// LoadCatalog reads every *.yaml file in dir of fsys and builds a Catalog.
// Files are read in name order so error messages are stable.
//
// Precondition: fsys must not be nil.
// Postcondition: Returns a complete catalog or the first load error.
func LoadCatalog(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading god dir %q: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", p, err)
		}
		templates = append(templates, tmpl)
	}
	return NewCatalog(templates)
}

// Template returns a copy of the template for kind.
func (c *Catalog) Template(kind Kind) (Template, bool) {
	t, ok := c.byKind[kind]
	if !ok {
		return Template{}, false
	}
	return *t, true
}

// NewCharacter creates a fresh, full-health, hidden character for kind.
// The character shares no state with the catalog or other characters.
//
// Precondition: kind must be valid.
// Postcondition: Returns a character with HP == MaxHP, Alive true, Visible
// false, Reload 0 and an empty effect store.
func (c *Catalog) NewCharacter(kind Kind) (*Character, error) {
	t, ok := c.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("NewCharacter: unknown kind %d", int(kind))
	}
	ch := newCharacter(kind, t.Name, t.MaxHP, t.Damage)
	ch.Cooldown = t.Cooldown
	return ch, nil
}
