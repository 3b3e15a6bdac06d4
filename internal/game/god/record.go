package god

import (
	"fmt"

	"github.com/cory-johannsen/pantheon/internal/game/effect"
)

// EffectRecord is the serialized form of one effect instance.
type EffectRecord struct {
	KindID    int `json:"kind_id"`
	Magnitude int `json:"magnitude"`
	Duration  int `json:"duration"`
}

// Record is the deterministic serialized form of one Character. Together with
// the catalog it is sufficient to rebuild identical behavior.
type Record struct {
	KindID  int            `json:"kind_id"`
	HP      int            `json:"hp"`
	MaxHP   int            `json:"max_hp"`
	Damage  int            `json:"damage"`
	Visible bool           `json:"visible"`
	Alive   bool           `json:"alive"`
	Reload  int            `json:"reload"`
	Effects []EffectRecord `json:"effects"`
}

// Snapshot serializes the character. Effects are listed in kind id order,
// then insertion order, so equal states produce equal records.
func (c *Character) Snapshot() Record {
	rec := Record{
		KindID:  int(c.Kind),
		HP:      c.HP,
		MaxHP:   c.MaxHP,
		Damage:  c.Damage,
		Visible: c.Visible,
		Alive:   c.Alive,
		Reload:  c.Reload,
		Effects: []EffectRecord{},
	}
	for _, in := range c.Effects.All() {
		rec.Effects = append(rec.Effects, EffectRecord{KindID: int(in.Kind), Magnitude: in.Magnitude, Duration: in.Duration})
	}
	return rec
}

// Restore rebuilds a character from rec. Name and cooldown come from the
// catalog template for rec.KindID.
//
// Precondition: rec must have been produced by Snapshot or follow its rules.
// Postcondition: Returns an error if the kind or any effect kind is unknown,
// an effect duration is <= 0, MaxHP < 1, Reload < 0, or HP lies outside
// [0, EffectiveMaxHP].
func (c *Catalog) Restore(rec Record) (*Character, error) {
	kind := Kind(rec.KindID)
	t, ok := c.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("Restore: unknown kind id %d", rec.KindID)
	}
	if rec.MaxHP < 1 {
		return nil, fmt.Errorf("Restore %s: max_hp must be >= 1, got %d", kind, rec.MaxHP)
	}
	if rec.Reload < 0 {
		return nil, fmt.Errorf("Restore %s: reload must be >= 0, got %d", kind, rec.Reload)
	}
	ch := newCharacter(kind, t.Name, rec.MaxHP, rec.Damage)
	ch.Cooldown = t.Cooldown
	ch.Visible = rec.Visible
	ch.Alive = rec.Alive
	ch.Reload = rec.Reload
	for _, er := range rec.Effects {
		if err := ch.Effects.Add(effect.Kind(er.KindID), er.Magnitude, er.Duration); err != nil {
			return nil, fmt.Errorf("Restore %s: %w", kind, err)
		}
	}
	if rec.HP < 0 || rec.HP > ch.EffectiveMaxHP() {
		return nil, fmt.Errorf("Restore %s: hp %d outside [0, %d]", kind, rec.HP, ch.EffectiveMaxHP())
	}
	ch.HP = rec.HP
	return ch, nil
}
