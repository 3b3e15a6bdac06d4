// Package effect implements the timed modifiers ("effects") attached to a
// combatant and the store that tracks every active instance.
package effect

import "fmt"

// Kind identifies one effect type. Values are stable ids used in snapshots.
// The zero value (KindUnknown) is intentionally invalid.
type Kind int

const (
	KindUnknown Kind = iota
	Shield
	Guard
	Ward
	DamageBoost
	DamageReduction
	Vulnerability
	Stun
	Freeze
	Charm
	MaxHPBoost
	DelayedProtection
)

// Permanent is the duration used for effects that should outlast any match.
// It still ticks, so every active instance keeps a positive duration.
const Permanent = 1 << 30

// AbsorptionOrder lists the shield kinds in the order incoming damage is
// absorbed: Shield first, then Guard, then Ward.
var AbsorptionOrder = [...]Kind{Shield, Guard, Ward}

var kindNames = map[Kind]string{
	Shield:            "shield",
	Guard:             "guard",
	Ward:              "ward",
	DamageBoost:       "damage_boost",
	DamageReduction:   "damage_reduction",
	Vulnerability:     "vulnerability",
	Stun:              "stun",
	Freeze:            "freeze",
	Charm:             "charm",
	MaxHPBoost:        "max_hp_boost",
	DelayedProtection: "delayed_protection",
}

// Kinds returns every valid effect kind in id order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := Shield; k <= DelayedProtection; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	return k >= Shield && k <= DelayedProtection
}

// IsShield reports whether k absorbs incoming damage.
func (k Kind) IsShield() bool {
	for _, s := range AbsorptionOrder {
		if s == k {
			return true
		}
	}
	return false
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind maps a snake_case name back to its Kind.
//
// Postcondition: Returns a valid Kind or an error naming the input.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown effect kind %q", name)
}

// Instance is one active application of an effect.
//
// Invariant: Duration > 0 while the instance is held by a Store.
type Instance struct {
	Kind      Kind
	Magnitude int
	Duration  int
}
