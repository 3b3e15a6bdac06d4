// Package god defines the combatants ("gods"), their immutable templates and
// the per-match character state, including the damage pipeline.
package god

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/pantheon/internal/game/effect"
)

// Kind identifies one of the twenty fixed god kinds. Values are stable ids
// used in snapshots. The zero value (KindUnknown) is intentionally invalid.
type Kind int

const (
	KindUnknown Kind = iota
	Athena
	Hera
	Heimdall
	Ares
	Atlas
	Odin
	Loki
	Thor
	Skadi
	Aphrodite
	Hades
	Osiris
	Surtr
	Apollo
	Anubis
	Hermes
	Hecate
	Artemis
	Nyx
	Poseidon
)

// KindCount is the number of valid kinds.
const KindCount = int(Poseidon)

var kindNames = [...]string{
	KindUnknown: "unknown",
	Athena:      "athena",
	Hera:        "hera",
	Heimdall:    "heimdall",
	Ares:        "ares",
	Atlas:       "atlas",
	Odin:        "odin",
	Loki:        "loki",
	Thor:        "thor",
	Skadi:       "skadi",
	Aphrodite:   "aphrodite",
	Hades:       "hades",
	Osiris:      "osiris",
	Surtr:       "surtr",
	Apollo:      "apollo",
	Anubis:      "anubis",
	Hermes:      "hermes",
	Hecate:      "hecate",
	Artemis:     "artemis",
	Nyx:         "nyx",
	Poseidon:    "poseidon",
}

// Kinds returns every valid kind in id order.
func Kinds() []Kind {
	out := make([]Kind, 0, KindCount)
	for k := Athena; k <= Poseidon; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is one of the twenty kinds.
func (k Kind) Valid() bool {
	return k >= Athena && k <= Poseidon
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// ParseKind maps a name (case-insensitive) to its Kind.
//
// Postcondition: Returns a valid Kind or an error naming the input.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, k := range Kinds() {
		if kindNames[k] == n {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown god kind %q", name)
}

// OptsOutOfStandardDamage reports whether the kind deals damage only through
// its ability.
func (k Kind) OptsOutOfStandardDamage() bool { return k == Loki }

// HasRevealPassive reports whether the kind re-invokes its ability on an ally
// that has just been revealed.
func (k Kind) HasRevealPassive() bool {
	switch k {
	case Athena, Hera, Heimdall, Ares:
		return true
	}
	return false
}

// IsForcedTarget reports whether the kind, while alive and visible, must
// absorb every incoming attack on its side.
func (k Kind) IsForcedTarget() bool { return k == Atlas }

// IsChainEnabler reports whether the kind can chain two allies' abilities.
func (k Kind) IsChainEnabler() bool { return k == Odin }

// HasDeathPassive reports whether the kind triggers an ability on death.
func (k Kind) HasDeathPassive() bool { return k == Surtr }

// TeamGrants returns the effect kinds this god grants to its team. Those
// instances vanish from the whole team when the granter dies.
func (k Kind) TeamGrants() []effect.Kind {
	switch k {
	case Athena:
		return []effect.Kind{effect.Shield}
	case Hera:
		return []effect.Kind{effect.MaxHPBoost}
	case Heimdall:
		return []effect.Kind{effect.Guard}
	case Ares:
		return []effect.Kind{effect.DamageBoost}
	}
	return nil
}
