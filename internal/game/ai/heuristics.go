package ai

import (
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// Situation counts the rosters around a candidate, from the candidate's own
// side's perspective.
type Situation struct {
	VisibleAllies  int
	LiveAllies     int
	DeadAllies     int
	VisibleEnemies int
	LiveEnemies    int
}

// NewSituation counts allies and enemies.
func NewSituation(allies, enemies []*god.Character) Situation {
	var s Situation
	for _, c := range allies {
		switch {
		case !c.Alive:
			s.DeadAllies++
		case c.Visible:
			s.VisibleAllies++
			s.LiveAllies++
		default:
			s.LiveAllies++
		}
	}
	for _, c := range enemies {
		if !c.Alive {
			continue
		}
		s.LiveEnemies++
		if c.Visible {
			s.VisibleEnemies++
		}
	}
	return s
}

type heuristic func(c *god.Character, s Situation) float64

var heuristics = [god.KindCount + 1]heuristic{
	god.Athena:   func(_ *god.Character, s Situation) float64 { return float64(s.VisibleAllies)*1.5 - 1 },
	god.Hera:     func(_ *god.Character, s Situation) float64 { return float64(s.VisibleAllies) },
	god.Heimdall: func(_ *god.Character, s Situation) float64 { return float64(s.VisibleAllies) },
	god.Ares:     func(_ *god.Character, s Situation) float64 { return float64(s.VisibleAllies) * 1.2 },
	god.Atlas: func(c *god.Character, _ Situation) float64 {
		if c.HP*2 < c.MaxHP {
			return 2
		}
		return 1
	},
	god.Odin: func(_ *god.Character, s Situation) float64 {
		return float64(min(s.VisibleAllies-1, 2)) * 1.5
	},
	god.Loki: func(*god.Character, Situation) float64 { return 3 },
	god.Thor: func(c *god.Character, s Situation) float64 {
		v := 0.0
		if s.VisibleEnemies > 0 {
			v = 2.5
		}
		if c.HP <= 2 {
			v--
		}
		return v
	},
	god.Skadi:     func(_ *god.Character, s Situation) float64 { return float64(s.LiveEnemies) * 0.5 },
	god.Aphrodite: func(_ *god.Character, s Situation) float64 { return float64(s.VisibleEnemies) * 0.5 },
	god.Hades: func(c *god.Character, _ Situation) float64 {
		if c.HP <= 3 {
			return -2.5
		}
		return 2.5
	},
	god.Osiris: func(_ *god.Character, s Situation) float64 { return float64(s.DeadAllies) * 3 },
	god.Surtr: func(c *god.Character, s Situation) float64 {
		if c.HP <= 2 {
			return 1 + float64(s.LiveEnemies)
		}
		return 1
	},
	god.Apollo:  func(_ *god.Character, s Situation) float64 { return float64(s.LiveAllies) * 0.8 },
	god.Anubis:  func(_ *god.Character, s Situation) float64 { return float64(s.VisibleAllies - 1) },
	god.Hermes:  func(_ *god.Character, s Situation) float64 { return float64(s.LiveEnemies-s.VisibleEnemies) * 1.5 },
	god.Hecate:  func(_ *god.Character, s Situation) float64 { return float64(s.VisibleEnemies) * 0.7 },
	god.Artemis: func(*god.Character, Situation) float64 { return 1.5 },
	god.Nyx: func(_ *god.Character, s Situation) float64 {
		if s.VisibleAllies > 1 {
			return 2
		}
		return 1
	},
	god.Poseidon: func(_ *god.Character, s Situation) float64 { return float64(s.VisibleEnemies - 1) },
}

// Heuristic scores how useful c's ability is right now. An ability still on
// cooldown is worth nothing.
func Heuristic(c *god.Character, s Situation) float64 {
	if c.Reload > 0 || !c.Kind.Valid() {
		return 0
	}
	return heuristics[c.Kind](c, s)
}
