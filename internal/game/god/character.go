package god

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/pantheon/internal/game/effect"
)

// Character is the per-match state of one god. Fields are exported for
// reading; mutation goes through methods so that 0 <= HP <= EffectiveMaxHP
// always holds. A Character belongs to exactly one team of one match.
type Character struct {
	Kind     Kind
	Name     string
	HP       int
	MaxHP    int
	Damage   int
	Cooldown int
	Alive    bool
	Visible  bool
	Reload   int
	Effects  *effect.Store
}

func newCharacter(kind Kind, name string, maxHP, damage int) *Character {
	return &Character{
		Kind:    kind,
		Name:    name,
		HP:      maxHP,
		MaxHP:   maxHP,
		Damage:  damage,
		Alive:   true,
		Effects: effect.NewStore(),
	}
}

// DamageReport describes one pass through the incoming damage pipeline.
type DamageReport struct {
	// Incoming is the amount handed to the pipeline.
	Incoming int
	// Amplified is Incoming plus every Vulnerability magnitude.
	Amplified int
	// Absorbed is the total consumed by shields.
	Absorbed int
	// Overflow is what remained after shields.
	Overflow int
	// HPLost is the hit points actually removed (Overflow clamped by HP).
	HPLost int
}

// String renders the report for narrative output.
func (r DamageReport) String() string {
	return fmt.Sprintf("%d incoming (%d amplified), %d absorbed, %d hp lost", r.Incoming, r.Amplified, r.Absorbed, r.HPLost)
}

// EffectiveMaxHP returns MaxHP plus every MaxHPBoost magnitude.
func (c *Character) EffectiveMaxHP() int {
	return c.MaxHP + c.Effects.Sum(effect.MaxHPBoost)
}

// PreviewDamage returns the outgoing damage without revealing the character.
//
// Postcondition: result >= 0.
func (c *Character) PreviewDamage() int {
	d := c.Damage + c.Effects.Sum(effect.DamageBoost) - c.Effects.Sum(effect.DamageReduction)
	if d < 0 {
		return 0
	}
	return d
}

// OutgoingDamage returns base damage plus boosts minus reductions, clamped at
// zero. Attacking always reveals, so the character becomes visible.
//
// Postcondition: c.Visible is true; result >= 0.
func (c *Character) OutgoingDamage() int {
	c.Visible = true
	return c.PreviewDamage()
}

// ApplyIncomingDamage runs amount through amplification, shield absorption
// and hit point loss. Death is never flagged here; that happens in cleanup.
//
// Postcondition: amount <= 0 is a no-op returning a zero report;
// otherwise 0 <= HP and report.Absorbed + report.Overflow == report.Amplified.
func (c *Character) ApplyIncomingDamage(amount int) DamageReport {
	if amount <= 0 {
		return DamageReport{}
	}
	r := DamageReport{Incoming: amount}
	r.Amplified = amount + c.Effects.Sum(effect.Vulnerability)
	r.Absorbed, r.Overflow = c.Effects.Absorb(r.Amplified)
	r.HPLost = c.LoseHP(r.Overflow)
	return r
}

// LoseHP removes n hit points directly, bypassing the pipeline.
//
// Postcondition: HP >= 0; returns the hit points actually removed.
func (c *Character) LoseHP(n int) int {
	if n <= 0 {
		return 0
	}
	if n > c.HP {
		n = c.HP
	}
	c.HP -= n
	return n
}

// SetHP assigns hp, clamped to [0, EffectiveMaxHP].
func (c *Character) SetHP(hp int) {
	c.HP = hp
	c.clampHP()
}

// Heal restores up to n hit points.
//
// Postcondition: HP <= EffectiveMaxHP; returns the amount restored.
func (c *Character) Heal(n int) int {
	if n <= 0 {
		return 0
	}
	before := c.HP
	c.HP += n
	c.clampHP()
	return c.HP - before
}

// MissingHP returns EffectiveMaxHP - HP.
func (c *Character) MissingHP() int {
	return c.EffectiveMaxHP() - c.HP
}

// AddEffect stacks a new effect instance on the character.
func (c *Character) AddEffect(kind effect.Kind, magnitude, duration int) error {
	if err := c.Effects.Add(kind, magnitude, duration); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// RemoveEffects drops every instance of kind and re-clamps HP.
func (c *Character) RemoveEffects(kind effect.Kind) int {
	n := c.Effects.RemoveKind(kind)
	c.clampHP()
	return n
}

// TickEffects advances every effect by one turn and re-clamps HP, since an
// expiring MaxHPBoost lowers the ceiling.
func (c *Character) TickEffects() []effect.Kind {
	expired := c.Effects.Tick()
	c.clampHP()
	return expired
}

// TickReload decrements Reload by one (floor 0) unless the character is frozen.
func (c *Character) TickReload() {
	if c.Frozen() {
		return
	}
	if c.Reload > 0 {
		c.Reload--
	}
}

// Ready reports whether the ability is off cooldown.
func (c *Character) Ready() bool { return c.Reload == 0 }

// Stunned reports whether a Stun is active.
func (c *Character) Stunned() bool { return c.Effects.Has(effect.Stun) }

// Frozen reports whether a Freeze is active.
func (c *Character) Frozen() bool { return c.Effects.Has(effect.Freeze) }

// Charmed reports whether a Charm is active.
func (c *Character) Charmed() bool { return c.Effects.Has(effect.Charm) }

// Targetable reports whether the character is alive and visible.
func (c *Character) Targetable() bool { return c.Alive && c.Visible }

// Dying reports whether the character is still flagged alive but has no hit
// points left, i.e. awaits cleanup.
func (c *Character) Dying() bool { return c.Alive && c.HP <= 0 }

// Reveal makes the character visible.
//
// Postcondition: returns true iff the character was hidden before the call.
func (c *Character) Reveal() bool {
	if c.Visible {
		return false
	}
	c.Visible = true
	return true
}

// Hide makes the character invisible.
func (c *Character) Hide() { c.Visible = false }

// MarkDead finalizes death. Remaining state is kept for display and revival.
//
// Postcondition: Alive is false and HP is 0.
func (c *Character) MarkDead() {
	c.Alive = false
	c.HP = 0
}

// Revive brings a dead character back hidden, with no effects and a ready ability.
//
// Precondition: hp >= 1.
// Postcondition: Alive is true; 1 <= HP <= MaxHP; Visible false; Reload 0.
func (c *Character) Revive(hp int) {
	c.Effects.Clear()
	c.Alive = true
	c.Visible = false
	c.Reload = 0
	if hp < 1 {
		hp = 1
	}
	c.SetHP(hp)
}

// Clone returns a deep copy of the character.
func (c *Character) Clone() *Character {
	cp := *c
	cp.Effects = c.Effects.Clone()
	return &cp
}

func (c *Character) clampHP() {
	if ceiling := c.EffectiveMaxHP(); c.HP > ceiling {
		c.HP = ceiling
	}
	if c.HP < 0 {
		c.HP = 0
	}
}

// New builds a standalone character outside any catalog, full health and
// hidden. Used by tools and tests that need explicit stats.
//
// Precondition: kind must be valid; maxHP >= 1.
func New(kind Kind, maxHP, damage, cooldown int) *Character {
	ch := newCharacter(kind, displayName(kind), maxHP, damage)
	ch.Cooldown = cooldown
	return ch
}

func displayName(kind Kind) string {
	n := kind.String()
	return strings.ToUpper(n[:1]) + n[1:]
}
