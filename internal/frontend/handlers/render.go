package handlers

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/pantheon/internal/frontend/telnet"
	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// RenderCharacter formats one roster line. Hidden enemies show only their
// slot, since the viewer has not seen them yet.
func RenderCharacter(c *god.Character, own bool) string {
	if !own && !c.Visible {
		return telnet.Colorize(telnet.Dim, "(hidden)")
	}
	if !c.Alive {
		return telnet.Colorf(telnet.Dim, "%s (fallen)", c.Name)
	}

	var b strings.Builder
	name := c.Name
	if !c.Visible {
		name += "*"
	}
	hpColor := telnet.Green
	if c.HP*3 <= c.EffectiveMaxHP() {
		hpColor = telnet.Red
	}
	fmt.Fprintf(&b, "%-10s %s  dmg %d", name,
		telnet.Colorf(hpColor, "hp %d/%d", c.HP, c.EffectiveMaxHP()), c.PreviewDamage())
	if c.Reload > 0 {
		fmt.Fprintf(&b, "  reload %d", c.Reload)
	} else {
		b.WriteString("  " + telnet.Colorize(telnet.Cyan, "ready"))
	}
	if c.Effects.Len() > 0 {
		tags := make([]string, 0, c.Effects.Len())
		for _, in := range c.Effects.All() {
			tags = append(tags, fmt.Sprintf("%s %d/%d", in.Kind, in.Magnitude, in.Duration))
		}
		b.WriteString("  " + telnet.Colorize(telnet.Yellow, "["+strings.Join(tags, ", ")+"]"))
	}
	return b.String()
}

// RenderBoard formats both rosters from viewer's perspective.
func RenderBoard(m *combat.Match, viewer combat.Side) string {
	var b strings.Builder
	_, turn, _, _ := m.Status()
	b.WriteString(telnet.Colorf(telnet.Bold, "Turn %d", turn+1))
	b.WriteString("\r\n")
	for _, side := range []combat.Side{viewer, viewer.Other()} {
		label := "Your squad"
		if side != viewer {
			label = "Enemy squad"
		}
		b.WriteString(telnet.Colorize(telnet.Blue, label+":"))
		b.WriteString("\r\n")
		for _, c := range m.Team(side).Members {
			b.WriteString("  " + RenderCharacter(c, side == viewer) + "\r\n")
		}
	}
	return b.String()
}

var rolePrompts = map[combat.Role]string{
	combat.RoleAttacker: "Choose your attacker",
	combat.RoleTarget:   "Choose a target",
	combat.RoleChain:    "Choose an ally to call on",
}

// RenderChoice formats a numbered candidate list for req.
func RenderChoice(req combat.ChoiceRequest) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.Bold, rolePrompts[req.Role]+":"))
	b.WriteString("\r\n")
	for i, c := range req.Candidates {
		fmt.Fprintf(&b, "  %d) %s\r\n", i+1, RenderCharacter(c, req.Role != combat.RoleTarget))
	}
	return b.String()
}

var eventColors = map[combat.EventType]string{
	combat.EventDeath:  telnet.BrightRed,
	combat.EventFault:  telnet.Red,
	combat.EventEnd:    telnet.Bold,
	combat.EventReveal: telnet.Cyan,
}

// RenderEvents formats a turn's narrative, one event per line.
func RenderEvents(events []combat.Event) string {
	var b strings.Builder
	for _, ev := range events {
		line := ev.Narrative
		if color, ok := eventColors[ev.Type]; ok {
			line = telnet.Colorize(color, line)
		}
		b.WriteString(line + "\r\n")
	}
	return b.String()
}

// RenderOutcome formats the end of a match for the player on side viewer.
func RenderOutcome(out combat.TurnOutcome, viewer combat.Side) string {
	switch out.Kind {
	case combat.Win:
		if out.Winner == viewer {
			return telnet.Colorize(telnet.BrightGreen, "Victory! The enemy squad has fallen.")
		}
		return telnet.Colorize(telnet.BrightRed, "Defeat. Your squad has fallen.")
	case combat.Draw:
		return telnet.Colorize(telnet.Yellow, "Draw. No god is left standing.")
	case combat.Abandoned:
		return telnet.Colorize(telnet.Yellow, "Match abandoned: a choice timed out.")
	}
	return ""
}
