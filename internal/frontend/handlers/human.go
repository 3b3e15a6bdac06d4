package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/pantheon/internal/frontend/telnet"
	"github.com/cory-johannsen/pantheon/internal/game/combat"
	"github.com/cory-johannsen/pantheon/internal/game/god"
)

// ErrForfeit is returned when the player types "quit" at a choice prompt.
var ErrForfeit = errors.New("player forfeited")

// LineConn is the part of a telnet connection a HumanChooser needs.
type LineConn interface {
	ReadLine(ctx context.Context) (string, error)
	WriteLine(text string) error
	WritePrompt(prompt string) error
}

// HumanChooser asks a connected player to pick from a numbered list.
type HumanChooser struct {
	conn LineConn
}

// NewHumanChooser wraps conn.
//
// Precondition: conn must be non-nil.
func NewHumanChooser(conn LineConn) *HumanChooser {
	return &HumanChooser{conn: conn}
}

// Choose implements combat.Chooser. It re-prompts until the player enters a
// valid number, and returns ctx.Err() when the choice deadline passes.
func (h *HumanChooser) Choose(ctx context.Context, req combat.ChoiceRequest) (*god.Character, error) {
	if err := h.conn.WriteLine(RenderChoice(req)); err != nil {
		return nil, err
	}
	for {
		if err := h.conn.WritePrompt(telnet.Colorize(telnet.Bold, "> ")); err != nil {
			return nil, err
		}
		line, err := h.conn.ReadLine(ctx)
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "quit") {
			return nil, ErrForfeit
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(req.Candidates) {
			msg := fmt.Sprintf("Enter a number from 1 to %d, or quit.", len(req.Candidates))
			if werr := h.conn.WriteLine(telnet.Colorize(telnet.Red, msg)); werr != nil {
				return nil, werr
			}
			continue
		}
		return req.Candidates[n-1], nil
	}
}
