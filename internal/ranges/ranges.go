// Package ranges maps a hand situation onto a pre-rendered open-raise range
// chart: a position label plus an effective stack depth in big blinds.
package ranges

import (
	"errors"
	"math"
	"strings"

	"github.com/AkatukiSora/hhreplay/internal/parser"
	"github.com/AkatukiSora/hhreplay/internal/replay"
)

// Depths are the stack depths charts exist for, in big blinds.
var Depths = []int{15, 20, 25, 30, 40, 50, 60, 80, 100}

// ErrNoContext is returned when a hand has no situation a chart covers.
var ErrNoContext = errors.New("ranges: no chart context")

// Positions that have open-raise charts.
var chartPositions = map[string]bool{
	"UTG": true, "LJ": true, "HJ": true, "CO": true, "BTN": true, "SB": true,
}

var positionAliases = map[string]string{
	"MP":    "LJ",
	"UTG+1": "LJ",
	"EP":    "UTG",
	"UTG2":  "LJ",
	"UTG3":  "HJ",
}

// Context is the chart lookup key derived from a hand.
type Context struct {
	Player      string
	Position    string
	EffectiveBB int
}

// Depth returns the nearest chart depth for the context.
func (c Context) Depth() int { return NearestDepth(c.EffectiveBB) }

// NearestDepth snaps bb to the closest entry of Depths. Ties go to the
// deeper chart.
func NearestDepth(bb int) int {
	best := Depths[0]
	bestD := abs(best - bb)
	for _, d := range Depths[1:] {
		dist := abs(d - bb)
		if dist < bestD || (dist == bestD && d > best) {
			best, bestD = d, dist
		}
	}
	return best
}

// MapPosition normalises a position label to a chart position. BB and
// unknown labels have no chart.
func MapPosition(raw string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(raw))
	if alias, ok := positionAliases[up]; ok {
		up = alias
	}
	if !chartPositions[up] {
		return "", false
	}
	return up, true
}

// FromOpenRaise derives the context of the first preflop raiser. The
// effective stack is the smaller of the opener's stack and the shortest
// stack at the table, rounded to whole big blinds. Limps before the raise
// do not disqualify the opener.
func FromOpenRaise(h *parser.Hand) (Context, error) {
	if h == nil || len(h.Players) == 0 {
		return Context{}, ErrNoContext
	}
	var opener *parser.Player
	for _, a := range h.StreetActions(parser.StreetPreflop) {
		if a.Type == parser.ActionRaises {
			opener = h.Players[a.Player]
			break
		}
	}
	if opener == nil {
		return Context{}, ErrNoContext
	}
	pos, ok := MapPosition(opener.Position.String())
	if !ok {
		return Context{}, ErrNoContext
	}

	tableMin := opener.Stack
	for _, p := range h.Players {
		if p.Stack >= 0 && p.Stack < tableMin {
			tableMin = p.Stack
		}
	}
	bb := max(1, h.BigBlind)
	eff := int(math.Round(float64(min(opener.Stack, tableMin)) / float64(bb)))
	return Context{Player: opener.Name, Position: pos, EffectiveBB: eff}, nil
}

// FromNextToAct derives the context of the player whose turn it is at c.
// Only preflop cursors qualify. The effective stack is the smaller of that
// player's stack and the largest stack still in the hand, floored to whole
// big blinds.
func FromNextToAct(h *parser.Hand, c replay.Cursor) (Context, error) {
	if h == nil || c.Street != parser.StreetPreflop || !h.HasBigBlind() {
		return Context{}, ErrNoContext
	}
	next, ok := replay.NextToAct(h, c)
	if !ok {
		return Context{}, ErrNoContext
	}
	player := h.Players[next.Player]
	if player == nil {
		return Context{}, ErrNoContext
	}
	pos, ok := MapPosition(player.Position.String())
	if !ok {
		return Context{}, ErrNoContext
	}

	snap := replay.Compute(h, c)
	eff := player.Stack / h.BigBlind
	largest := -1
	for _, p := range h.Players {
		if p.Name == player.Name || snap.IsFolded(p.Name) {
			continue
		}
		largest = max(largest, p.Stack/h.BigBlind)
	}
	if largest >= 0 {
		eff = min(eff, largest)
	}
	return Context{Player: player.Name, Position: pos, EffectiveBB: eff}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
