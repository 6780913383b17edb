// Package replay derives table state for any point in a parsed hand and
// steps a cursor through the hand's actions.
package replay

import (
	"fmt"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

// Cursor addresses a point in a hand. Index -1 is the neutral position
// before any non-post action of Street.
type Cursor struct {
	Street parser.Street
	Index  int
}

// Neutral returns the neutral cursor of st.
func Neutral(st parser.Street) Cursor {
	return Cursor{Street: st, Index: -1}
}

// Start is the fully rewound cursor.
var Start = Neutral(parser.StreetPreflop)

// IsNeutral reports whether c sits before every action of its street.
func (c Cursor) IsNeutral() bool { return c.Index < 0 }

// Key is the memo key "street:index".
func (c Cursor) Key() string {
	return fmt.Sprintf("%s:%d", c.Street, c.Index)
}

func (c Cursor) String() string { return c.Key() }

// Before reports whether c comes strictly before o in replay order.
func (c Cursor) Before(o Cursor) bool {
	if c.Street != o.Street {
		return c.Street < o.Street
	}
	return c.Index < o.Index
}

// Snapshot is the derived table state at a cursor.
type Snapshot struct {
	Pot int
	// VisibleBets holds chips in front of each player on the cursor's street.
	VisibleBets map[string]int
	Folded      map[string]struct{}
	// Invested is cumulative per-player investment across streets, seeded
	// with the blinds. Antes are not included.
	Invested map[string]int
	Blinds   map[string]int
}

// IsFolded reports whether name has folded at or before the cursor.
func (s Snapshot) IsFolded(name string) bool {
	_, ok := s.Folded[name]
	return ok
}

// Blinds locates the preflop small- and big-blind posts. The small blind is
// a post equal to the header small blind or exactly half the big blind.
func Blinds(h *parser.Hand) map[string]int {
	out := make(map[string]int)
	if h == nil || h.BigBlind <= 0 {
		return out
	}
	var sb, bb *parser.Action
	for i, a := range h.Actions[parser.StreetPreflop] {
		if a.Type != parser.ActionPosts || a.Ante {
			continue
		}
		act := &h.Actions[parser.StreetPreflop][i]
		if sb == nil && (a.Amount*2 == h.BigBlind || (h.SmallBlind > 0 && a.Amount == h.SmallBlind)) {
			sb = act
			continue
		}
		if bb == nil && a.Amount == h.BigBlind {
			bb = act
		}
	}
	if sb != nil {
		out[sb.Player] += sb.Amount
	}
	if bb != nil {
		out[bb.Player] += bb.Amount
	}
	return out
}

// Compute derives the snapshot at c. A cursor on the showdown street
// processes every betting street in full and shows no bets.
func Compute(h *parser.Hand, c Cursor) Snapshot {
	snap := Snapshot{
		VisibleBets: make(map[string]int),
		Folded:      make(map[string]struct{}),
		Invested:    make(map[string]int),
	}
	if h == nil {
		snap.Blinds = make(map[string]int)
		return snap
	}

	snap.Blinds = Blinds(h)
	snap.Pot = h.AnteTotal
	for name, amt := range snap.Blinds {
		snap.Pot += amt
		snap.Invested[name] += amt
	}

	for _, st := range parser.BettingStreets {
		if st > c.Street {
			break
		}
		target := st == c.Street
		streetInv := make(map[string]int)
		if st == parser.StreetPreflop {
			for name, amt := range snap.Blinds {
				streetInv[name] = amt
			}
			if target {
				for name, amt := range snap.Blinds {
					snap.VisibleBets[name] = amt
				}
			}
		}

		actions := h.Actions[st]
		last := len(actions) - 1
		if target {
			last = min(c.Index, last)
		}
		for i := 0; i <= last; i++ {
			a := actions[i]
			switch a.Type {
			case parser.ActionFolds:
				snap.Folded[a.Player] = struct{}{}
			case parser.ActionBets, parser.ActionCalls:
				snap.Pot += a.Amount
				snap.Invested[a.Player] += a.Amount
				streetInv[a.Player] += a.Amount
				if target {
					snap.VisibleBets[a.Player] += a.Amount
				}
			case parser.ActionRaises:
				inc := max(0, a.Amount-streetInv[a.Player])
				snap.Pot += inc
				snap.Invested[a.Player] += inc
				streetInv[a.Player] = a.Amount
				if target {
					snap.VisibleBets[a.Player] = a.Amount
				}
			}
		}
	}
	return snap
}

// ActivePlayers returns the seat-ordered players that have not folded.
func (s Snapshot) ActivePlayers(h *parser.Hand) []*parser.Player {
	var out []*parser.Player
	for _, p := range h.SortedPlayers() {
		if !s.IsFolded(p.Name) {
			out = append(out, p)
		}
	}
	return out
}
