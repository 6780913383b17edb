package replay

import (
	"github.com/AkatukiSora/hhreplay/internal/parser"
)

// AwardPhase tracks the end-of-hand payout display.
type AwardPhase int

const (
	AwardNone AwardPhase = iota
	// AwardShown puts the payouts in front of the winners.
	AwardShown
	// AwardApplied folds the payouts into the winners' stacks.
	AwardApplied
)

func (p AwardPhase) String() string {
	switch p {
	case AwardShown:
		return "show"
	case AwardApplied:
		return "applied"
	default:
		return "none"
	}
}

// State is the full replay position for one hand. It is a value; the step
// functions return a new State and never mutate their argument.
type State struct {
	Hand    *parser.Hand
	Cursor  Cursor
	Award   AwardPhase
	Payouts []parser.Payout
}

// NewState returns the fully rewound state for h.
func NewState(h *parser.Hand) State {
	return State{Hand: h, Cursor: Start}
}

// Snapshot computes the snapshot at the state's cursor.
func (s State) Snapshot() Snapshot {
	return Compute(s.Hand, s.Cursor)
}

// StepForward advances s by one visible step.
func StepForward(s State) State {
	return stepForward(s, func(c Cursor) Snapshot { return Compute(s.Hand, c) })
}

// StepBackward rewinds s by one visible step. It is the inverse of
// StepForward.
func StepBackward(s State) State {
	if s.Hand == nil {
		return s
	}
	switch s.Award {
	case AwardApplied:
		s.Award = AwardShown
		return s
	case AwardShown:
		s.Award = AwardNone
		s.Payouts = nil
	}

	c := s.Cursor
	if c.Street <= parser.StreetRiver && !c.IsNeutral() {
		actions := s.Hand.Actions[c.Street]
		if c.Index <= firstActionIndex(actions) {
			s.Cursor = Neutral(c.Street)
			return s
		}
		if i := prevActionIndex(actions, c.Index); i >= 0 {
			s.Cursor.Index = i
			return s
		}
	}

	for st := min(c.Street, parser.StreetShowdown) - 1; st >= parser.StreetPreflop; st-- {
		if i := prevActionIndex(s.Hand.Actions[st], len(s.Hand.Actions[st])); i >= 0 {
			s.Cursor = Cursor{Street: st, Index: i}
			return s
		}
	}
	s.Cursor = Start
	return s
}

func stepForward(s State, lookup func(Cursor) Snapshot) State {
	if s.Hand == nil {
		return s
	}
	switch s.Award {
	case AwardShown:
		s.Award = AwardApplied
		return s
	case AwardApplied:
		return s
	}

	c := s.Cursor
	if c.Street >= parser.StreetShowdown {
		return showAward(s, lookup(c))
	}

	if i := nextActionIndex(s.Hand.Actions[c.Street], c.Index); i >= 0 {
		s.Cursor.Index = i
		return s
	}

	s.Cursor = Neutral(c.Street + 1)
	if snap := lookup(s.Cursor); len(snap.ActivePlayers(s.Hand)) <= 1 {
		return showAward(s, snap)
	}
	return s
}

func showAward(s State, snap Snapshot) State {
	payouts := ResolveAward(s.Hand, snap)
	if len(payouts) == 0 {
		return s
	}
	s.Award = AwardShown
	s.Payouts = payouts
	return s
}

// HandEnded reports whether the cursor has reached showdown or at most one
// player remains unfolded.
func HandEnded(s State) bool {
	if s.Hand == nil {
		return false
	}
	if s.Cursor.Street >= parser.StreetShowdown {
		return true
	}
	return len(s.Snapshot().ActivePlayers(s.Hand)) <= 1
}

// Finished reports whether no further forward step changes s.
func Finished(s State) bool {
	return s.Hand == nil || s.Award == AwardApplied || StepForward(s).equal(s)
}

func (s State) equal(o State) bool {
	if s.Cursor != o.Cursor || s.Award != o.Award || len(s.Payouts) != len(o.Payouts) {
		return false
	}
	for i := range s.Payouts {
		if s.Payouts[i] != o.Payouts[i] {
			return false
		}
	}
	return true
}

// VisibleBets returns the chips shown in front of each player: the payouts
// while the award is shown, nothing once applied, otherwise the snapshot's
// street bets.
func VisibleBets(s State) map[string]int {
	switch s.Award {
	case AwardShown:
		out := make(map[string]int, len(s.Payouts))
		for _, p := range s.Payouts {
			out[p.Player] = p.Amount
		}
		return out
	case AwardApplied:
		return map[string]int{}
	}
	snap := s.Snapshot()
	out := make(map[string]int, len(snap.VisibleBets))
	for k, v := range snap.VisibleBets {
		out[k] = v
	}
	return out
}

// RemainingStack is name's stack at the cursor: starting stack minus ante
// and investment, plus the payout once applied. It never goes below zero.
func RemainingStack(s State, name string) int {
	if s.Hand == nil {
		return 0
	}
	p, ok := s.Hand.Players[name]
	if !ok {
		return 0
	}
	snap := s.Snapshot()
	rem := p.Stack - s.Hand.AnteFor(name) - snap.Invested[name]
	if s.Award == AwardApplied {
		for _, po := range s.Payouts {
			if po.Player == name {
				rem += po.Amount
			}
		}
	}
	return max(0, rem)
}

// ResolveAward decides who takes what at the end of the hand. Extracted
// winners come first; a single winner receives the whole pot and a split
// pot pays each winner their collected amount. Without winner data the last
// unfolded player takes the pot. It returns nil when neither applies.
func ResolveAward(h *parser.Hand, snap Snapshot) []parser.Payout {
	if h == nil {
		return nil
	}
	winners := parser.ExtractWinners(h)
	switch {
	case len(winners) == 1:
		return []parser.Payout{{Player: winners[0].Player, Amount: snap.Pot}}
	case len(winners) > 1:
		out := make([]parser.Payout, len(winners))
		for i, w := range winners {
			out[i] = parser.Payout{Player: w.Player, Amount: w.Amount}
		}
		return out
	}
	active := snap.ActivePlayers(h)
	if len(active) == 1 {
		return []parser.Payout{{Player: active[0].Name, Amount: snap.Pot}}
	}
	return nil
}

// NextToAct returns the next non-post action after c on its street.
func NextToAct(h *parser.Hand, c Cursor) (parser.Action, bool) {
	if h == nil || c.Street > parser.StreetRiver {
		return parser.Action{}, false
	}
	actions := h.Actions[c.Street]
	if i := nextActionIndex(actions, c.Index); i >= 0 {
		return actions[i], true
	}
	return parser.Action{}, false
}

func firstActionIndex(actions []parser.Action) int {
	return nextActionIndex(actions, -1)
}

func nextActionIndex(actions []parser.Action, from int) int {
	for i := from + 1; i < len(actions); i++ {
		if actions[i].Type != parser.ActionPosts {
			return i
		}
	}
	return -1
}

func prevActionIndex(actions []parser.Action, from int) int {
	for i := min(from, len(actions)) - 1; i >= 0; i-- {
		if actions[i].Type != parser.ActionPosts {
			return i
		}
	}
	return -1
}
