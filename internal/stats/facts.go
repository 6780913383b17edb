package stats

import "github.com/AkatukiSora/hhreplay/internal/parser"

// handFacts is what one hand contributes for one player.
type handFacts struct {
	position parser.Position
	vpip     bool
	pfr      bool

	threeBetOpp bool
	threeBet    bool

	foldTo3BetOpp bool
	foldTo3Bet    bool

	cbetOpp bool
	cbet    bool

	sawFlop    bool
	showedDown bool
	won        bool

	net      int
	bigBlind int
}

// factsFor derives name's facts from h. ok is false when name was not
// dealt into h.
func factsFor(h *parser.Hand, name string) (handFacts, bool) {
	p, ok := h.Players[name]
	if !ok {
		return handFacts{}, false
	}
	f := handFacts{position: p.Position, bigBlind: h.BigBlind}

	pre := voluntary(h.StreetActions(parser.StreetPreflop))
	raises := 0
	opened := false
	lastAggressor := ""
	for _, a := range pre {
		if a.Player == name {
			switch {
			case raises == 1 && !opened && !f.threeBetOpp:
				f.threeBetOpp = true
				f.threeBet = a.Type == parser.ActionRaises
			case raises >= 2 && opened && !f.foldTo3BetOpp:
				f.foldTo3BetOpp = true
				f.foldTo3Bet = a.Type == parser.ActionFolds
			}
			switch a.Type {
			case parser.ActionCalls, parser.ActionBets:
				f.vpip = true
			case parser.ActionRaises:
				f.vpip = true
				f.pfr = true
				if raises == 0 {
					opened = true
				}
			}
		}
		if a.Type == parser.ActionRaises || a.Type == parser.ActionBets {
			raises++
			lastAggressor = a.Player
		}
	}

	foldedOn := foldStreet(h, name)
	f.sawFlop = len(h.Board) >= 3 && (foldedOn < 0 || foldedOn > int(parser.StreetPreflop))

	if f.sawFlop && lastAggressor == name {
		flop := voluntary(h.StreetActions(parser.StreetFlop))
		for _, a := range flop {
			if a.Type == parser.ActionBets || a.Type == parser.ActionRaises {
				f.cbetOpp = true
				f.cbet = a.Player == name
				break
			}
			if a.Player == name {
				f.cbetOpp = true
				break
			}
		}
	}

	f.showedDown = foldedOn < 0 && unfoldedAtEnd(h) >= 2

	invested := h.Invested[name]
	f.net = -invested
	for _, w := range parser.ExtractWinners(h) {
		if w.Player == name {
			f.won = true
			f.net = w.Amount - invested
			break
		}
	}
	return f, true
}

// voluntary drops forced posts.
func voluntary(actions []parser.Action) []parser.Action {
	out := make([]parser.Action, 0, len(actions))
	for _, a := range actions {
		if a.Type != parser.ActionPosts {
			out = append(out, a)
		}
	}
	return out
}

// foldStreet returns the street name folded on, or -1.
func foldStreet(h *parser.Hand, name string) int {
	for _, st := range parser.BettingStreets {
		for _, a := range h.StreetActions(st) {
			if a.Player == name && a.Type == parser.ActionFolds {
				return int(st)
			}
		}
	}
	return -1
}

func unfoldedAtEnd(h *parser.Hand) int {
	n := 0
	for name := range h.Players {
		if foldStreet(h, name) < 0 {
			n++
		}
	}
	return n
}
