package parser

// CloneHand returns a fully independent deep copy of h.
// Repositories hand out clones so callers can never mutate stored hands.
func CloneHand(h *Hand) *Hand {
	if h == nil {
		return nil
	}
	out := *h
	out.HeroCards = append([]string(nil), h.HeroCards...)
	out.Board = append([]string(nil), h.Board...)
	out.Antes = append([]Post(nil), h.Antes...)
	out.Collected = append([]Payout(nil), h.Collected...)
	out.Winners = append([]Payout(nil), h.Winners...)
	out.SummaryLines = append([]string(nil), h.SummaryLines...)
	out.Invested = cloneMap(h.Invested)

	out.Players = make(map[string]*Player, len(h.Players))
	for name, p := range h.Players {
		out.Players[name] = clonePlayer(p)
	}
	out.Actions = make(map[Street][]Action, len(h.Actions))
	for st, actions := range h.Actions {
		out.Actions[st] = append([]Action(nil), actions...)
	}
	return &out
}

// CloneHands deep-copies every hand in hands.
func CloneHands(hands []*Hand) []*Hand {
	out := make([]*Hand, 0, len(hands))
	for _, h := range hands {
		out = append(out, CloneHand(h))
	}
	return out
}

func clonePlayer(p *Player) *Player {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Cards = append([]string(nil), p.Cards...)
	return &cp
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	if len(in) == 0 {
		return make(map[K]V)
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
