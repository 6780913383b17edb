package parser

import "sort"

// positionTables maps table size to labels ordered from the first seat after
// the big blind through the big blind itself.
var positionTables = map[int][]Position{
	2: {PosSB, PosBB},
	3: {PosBTN, PosSB, PosBB},
	4: {PosCO, PosBTN, PosSB, PosBB},
	5: {PosHJ, PosCO, PosBTN, PosSB, PosBB},
	6: {PosLJ, PosHJ, PosCO, PosBTN, PosSB, PosBB},
	7: {PosUTG, PosLJ, PosHJ, PosCO, PosBTN, PosSB, PosBB},
	8: {PosUTG, PosUTG1, PosLJ, PosHJ, PosCO, PosBTN, PosSB, PosBB},
}

// PositionLabels returns the label sequence for a table of n players, or nil
// when n is outside 2..8.
func PositionLabels(n int) []Position {
	labels, ok := positionTables[n]
	if !ok {
		return nil
	}
	return append([]Position(nil), labels...)
}

func sortPlayersBySeat(players []*Player) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Seat != players[j].Seat {
			return players[i].Seat < players[j].Seat
		}
		return players[i].Name < players[j].Name
	})
}

// BigBlindPoster returns the name of the first preflop poster whose amount
// equals the big blind.
func BigBlindPoster(h *Hand) (string, bool) {
	if !h.HasBigBlind() {
		return "", false
	}
	for _, a := range h.Actions[StreetPreflop] {
		if a.Type == ActionPosts && !a.Ante && a.Amount == h.BigBlind {
			return a.Player, true
		}
	}
	return "", false
}

// AssignPositions labels every player of h by rotating seat order so the seat
// after the big blind comes first. Without a big-blind poster, or with a
// table size outside 2..8, every player is left at PosUnknown.
func AssignPositions(h *Hand) {
	if h == nil {
		return
	}
	players := h.SortedPlayers()
	for _, p := range players {
		p.Position = PosUnknown
	}

	labels := positionTables[len(players)]
	if labels == nil {
		return
	}
	bb, ok := BigBlindPoster(h)
	if !ok {
		return
	}
	bbIdx := -1
	for i, p := range players {
		if p.Name == bb {
			bbIdx = i
			break
		}
	}
	if bbIdx < 0 {
		return
	}

	n := len(players)
	for i := 0; i < n; i++ {
		players[(bbIdx+1+i)%n].Position = labels[i]
	}
}

// PlayerAt returns the player holding pos, if any.
func (h *Hand) PlayerAt(pos Position) *Player {
	if h == nil || pos == PosUnknown {
		return nil
	}
	for _, p := range h.Players {
		if p.Position == pos {
			return p
		}
	}
	return nil
}
