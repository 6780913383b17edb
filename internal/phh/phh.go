// Package phh exports parsed hands in the Poker Hand History (PHH) TOML
// format.
package phh

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/AkatukiSora/hhreplay/internal/parser"
	"github.com/AkatukiSora/hhreplay/internal/replay"
)

// Record is one hand in PHH form. Player-indexed slices follow PHH order:
// small blind first, button last.
type Record struct {
	Variant           string   `toml:"variant"`
	Table             string   `toml:"table,omitempty"`
	SeatCount         int      `toml:"seat_count,omitempty"`
	Seats             []int    `toml:"seats,omitempty"`
	Antes             []int    `toml:"antes"`
	BlindsOrStraddles []int    `toml:"blinds_or_straddles"`
	MinBet            int      `toml:"min_bet"`
	StartingStacks    []int    `toml:"starting_stacks"`
	FinishingStacks   []int    `toml:"finishing_stacks,omitempty"`
	Winnings          []int    `toml:"winnings,omitempty"`
	Actions           []string `toml:"actions"`
	Players           []string `toml:"players,omitempty"`
	Hand              string   `toml:"hand,omitempty"`
}

var errNilHand = errors.New("phh: hand is nil")

// FromHand converts h. Finishing stacks and winnings come from replaying the
// hand to its end.
func FromHand(h *parser.Hand) (*Record, error) {
	if h == nil {
		return nil, errNilHand
	}
	order := playerOrder(h)
	idx := make(map[string]int, len(order))
	rec := &Record{
		Variant:           "NT",
		Table:             h.Table,
		SeatCount:         len(order),
		Antes:             make([]int, len(order)),
		BlindsOrStraddles: make([]int, len(order)),
		MinBet:            h.BigBlind,
		StartingStacks:    make([]int, len(order)),
		FinishingStacks:   make([]int, len(order)),
		Winnings:          make([]int, len(order)),
		Hand:              h.ID,
	}
	for i, p := range order {
		idx[p.Name] = i
		rec.Seats = append(rec.Seats, p.Seat)
		rec.Players = append(rec.Players, p.Name)
		rec.StartingStacks[i] = p.Stack
		rec.Antes[i] = h.AnteFor(p.Name)
	}
	for name, amt := range replay.Blinds(h) {
		if i, ok := idx[name]; ok {
			rec.BlindsOrStraddles[i] = amt
		}
	}

	for i, p := range order {
		if p.Hero && len(p.Cards) == 2 {
			rec.Actions = append(rec.Actions, fmt.Sprintf("d dh p%d %s", i+1, joinCards(p.Cards)))
		} else {
			rec.Actions = append(rec.Actions, fmt.Sprintf("d dh p%d ????", i+1))
		}
	}
	for _, st := range parser.BettingStreets {
		if board := streetBoard(h, st); board != "" {
			rec.Actions = append(rec.Actions, "d db "+board)
		}
		streetInv := make(map[string]int)
		if st == parser.StreetPreflop {
			for name, amt := range replay.Blinds(h) {
				streetInv[name] = amt
			}
		}
		for _, a := range h.Actions[st] {
			i, ok := idx[a.Player]
			if !ok {
				continue
			}
			if line, ok := formatAction(i, a, streetInv); ok {
				rec.Actions = append(rec.Actions, line)
			}
		}
	}
	for i, p := range order {
		if !p.Hero && len(p.Cards) == 2 {
			rec.Actions = append(rec.Actions, fmt.Sprintf("p%d sm %s", i+1, joinCards(p.Cards)))
		}
	}

	final := replayToEnd(h)
	for i, p := range order {
		rec.FinishingStacks[i] = replay.RemainingStack(final, p.Name)
	}
	if final.Award == replay.AwardApplied {
		for _, po := range final.Payouts {
			if i, ok := idx[po.Player]; ok {
				rec.Winnings[i] = po.Amount
			}
		}
	}
	return rec, nil
}

// Encode writes rec as TOML.
func Encode(w io.Writer, rec *Record) error {
	if rec == nil {
		return errNilHand
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("phh: encode hand %s: %w", rec.Hand, err)
	}
	return nil
}

// EncodeHands writes hands as consecutive numbered TOML tables ("[1]",
// "[2]", ...), the layout of a multi-hand .phhs file.
func EncodeHands(w io.Writer, hands []*parser.Hand) error {
	for i, h := range hands {
		rec, err := FromHand(h)
		if err != nil {
			return err
		}
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "[%d]\n", i+1); err != nil {
			return err
		}
		var b strings.Builder
		if err := Encode(&b, rec); err != nil {
			return err
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func formatAction(i int, a parser.Action, streetInv map[string]int) (string, bool) {
	p := fmt.Sprintf("p%d", i+1)
	switch a.Type {
	case parser.ActionFolds:
		return p + " f", true
	case parser.ActionChecks, parser.ActionCalls:
		streetInv[a.Player] += a.Amount
		return p + " cc", true
	case parser.ActionBets:
		streetInv[a.Player] += a.Amount
		return fmt.Sprintf("%s cbr %d", p, streetInv[a.Player]), true
	case parser.ActionRaises:
		streetInv[a.Player] = a.Amount
		return fmt.Sprintf("%s cbr %d", p, a.Amount), true
	}
	return "", false
}

// playerOrder returns players small blind first. Without positions it falls
// back to seat order.
func playerOrder(h *parser.Hand) []*parser.Player {
	players := h.SortedPlayers()
	start := -1
	for i, p := range players {
		if p.Position == parser.PosSB {
			start = i
			break
		}
	}
	if start <= 0 {
		return players
	}
	return append(players[start:], players[:start]...)
}

func streetBoard(h *parser.Hand, st parser.Street) string {
	var cards []string
	switch st {
	case parser.StreetFlop:
		if len(h.Board) >= 3 {
			cards = h.Board[:3]
		}
	case parser.StreetTurn:
		if len(h.Board) >= 4 {
			cards = h.Board[3:4]
		}
	case parser.StreetRiver:
		if len(h.Board) >= 5 {
			cards = h.Board[4:5]
		}
	}
	return joinCards(cards)
}

func joinCards(cards []string) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(normalizeCard(c))
	}
	return b.String()
}

// normalizeCard rewrites "10h" as "Th".
func normalizeCard(c string) string {
	c = strings.TrimSpace(c)
	if strings.HasPrefix(c, "10") && len(c) == 3 {
		return "T" + strings.ToLower(c[2:])
	}
	if len(c) != 2 {
		return c
	}
	return strings.ToUpper(c[:1]) + strings.ToLower(c[1:])
}

func replayToEnd(h *parser.Hand) replay.State {
	s := replay.NewState(h)
	for !replay.Finished(s) {
		s = replay.StepForward(s)
	}
	return s
}
