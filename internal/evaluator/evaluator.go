// Package evaluator ranks and describes hands revealed at showdown.
package evaluator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/paulhankin/poker"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

// ErrIncompleteBoard is returned when the board does not hold five cards.
var ErrIncompleteBoard = errors.New("evaluator: board must have five cards")

var suits = map[byte]poker.Suit{
	'c': poker.Club,
	'd': poker.Diamond,
	'h': poker.Heart,
	's': poker.Spade,
}

var ranks = map[string]poker.Rank{
	"A": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7,
	"8": 8, "9": 9, "T": 10, "10": 10, "J": 11, "Q": 12, "K": 13,
}

// ParseCard converts a card code such as "Ah", "Td" or "10c".
func ParseCard(code string) (poker.Card, error) {
	var zero poker.Card
	code = strings.TrimSpace(code)
	if len(code) < 2 {
		return zero, fmt.Errorf("invalid card %q", code)
	}
	suit, ok := suits[strings.ToLower(code[len(code)-1:])[0]]
	if !ok {
		return zero, fmt.Errorf("invalid suit in card %q", code)
	}
	rank, ok := ranks[strings.ToUpper(code[:len(code)-1])]
	if !ok {
		return zero, fmt.Errorf("invalid rank in card %q", code)
	}
	card, err := poker.MakeCard(suit, rank)
	if err != nil {
		return zero, fmt.Errorf("make card %q: %w", code, err)
	}
	return card, nil
}

// Shown is one revealed hand with its strength.
type Shown struct {
	Player      string
	Cards       []string
	Score       int16 // higher is stronger
	Description string
}

// RankShown evaluates every player holding two known cards against the
// full board and returns them strongest first. Players with unparseable
// cards are skipped.
func RankShown(h *parser.Hand) ([]Shown, error) {
	if h == nil || len(h.Board) != 5 {
		return nil, ErrIncompleteBoard
	}
	var board [5]poker.Card
	for i, code := range h.Board {
		c, err := ParseCard(code)
		if err != nil {
			return nil, fmt.Errorf("board card %d: %w", i, err)
		}
		board[i] = c
	}

	var out []Shown
	for _, p := range h.SortedPlayers() {
		if len(p.Cards) != 2 {
			continue
		}
		hand, err := finalHand(board, p.Cards)
		if err != nil {
			continue
		}
		desc, err := poker.Describe(hand[:])
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", p.Name, err)
		}
		out = append(out, Shown{
			Player:      p.Name,
			Cards:       append([]string(nil), p.Cards...),
			Score:       poker.Eval7(&hand),
			Description: desc,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// DescribeShown maps each revealed player to a description of their best
// five-card hand.
func DescribeShown(h *parser.Hand) (map[string]string, error) {
	shown, err := RankShown(h)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(shown))
	for _, s := range shown {
		out[s.Player] = s.Description
	}
	return out, nil
}

// Best returns the players sharing the top score.
func Best(shown []Shown) []string {
	if len(shown) == 0 {
		return nil
	}
	var out []string
	for _, s := range shown {
		if s.Score != shown[0].Score {
			break
		}
		out = append(out, s.Player)
	}
	return out
}

func finalHand(board [5]poker.Card, hole []string) ([7]poker.Card, error) {
	var hand [7]poker.Card
	copy(hand[:5], board[:])
	for i, code := range hole {
		c, err := ParseCard(code)
		if err != nil {
			return [7]poker.Card{}, err
		}
		hand[5+i] = c
	}
	return hand, nil
}
