package parser

import "strings"

// Street represents the betting round
type Street int

const (
	StreetPreflop Street = iota
	StreetFlop
	StreetTurn
	StreetRiver
	StreetShowdown
)

// BettingStreets lists the streets that carry actions, in play order.
var BettingStreets = [...]Street{StreetPreflop, StreetFlop, StreetTurn, StreetRiver}

func (s Street) String() string {
	switch s {
	case StreetPreflop:
		return "preflop"
	case StreetFlop:
		return "flop"
	case StreetTurn:
		return "turn"
	case StreetRiver:
		return "river"
	case StreetShowdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// ParseStreet maps a street name back to its Street. ok is false for unknown names.
func ParseStreet(name string) (Street, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "preflop":
		return StreetPreflop, true
	case "flop":
		return StreetFlop, true
	case "turn":
		return StreetTurn, true
	case "river":
		return StreetRiver, true
	case "showdown":
		return StreetShowdown, true
	default:
		return StreetPreflop, false
	}
}

// ActionType represents a player action
type ActionType int

const (
	ActionUnknown ActionType = iota
	ActionPosts
	ActionBets
	ActionCalls
	ActionRaises
	ActionFolds
	ActionChecks
)

func (a ActionType) String() string {
	switch a {
	case ActionPosts:
		return "posts"
	case ActionBets:
		return "bets"
	case ActionCalls:
		return "calls"
	case ActionRaises:
		return "raises"
	case ActionFolds:
		return "folds"
	case ActionChecks:
		return "checks"
	default:
		return "unknown"
	}
}

func parseActionType(verb string) ActionType {
	switch verb {
	case "posts":
		return ActionPosts
	case "bets":
		return ActionBets
	case "calls":
		return ActionCalls
	case "raises":
		return ActionRaises
	case "folds":
		return ActionFolds
	case "checks":
		return ActionChecks
	default:
		return ActionUnknown
	}
}

// Position represents a player's position at the table
type Position int

const (
	PosUnknown Position = iota
	PosUTG              // Under the Gun
	PosUTG1             // UTG+1, only used 8-handed
	PosLJ               // Lojack (MP)
	PosHJ               // Hijack
	PosCO               // Cutoff
	PosBTN              // Button
	PosSB               // Small Blind
	PosBB               // Big Blind
)

func (p Position) String() string {
	switch p {
	case PosUTG:
		return "UTG"
	case PosUTG1:
		return "UTG+1"
	case PosLJ:
		return "LJ"
	case PosHJ:
		return "HJ"
	case PosCO:
		return "CO"
	case PosBTN:
		return "BTN"
	case PosSB:
		return "SB"
	case PosBB:
		return "BB"
	default:
		return ""
	}
}

// Action is one atomic event within a street.
//
// Amount semantics depend on Type: posts, bets and calls carry the chips added
// by this action; raises carry the total the player's street investment
// becomes ("raises to X"); folds and checks carry no amount.
type Action struct {
	Player string
	Type   ActionType
	Amount int
	Ante   bool // posts only: the line was "posts the ante N"
	Raw    string
}

// Post is one ante (or other forced post) observed in the text.
type Post struct {
	Player string
	Amount int
}

// Payout records what a player took from the pot.
// Amount is the gross amount collected; Net subtracts the player's own
// investment in the hand.
type Payout struct {
	Player string
	Amount int
	Net    int
}

// Player is one seat occupant within a Hand.
type Player struct {
	Name     string
	Seat     int
	Stack    int
	Cards    []string
	Position Position
	Hero     bool
}

// Hand is one parsed poker hand. It is not mutated after Parse returns.
type Hand struct {
	ID         string // digits following "Hand #"
	Table      string
	SmallBlind int
	BigBlind   int
	ButtonSeat int // 0 when no button line was seen

	Players   map[string]*Player
	Hero      string
	HeroCards []string
	Board     []string
	Actions   map[Street][]Action

	Antes     []Post
	AnteTotal int

	// Collected holds every gross "collected" amount in text order.
	Collected []Payout
	Winners   []Payout
	// Invested is each player's net chip commitment: blinds, antes,
	// bet/call/raise increments, minus uncalled bets returned.
	Invested map[string]int

	SummaryLines []string
	Raw          string
}

func newHand(raw string) *Hand {
	return &Hand{
		Players:  make(map[string]*Player),
		Actions:  make(map[Street][]Action, len(BettingStreets)),
		Invested: make(map[string]int),
		Raw:      raw,
	}
}

// StreetActions returns the ordered actions of st. The slice must not be modified.
func (h *Hand) StreetActions(st Street) []Action {
	if h == nil {
		return nil
	}
	return h.Actions[st]
}

// SortedPlayers returns the hand's players ordered by seat number.
func (h *Hand) SortedPlayers() []*Player {
	if h == nil {
		return nil
	}
	out := make([]*Player, 0, len(h.Players))
	for _, p := range h.Players {
		out = append(out, p)
	}
	sortPlayersBySeat(out)
	return out
}

// AnteFor returns the total ante posted by name.
func (h *Hand) AnteFor(name string) int {
	total := 0
	for _, a := range h.Antes {
		if a.Player == name {
			total += a.Amount
		}
	}
	return total
}

// HasBigBlind reports whether BB-normalised values can be computed.
func (h *Hand) HasBigBlind() bool {
	return h != nil && h.BigBlind > 0
}

// ActionCount returns the number of actions across all betting streets.
func (h *Hand) ActionCount() int {
	n := 0
	for _, st := range BettingStreets {
		n += len(h.Actions[st])
	}
	return n
}
