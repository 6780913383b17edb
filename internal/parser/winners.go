package parser

import (
	"regexp"
	"sort"
	"strings"
)

var (
	rxSumCollectedPot   = regexp.MustCompile(`^(.+?)\s+collected\s+([\d,]+)\s+from\s+(?:side |main )?pot`)
	rxSumSeatWon        = regexp.MustCompile(`^Seat\s+\d+:\s*(.+?)\s.*\bwon\s*\(([\d,]+)\)`)
	rxSumSeatCollected  = regexp.MustCompile(`^Seat\s+\d+:\s*(.+?)\s.*\bcollected\s*\(([\d,]+)\)`)
	rxSumCollectedParen = regexp.MustCompile(`^(.+?)\s+collected\s*\(([\d,]+)\)`)
)

// WinnerSourceKind tags which strategy produced a winner list.
type WinnerSourceKind int

const (
	WinnerSourceNone WinnerSourceKind = iota
	WinnerSourceStructured
	WinnerSourceCollected
	WinnerSourceSummaryText
)

func (k WinnerSourceKind) String() string {
	switch k {
	case WinnerSourceStructured:
		return "structured"
	case WinnerSourceCollected:
		return "collected"
	case WinnerSourceSummaryText:
		return "summary-text"
	default:
		return "none"
	}
}

// WinnerSource extracts a winner list from one representation of a hand.
// An empty result means the source had nothing to say.
type WinnerSource interface {
	Kind() WinnerSourceKind
	Extract(h *Hand) []Payout
}

// StructuredSource reads winners already present on the hand.
type StructuredSource struct{}

func (StructuredSource) Kind() WinnerSourceKind { return WinnerSourceStructured }

func (StructuredSource) Extract(h *Hand) []Payout {
	return append([]Payout(nil), h.Winners...)
}

// CollectedSource merges the hand's collected lines by player. A later
// amount for the same player overwrites an earlier one.
type CollectedSource struct{}

func (CollectedSource) Kind() WinnerSourceKind { return WinnerSourceCollected }

func (CollectedSource) Extract(h *Hand) []Payout {
	m := newPayoutMerge()
	for _, c := range h.Collected {
		m.set(c.Player, c.Amount)
	}
	return m.payouts()
}

// SummaryTextSource scans summary lines (or the whole raw block when no
// summary section was seen) for every known winner line shape.
type SummaryTextSource struct{}

func (SummaryTextSource) Kind() WinnerSourceKind { return WinnerSourceSummaryText }

func (SummaryTextSource) Extract(h *Hand) []Payout {
	lines := h.SummaryLines
	if len(lines) == 0 {
		lines = strings.Split(h.Raw, "\n")
	}
	patterns := []*regexp.Regexp{rxSumCollectedPot, rxSumSeatWon, rxSumSeatCollected, rxSumCollectedParen}
	m := newPayoutMerge()
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		for _, rx := range patterns {
			if sm := rx.FindStringSubmatch(line); sm != nil {
				m.set(strings.TrimSpace(sm[1]), atoi(sm[2]))
				break
			}
		}
	}
	return m.payouts()
}

// WinnerSources is the priority order used by ExtractWinners.
var WinnerSources = []WinnerSource{StructuredSource{}, CollectedSource{}, SummaryTextSource{}}

// ParsedWinnerSources is the order the parser uses while a hand has no
// structured winners yet.
var ParsedWinnerSources = []WinnerSource{CollectedSource{}, SummaryTextSource{}}

// ExtractWinners resolves winners with WinnerSources.
func ExtractWinners(h *Hand) []Payout {
	out, _ := ExtractWinnersFrom(h, WinnerSources)
	return out
}

// ExtractWinnersFrom tries each source in order and returns the first
// non-empty result, sorted by amount descending. Amount is the gross
// collected; Net subtracts the player's own investment.
func ExtractWinnersFrom(h *Hand, sources []WinnerSource) ([]Payout, WinnerSourceKind) {
	if h == nil {
		return nil, WinnerSourceNone
	}
	for _, src := range sources {
		out := src.Extract(h)
		if len(out) == 0 {
			continue
		}
		for i := range out {
			out[i].Net = out[i].Amount - h.Invested[out[i].Player]
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
		return out, src.Kind()
	}
	return nil, WinnerSourceNone
}

type payoutMerge struct {
	order  []string
	amount map[string]int
}

func newPayoutMerge() *payoutMerge {
	return &payoutMerge{amount: make(map[string]int)}
}

func (m *payoutMerge) set(name string, amount int) {
	if name == "" || amount <= 0 {
		return
	}
	if _, ok := m.amount[name]; !ok {
		m.order = append(m.order, name)
	}
	m.amount[name] = amount
}

func (m *payoutMerge) payouts() []Payout {
	out := make([]Payout, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, Payout{Player: name, Amount: m.amount[name]})
	}
	return out
}
