package parser

import (
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	reHandStart = regexp.MustCompile(`\bHand #(\d+)`)
	reStakes    = regexp.MustCompile(`\(\$?([\d,]+)/\$?([\d,]+)`)
	reTable     = regexp.MustCompile(`^Table '([^']+)'`)
	reButton    = regexp.MustCompile(`Seat #(\d+) is the button`)

	reDealtTo   = regexp.MustCompile(`^Dealt to (.+?) \[(.*)\]`)
	reFlop      = regexp.MustCompile(`^\*\*\* FLOP \*\*\* \[\s*(.*?)\s*\]`)
	reTurnRiver = regexp.MustCompile(`^\*\*\* (?:TURN|RIVER) \*\*\* \[.*\] \[(.*)\]`)

	reAction    = regexp.MustCompile(`^(.+?):\s(bets|raises|calls|checks|folds|posts)\b(.*)$`)
	reAnte      = regexp.MustCompile(`^(.+?): posts (?:the )?ante ([\d,]+)`)
	reRaiseTo   = regexp.MustCompile(`to ([\d,]+)`)
	reFirstInt  = regexp.MustCompile(`([\d,]*\d)`)
	reUncalled  = regexp.MustCompile(`^Uncalled bet \(([\d,]+)\) returned to (.+)$`)
	reCollected = regexp.MustCompile(`^(.+?)\s+collected\s+([\d,]+)\s+from\s+(?:side |main )?pot`)
	reCollParen = regexp.MustCompile(`^(.+?)\s+collected\s*\(([\d,]+)\)`)

	reSeatStack = regexp.MustCompile(`^Seat (\d+): (.+?) \(\$?([\d,]+) in chips`)
	reSeatCards = regexp.MustCompile(`^Seat (\d+): .*?\[(.*?)\]`)
)

const (
	markerSummary  = "*** SUMMARY ***"
	markerShowDown = "*** SHOW DOWN ***"
)

// Parse converts raw multi-hand text into hands. The source log lists the
// most recent hand first, so the result is in reverse text order: the hand
// that appears last in the text is returned first.
//
// Parse never fails on malformed lines; unmatched lines are skipped. A
// segment without any recognisable line is dropped.
func Parse(text string) (hands []*Hand) {
	defer func() {
		if r := recover(); r != nil {
			hands = nil
		}
	}()

	blocks := SplitBlocks(text)
	hands = make([]*Hand, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		if h := ParseBlock(blocks[i]); h != nil {
			hands = append(hands, h)
		}
	}
	return hands
}

// ParseReader reads r fully and parses it with Parse.
func ParseReader(r io.Reader) ([]*Hand, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// Normalize strips a leading byte-order mark and converts CRLF line endings.
func Normalize(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}

// IsHandStartLine reports whether line opens a new hand block.
func IsHandStartLine(line string) bool {
	return reHandStart.MatchString(line)
}

// SplitBlocks segments text at every hand-start line. Text preceding the first
// hand-start line forms its own block. Blocks are trimmed; empty ones dropped.
func SplitBlocks(text string) []string {
	text = Normalize(text)
	if text == "" {
		return nil
	}

	var blocks []string
	var cur []string
	flush := func() {
		block := strings.TrimSpace(strings.Join(cur, "\n"))
		if block != "" {
			blocks = append(blocks, block)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if IsHandStartLine(line) && len(cur) > 0 {
			flush()
		}
		cur = append(cur, line)
	}
	flush()
	return blocks
}

// blockParser holds per-hand state while walking the lines of one block.
type blockParser struct {
	hand       *Hand
	street     Street
	inSummary  bool
	recognized bool
	streetInv  map[string]int
}

// ParseBlock parses a single hand block. It returns nil when no line of the
// block is recognised.
func ParseBlock(block string) *Hand {
	block = strings.TrimSpace(block)
	bp := &blockParser{
		hand:      newHand(block),
		street:    StreetPreflop,
		streetInv: make(map[string]int),
	}
	for _, raw := range strings.Split(block, "\n") {
		bp.parseLine(strings.TrimSpace(raw))
	}
	if !bp.recognized {
		return nil
	}
	bp.finalize()
	return bp.hand
}

func (bp *blockParser) parseLine(line string) {
	if line == "" {
		return
	}
	h := bp.hand

	if m := reHandStart.FindStringSubmatch(line); m != nil {
		bp.recognized = true
		if h.ID == "" {
			h.ID = m[1]
		}
	}

	if strings.Contains(line, "Hold'em") {
		if m := reStakes.FindStringSubmatch(line); m != nil {
			h.SmallBlind = atoi(m[1])
			h.BigBlind = atoi(m[2])
			bp.recognized = true
		}
	}

	if m := reTable.FindStringSubmatch(line); m != nil {
		h.Table = m[1]
		bp.recognized = true
	}
	if m := reButton.FindStringSubmatch(line); m != nil {
		h.ButtonSeat = atoi(m[1])
		bp.recognized = true
	}

	if line == markerSummary || strings.HasPrefix(line, markerSummary) {
		bp.inSummary = true
		bp.recognized = true
	}
	if bp.inSummary {
		h.SummaryLines = append(h.SummaryLines, line)
	}

	switch {
	case strings.HasPrefix(line, "Dealt to "):
		if m := reDealtTo.FindStringSubmatch(line); m != nil {
			h.Hero = m[1]
			h.HeroCards = splitCards(m[2])
			bp.recognized = true
		}
		return
	case strings.HasPrefix(line, "*** FLOP ***"):
		bp.enterStreet(StreetFlop)
		if m := reFlop.FindStringSubmatch(line); m != nil {
			h.Board = splitCards(m[1])
		}
		return
	case strings.HasPrefix(line, "*** TURN ***"):
		bp.enterStreet(StreetTurn)
		if m := reTurnRiver.FindStringSubmatch(line); m != nil {
			h.Board = append(h.Board, splitCards(m[1])...)
		}
		return
	case strings.HasPrefix(line, "*** RIVER ***"):
		bp.enterStreet(StreetRiver)
		if m := reTurnRiver.FindStringSubmatch(line); m != nil {
			h.Board = append(h.Board, splitCards(m[1])...)
		}
		return
	case strings.HasPrefix(line, markerShowDown):
		bp.recognized = true
		return
	case strings.HasPrefix(line, "Seat "):
		bp.parseSeatLine(line)
		return
	case strings.HasPrefix(line, "Uncalled bet"):
		if m := reUncalled.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[2])
			if _, ok := h.Invested[name]; ok {
				h.Invested[name] -= atoi(m[1])
			}
			bp.recognized = true
		}
		return
	}

	if strings.Contains(line, "collected") {
		bp.parseCollected(line)
		return
	}

	if bp.inSummary {
		return
	}

	if m := reAnte.FindStringSubmatch(line); m != nil {
		name, amount := m[1], atoi(m[2])
		h.Actions[bp.street] = append(h.Actions[bp.street], Action{
			Player: name, Type: ActionPosts, Amount: amount, Ante: true, Raw: line,
		})
		h.AnteTotal += amount
		h.Antes = append(h.Antes, Post{Player: name, Amount: amount})
		h.Invested[name] += amount
		bp.recognized = true
		return
	}

	if m := reAction.FindStringSubmatch(line); m != nil {
		bp.parseAction(line, m[1], m[2], strings.TrimSpace(m[3]))
	}
}

func (bp *blockParser) enterStreet(st Street) {
	bp.street = st
	bp.streetInv = make(map[string]int)
	bp.recognized = true
}

func (bp *blockParser) parseAction(line, name, verb, detail string) {
	h := bp.hand
	typ := parseActionType(verb)

	amount := 0
	if typ == ActionRaises {
		if m := reRaiseTo.FindStringSubmatch(detail); m != nil {
			amount = atoi(m[1])
		}
	} else if typ != ActionFolds && typ != ActionChecks {
		if m := reFirstInt.FindStringSubmatch(detail); m != nil {
			amount = atoi(m[1])
		}
	}

	h.Actions[bp.street] = append(h.Actions[bp.street], Action{
		Player: name, Type: typ, Amount: amount, Raw: line,
	})
	bp.recognized = true

	switch typ {
	case ActionPosts, ActionBets, ActionCalls:
		bp.streetInv[name] += amount
		h.Invested[name] += amount
	case ActionRaises:
		inc := amount - bp.streetInv[name]
		if inc < 0 {
			inc = 0
		}
		bp.streetInv[name] = amount
		h.Invested[name] += inc
	}
}

func (bp *blockParser) parseSeatLine(line string) {
	h := bp.hand
	if m := reSeatStack.FindStringSubmatch(line); m != nil && !bp.inSummary {
		name := strings.TrimSpace(m[2])
		h.Players[name] = &Player{
			Name:  name,
			Seat:  atoi(m[1]),
			Stack: atoi(m[3]),
		}
		bp.recognized = true
	}
	if m := reSeatCards.FindStringSubmatch(line); m != nil {
		if p := h.playerAtSeat(atoi(m[1])); p != nil {
			p.Cards = splitCards(m[2])
		}
		bp.recognized = true
	}
}

// parseCollected records gross amounts from "NAME collected N from pot" and
// "NAME collected (N)" lines. Summary seat lines ("Seat N: NAME collected (N)")
// are left to the summary-text winner strategy.
func (bp *blockParser) parseCollected(line string) {
	h := bp.hand
	if m := reCollected.FindStringSubmatch(line); m != nil {
		h.Collected = append(h.Collected, Payout{Player: strings.TrimSpace(m[1]), Amount: atoi(m[2])})
		bp.recognized = true
		return
	}
	if m := reCollParen.FindStringSubmatch(line); m != nil {
		h.Collected = append(h.Collected, Payout{Player: strings.TrimSpace(m[1]), Amount: atoi(m[2])})
		bp.recognized = true
	}
}

func (bp *blockParser) finalize() {
	h := bp.hand
	if h.Hero != "" {
		if p, ok := h.Players[h.Hero]; ok {
			p.Hero = true
			p.Cards = append([]string(nil), h.HeroCards...)
		}
	}
	AssignPositions(h)
	h.Winners, _ = ExtractWinnersFrom(h, ParsedWinnerSources)
}

func (h *Hand) playerAtSeat(seat int) *Player {
	for _, p := range h.Players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

func splitCards(s string) []string {
	return strings.Fields(s)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
