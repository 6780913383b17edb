package stats

import (
	"math"
	"testing"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

const threeBetFold = `Hand #1: Hold'em No Limit (50/100)
Table 'Alpha' 3-max Seat #1 is the button
Seat 1: hero (5000 in chips)
Seat 2: sb (5000 in chips)
Seat 3: bb (5000 in chips)
sb: posts small blind 50
bb: posts big blind 100
Dealt to hero [Ah Kd]
hero: raises to 250
sb: folds
bb: raises to 800
hero: folds
Uncalled bet (550) returned to bb
bb collected 550 from pot
*** SUMMARY ***`

const defendAndWin = `Hand #2: Hold'em No Limit (50/100)
Table 'Alpha' 3-max Seat #1 is the button
Seat 1: btn (5000 in chips)
Seat 2: sb (5000 in chips)
Seat 3: hero (5000 in chips)
sb: posts small blind 50
hero: posts big blind 100
Dealt to hero [Qs Qh]
btn: raises to 250
sb: folds
hero: calls 150
*** FLOP *** [2c 7d Jh]
hero: checks
btn: bets 300
hero: calls 300
*** TURN *** [2c 7d Jh] [4s]
hero: checks
btn: checks
*** RIVER *** [2c 7d Jh 4s] [9c]
hero: checks
btn: checks
*** SHOW DOWN ***
hero collected 1150 from pot
*** SUMMARY ***
Seat 1: btn (button) showed [Ac Kc] and lost
Seat 3: hero (big blind) showed [Qs Qh] and won (1150)`

func fixtureHands(t *testing.T) []*parser.Hand {
	t.Helper()
	hands := []*parser.Hand{parser.ParseBlock(threeBetFold), parser.ParseBlock(defendAndWin)}
	if hands[0].ID != "1" || hands[1].ID != "2" {
		t.Fatalf("parsed hands %s, %s", hands[0].ID, hands[1].ID)
	}
	return hands
}

func metric(t *testing.T, s *Stats, id MetricID) MetricValue {
	t.Helper()
	v, ok := s.Metrics[id]
	if !ok {
		t.Fatalf("metric %s missing", id)
	}
	return v
}

func TestCalculateEmptyHands(t *testing.T) {
	s := Calculate(nil, "")
	if s == nil {
		t.Fatal("Calculate returned nil for empty hands")
	}
	if s.TotalHands != 0 {
		t.Errorf("expected 0 total hands, got %d", s.TotalHands)
	}
	if v := metric(t, s, MetricVPIP); v.Rate != 0 || v.Opportunity != 0 {
		t.Errorf("VPIP on no hands = %+v", v)
	}
}

func TestCalculateHero(t *testing.T) {
	s := Calculate(fixtureHands(t), "")

	if s.TotalHands != 2 || s.WonHands != 1 || s.ShowdownHands != 1 || s.WonShowdowns != 1 {
		t.Fatalf("counts = %+v", s)
	}
	if s.NetChips != 350 {
		t.Errorf("net chips = %d, want 350", s.NetChips)
	}

	tests := []struct {
		id          MetricID
		count, opps int
	}{
		{MetricVPIP, 2, 2},
		{MetricPFR, 1, 2},
		{MetricThreeBet, 0, 1},
		{MetricFoldToThreeBet, 1, 1},
		{MetricFlopCBet, 0, 0},
		{MetricWTSD, 1, 1},
		{MetricWSD, 1, 1},
		{MetricWWSF, 1, 1},
		{MetricWonWithoutSD, 0, 2},
	}
	for _, tt := range tests {
		v := metric(t, s, tt.id)
		if v.Count != tt.count || v.Opportunity != tt.opps {
			t.Errorf("%s = %d/%d, want %d/%d", tt.id, v.Count, v.Opportunity, tt.count, tt.opps)
		}
		if v.Confident {
			t.Errorf("%s confident on a two-hand sample", tt.id)
		}
	}

	bb := metric(t, s, MetricBBPer100)
	if math.Abs(bb.Rate-175) > 1e-9 {
		t.Errorf("bb/100 = %v, want 175", bb.Rate)
	}

	btn := s.ByPosition[parser.PosBTN]
	if btn == nil || btn.Hands != 1 || btn.PFR != 1 || btn.NetChips != -250 {
		t.Errorf("BTN stats = %+v", btn)
	}
	bbPos := s.ByPosition[parser.PosBB]
	if bbPos == nil || bbPos.Hands != 1 || bbPos.Won != 1 || bbPos.VPIP != 1 || bbPos.NetChips != 600 {
		t.Errorf("BB stats = %+v", bbPos)
	}
}

func TestCalculateNamedPlayers(t *testing.T) {
	hands := fixtureHands(t)

	bb := Calculate(hands, "bb")
	if bb.TotalHands != 1 {
		t.Fatalf("bb hands = %d, want 1", bb.TotalHands)
	}
	if v := metric(t, bb, MetricThreeBet); v.Count != 1 || v.Opportunity != 1 {
		t.Errorf("bb 3bet = %d/%d", v.Count, v.Opportunity)
	}
	if bb.NetChips != 300 {
		t.Errorf("bb net = %d, want 300", bb.NetChips)
	}

	btn := Calculate(hands, "btn")
	if v := metric(t, btn, MetricFlopCBet); v.Count != 1 || v.Opportunity != 1 {
		t.Errorf("btn flop cbet = %d/%d", v.Count, v.Opportunity)
	}
	if btn.NetChips != -550 {
		t.Errorf("btn net = %d, want -550", btn.NetChips)
	}

	sb := Calculate(hands, "sb")
	if sb.TotalHands != 2 || sb.NetChips != -100 {
		t.Errorf("sb = %d hands, %d net", sb.TotalHands, sb.NetChips)
	}
	if v := metric(t, sb, MetricVPIP); v.Count != 0 {
		t.Errorf("sb VPIP count = %d, want 0", v.Count)
	}

	if none := Calculate(hands, "nobody"); none.TotalHands != 0 {
		t.Errorf("unknown player counted %d hands", none.TotalHands)
	}
}

func TestCalculatorComputeIsSnapshot(t *testing.T) {
	hands := fixtureHands(t)
	c := NewCalculator("")
	c.Feed(hands[0])
	first := c.Compute()
	c.Feed(hands[1])
	c.Feed(nil)
	second := c.Compute()

	if first.TotalHands != 1 || second.TotalHands != 2 {
		t.Fatalf("hands = %d then %d", first.TotalHands, second.TotalHands)
	}
	if first.ByPosition[parser.PosBB] != nil {
		t.Error("earlier snapshot changed by later Feed")
	}
}
