package parser

import "testing"

func TestExtractWinnersPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hand     *Hand
		wantKind WinnerSourceKind
		want     []Payout
	}{
		{
			name: "structured wins over everything",
			hand: &Hand{
				Winners:      []Payout{{Player: "X", Amount: 10}},
				Collected:    []Payout{{Player: "Y", Amount: 20}},
				SummaryLines: []string{"Z collected 30 from pot"},
			},
			wantKind: WinnerSourceStructured,
			want:     []Payout{{Player: "X", Amount: 10, Net: 10}},
		},
		{
			name: "collected overwrites per player",
			hand: &Hand{
				Collected: []Payout{{Player: "Y", Amount: 20}, {Player: "Y", Amount: 25}},
			},
			wantKind: WinnerSourceCollected,
			want:     []Payout{{Player: "Y", Amount: 25, Net: 25}},
		},
		{
			name: "summary text shapes",
			hand: &Hand{
				SummaryLines: []string{
					"*** SUMMARY ***",
					"Seat 1: alpha (button) won (120)",
					"Seat 2: beta (small blind) collected (300)",
					"gamma collected (40)",
				},
			},
			wantKind: WinnerSourceSummaryText,
			want: []Payout{
				{Player: "beta", Amount: 300, Net: 300},
				{Player: "alpha", Amount: 120, Net: 120},
				{Player: "gamma", Amount: 40, Net: 40},
			},
		},
		{
			name: "later summary line overwrites",
			hand: &Hand{
				SummaryLines: []string{
					"alpha collected 100 from pot",
					"Seat 1: alpha showed [Ah Ad] and won (150)",
				},
			},
			wantKind: WinnerSourceSummaryText,
			want:     []Payout{{Player: "alpha", Amount: 150, Net: 150}},
		},
		{
			name: "raw fallback without summary",
			hand: &Hand{
				Raw: "Hand #1\nalpha collected 1,250 from side pot",
			},
			wantKind: WinnerSourceSummaryText,
			want:     []Payout{{Player: "alpha", Amount: 1250, Net: 1250}},
		},
		{
			name:     "nothing detectable",
			hand:     &Hand{Raw: "Hand #1"},
			wantKind: WinnerSourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, kind := ExtractWinnersFrom(tt.hand, WinnerSources)
			if kind != tt.wantKind {
				t.Errorf("expected source %s, got %s", tt.wantKind, kind)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d winners, got %+v", len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("winner %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestExtractWinnersNetSubtractsInvestment(t *testing.T) {
	t.Parallel()

	h := &Hand{
		Collected: []Payout{{Player: "a", Amount: 600}},
		Invested:  map[string]int{"a": 250},
	}
	got := ExtractWinners(h)
	if len(got) != 1 || got[0].Net != 350 {
		t.Errorf("expected net 350, got %+v", got)
	}
}

func TestExtractWinnersSplitPot(t *testing.T) {
	t.Parallel()

	h := Parse(`Hand #9: Hold'em (5/10)
Seat 1: a (100 in chips)
Seat 2: b (100 in chips)
a: posts small blind 5
b: posts big blind 10
a: calls 5
b: checks
*** FLOP *** [2c 3d 4h]
a: checks
b: checks
*** TURN *** [2c 3d 4h] [5s]
a: checks
b: checks
*** RIVER *** [2c 3d 4h 5s] [6c]
a: checks
b: checks
*** SHOW DOWN ***
a collected 10 from pot
b collected 10 from pot
*** SUMMARY ***`)[0]
	if len(h.Winners) != 2 {
		t.Fatalf("expected split pot winners, got %+v", h.Winners)
	}
	for _, w := range h.Winners {
		if w.Amount != 10 || w.Net != 0 {
			t.Errorf("expected gross 10 net 0, got %+v", w)
		}
	}
}
