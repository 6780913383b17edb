package parser

import (
	"fmt"
	"strings"
	"testing"
)

// buildTable renders a minimal hand with players seated at seats and the
// big blind posted by the player at bbSeat.
func buildTable(seats []int, bbSeat int) string {
	var b strings.Builder
	b.WriteString("Hand #5: Hold'em No Limit (1/2)\n")
	for _, s := range seats {
		fmt.Fprintf(&b, "Seat %d: p%d (200 in chips)\n", s, s)
	}
	if bbSeat > 0 {
		fmt.Fprintf(&b, "p%d: posts big blind 2\n", bbSeat)
	}
	return b.String()
}

func TestPositionAssignmentSixHanded(t *testing.T) {
	t.Parallel()

	// Seat numbers are sparse; labels follow seat order, not raw numbers.
	seats := []int{2, 3, 5, 7, 8, 9}
	h := Parse(buildTable(seats, 5))[0]

	want := map[string]Position{
		"p7": PosLJ,
		"p8": PosHJ,
		"p9": PosCO,
		"p2": PosBTN,
		"p3": PosSB,
		"p5": PosBB,
	}
	for name, pos := range want {
		if got := h.Players[name].Position; got != pos {
			t.Errorf("%s: expected %s, got %s", name, pos, got)
		}
	}
}

func TestPositionAssignmentBySize(t *testing.T) {
	t.Parallel()

	for n := 2; n <= 8; n++ {
		seats := make([]int, n)
		for i := range seats {
			seats[i] = i + 1
		}
		// BB in the last seat means labels map onto seats in order.
		h := Parse(buildTable(seats, n))[0]
		labels := PositionLabels(n)
		for i, s := range seats {
			p := h.Players[fmt.Sprintf("p%d", s)]
			if p.Position != labels[i] {
				t.Errorf("n=%d seat %d: expected %s, got %s", n, s, labels[i], p.Position)
			}
		}
		if labels[n-1] != PosBB {
			t.Errorf("n=%d: last label should be BB, got %s", n, labels[n-1])
		}
	}
}

func TestPositionAssignmentEightHandedHasUTG1(t *testing.T) {
	t.Parallel()

	labels := PositionLabels(8)
	seen := make(map[Position]bool)
	for _, l := range labels {
		if seen[l] {
			t.Fatalf("duplicate label %s in 8-handed table", l)
		}
		seen[l] = true
	}
	if !seen[PosUTG1] {
		t.Error("expected UTG+1 in 8-handed labels")
	}
}

func TestPositionAssignmentWithoutBigBlind(t *testing.T) {
	t.Parallel()

	h := Parse(buildTable([]int{1, 2, 3}, 0))[0]
	for name, p := range h.Players {
		if p.Position != PosUnknown {
			t.Errorf("%s: expected no position, got %s", name, p.Position)
		}
	}
}

func TestPositionAssignmentOutOfRangeSize(t *testing.T) {
	t.Parallel()

	seats := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	h := Parse(buildTable(seats, 9))[0]
	for name, p := range h.Players {
		if p.Position != PosUnknown {
			t.Errorf("%s: expected no position at 9 players, got %s", name, p.Position)
		}
	}
	if PositionLabels(1) != nil || PositionLabels(9) != nil {
		t.Error("expected nil labels outside 2..8")
	}
}

func TestBigBlindPosterIgnoresAntes(t *testing.T) {
	t.Parallel()

	text := "Hand #6: Hold'em (50/100)\n" +
		"Seat 1: a (1000 in chips)\nSeat 2: b (1000 in chips)\nSeat 3: c (1000 in chips)\n" +
		"a: posts the ante 100\n" +
		"b: posts small blind 50\n" +
		"c: posts big blind 100\n"
	h := Parse(text)[0]
	bb, ok := BigBlindPoster(h)
	if !ok || bb != "c" {
		t.Fatalf("expected big blind poster c, got %q (ok=%v)", bb, ok)
	}
	if h.Players["a"].Position != PosBTN {
		t.Errorf("expected a at BTN, got %s", h.Players["a"].Position)
	}
	if h.PlayerAt(PosSB).Name != "b" {
		t.Errorf("expected b at SB")
	}
}
