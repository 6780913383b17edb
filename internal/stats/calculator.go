// Package stats aggregates per-player statistics over parsed hands.
package stats

import (
	"github.com/AkatukiSora/hhreplay/internal/parser"
)

// Stats holds aggregated statistics for one player.
type Stats struct {
	Player        string
	TotalHands    int
	WonHands      int
	ShowdownHands int
	WonShowdowns  int

	// NetChips is the sum of per-hand results; NetBB only covers hands with
	// a known big blind.
	NetChips int
	NetBB    float64

	ByPosition map[parser.Position]*PositionStats
	Metrics    map[MetricID]MetricValue
}

// PositionStats holds stats for a specific position
type PositionStats struct {
	Position parser.Position
	Hands    int
	Won      int
	VPIP     int
	PFR      int
	NetChips int
}

// Calculator accumulates statistics for one player hand by hand. Feed hands
// one at a time and call Compute whenever a current view is needed.
type Calculator struct {
	player string

	s      *Stats
	counts map[MetricID]int
	opps   map[MetricID]int
	bbNet  float64
	bbHand int
}

// NewCalculator creates a calculator for player. An empty player tracks the
// hero of each hand.
func NewCalculator(player string) *Calculator {
	return &Calculator{
		player: player,
		s: &Stats{
			Player:     player,
			ByPosition: make(map[parser.Position]*PositionStats),
			Metrics:    make(map[MetricID]MetricValue),
		},
		counts: make(map[MetricID]int),
		opps:   make(map[MetricID]int),
	}
}

// Calculate computes statistics for player over hands.
func Calculate(hands []*parser.Hand, player string) *Stats {
	c := NewCalculator(player)
	for _, h := range hands {
		c.Feed(h)
	}
	return c.Compute()
}

// Feed processes a single hand. Hands the player was not dealt into are
// skipped.
func (c *Calculator) Feed(h *parser.Hand) {
	if h == nil {
		return
	}
	name := c.player
	if name == "" {
		name = h.Hero
	}
	if name == "" {
		return
	}
	f, ok := factsFor(h, name)
	if !ok {
		return
	}

	s := c.s
	s.TotalHands++
	s.NetChips += f.net

	ps := c.ensurePositionStats(f.position)
	ps.Hands++
	ps.NetChips += f.net

	c.tally(MetricVPIP, true, f.vpip)
	c.tally(MetricPFR, true, f.pfr)
	c.tally(MetricThreeBet, f.threeBetOpp, f.threeBet)
	c.tally(MetricFoldToThreeBet, f.foldTo3BetOpp, f.foldTo3Bet)
	c.tally(MetricFlopCBet, f.cbetOpp, f.cbet)
	c.tally(MetricWTSD, f.sawFlop, f.showedDown)
	c.tally(MetricWSD, f.showedDown, f.won)
	c.tally(MetricWWSF, f.sawFlop, f.won)
	c.tally(MetricWonWithoutSD, true, f.won && !f.showedDown)

	if f.vpip {
		ps.VPIP++
	}
	if f.pfr {
		ps.PFR++
	}
	if f.won {
		s.WonHands++
		ps.Won++
	}
	if f.showedDown {
		s.ShowdownHands++
		if f.won {
			s.WonShowdowns++
		}
	}
	if f.bigBlind > 0 {
		c.bbNet += float64(f.net) / float64(f.bigBlind)
		c.bbHand++
	}
}

func (c *Calculator) tally(id MetricID, opp, hit bool) {
	if !opp {
		return
	}
	c.opps[id]++
	if hit {
		c.counts[id]++
	}
}

// Compute returns the statistics accumulated so far. The result is a copy;
// later Feed calls do not change it.
func (c *Calculator) Compute() *Stats {
	out := *c.s
	out.NetBB = c.bbNet
	out.ByPosition = make(map[parser.Position]*PositionStats, len(c.s.ByPosition))
	for pos, ps := range c.s.ByPosition {
		cp := *ps
		out.ByPosition[pos] = &cp
	}
	out.Metrics = make(map[MetricID]MetricValue, len(Registry))
	for _, def := range Registry {
		v := MetricValue{
			ID:        def.ID,
			Label:     def.Label,
			Format:    def.Format,
			MinSample: confidenceThreshold(def.SampleClass),
		}
		if def.ID == MetricBBPer100 {
			v.Count = c.bbHand
			v.Opportunity = c.bbHand
			if c.bbHand > 0 {
				v.Rate = c.bbNet * 100 / float64(c.bbHand)
			}
		} else {
			v.Count = c.counts[def.ID]
			v.Opportunity = c.opps[def.ID]
			if v.Opportunity > 0 {
				v.Rate = float64(v.Count) / float64(v.Opportunity)
			}
		}
		v.Confident = v.Opportunity >= v.MinSample
		out.Metrics[def.ID] = v
	}
	return &out
}

// ensurePositionStats gets or creates position stats
func (c *Calculator) ensurePositionStats(pos parser.Position) *PositionStats {
	if ps, ok := c.s.ByPosition[pos]; ok {
		return ps
	}
	ps := &PositionStats{Position: pos}
	c.s.ByPosition[pos] = ps
	return ps
}
