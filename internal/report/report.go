// Package report renders hands and replay positions for the terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/AkatukiSora/hhreplay/internal/evaluator"
	"github.com/AkatukiSora/hhreplay/internal/parser"
	"github.com/AkatukiSora/hhreplay/internal/persistence"
	"github.com/AkatukiSora/hhreplay/internal/replay"
	"github.com/AkatukiSora/hhreplay/internal/stats"
)

// HandList renders stored hand summaries as a table. total is the number of
// hands matching the filter, which may exceed len(rows).
func HandList(w io.Writer, rows []persistence.HandSummary, total int) error {
	data := pterm.TableData{{"Hand", "Table", "Blinds", "Players", "Pot", "Hero", "Net", "Board", "UID"}}
	for _, r := range rows {
		data = append(data, []string{
			"#" + r.HandID,
			r.Table,
			blinds(r.SmallBlind, r.BigBlind),
			fmt.Sprint(r.NumPlayers),
			humanize.Comma(int64(r.TotalPot)),
			heroCell(r),
			netCell(r),
			dash(r.Board),
			shortUID(r.HandUID),
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render hand list: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\nshowing %d of %s hands\n", out, len(rows), humanize.Comma(int64(total)))
	return err
}

// PlayerStats renders aggregated statistics: the metric registry in order,
// then a per-position breakdown. Metrics below their sample threshold are
// marked with "*".
func PlayerStats(w io.Writer, s *stats.Stats) error {
	who := s.Player
	if who == "" {
		who = "hero"
	}
	if _, err := fmt.Fprintf(w, "%s: %s hands, net %s chips (%+.2f BB)\n",
		who, humanize.Comma(int64(s.TotalHands)), humanize.Comma(int64(s.NetChips)), s.NetBB); err != nil {
		return err
	}

	metrics := pterm.TableData{{"Metric", "Value", "Sample"}}
	for _, def := range stats.Registry {
		v := s.Metrics[def.ID]
		value := fmt.Sprintf("%.1f%%", v.Rate*100)
		if def.Format == stats.MetricFormatBBPer100 {
			value = fmt.Sprintf("%+.2f", v.Rate)
		}
		if !v.Confident {
			value += "*"
		}
		metrics = append(metrics, []string{v.Label, value, fmt.Sprintf("%d/%d", v.Count, v.Opportunity)})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(metrics).Srender()
	if err != nil {
		return fmt.Errorf("render metrics: %w", err)
	}
	if _, err := fmt.Fprintln(w, out); err != nil {
		return err
	}

	positions := make([]*stats.PositionStats, 0, len(s.ByPosition))
	for _, ps := range s.ByPosition {
		positions = append(positions, ps)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Position < positions[j].Position })
	byPos := pterm.TableData{{"Pos", "Hands", "Won", "VPIP", "PFR", "Net"}}
	for _, ps := range positions {
		byPos = append(byPos, []string{
			dash(ps.Position.String()),
			fmt.Sprint(ps.Hands),
			fmt.Sprint(ps.Won),
			fmt.Sprint(ps.VPIP),
			fmt.Sprint(ps.PFR),
			humanize.Comma(int64(ps.NetChips)),
		})
	}
	out, err = pterm.DefaultTable.WithHasHeader().WithData(byPos).Srender()
	if err != nil {
		return fmt.Errorf("render positions: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Hand renders one parsed hand: players, actions per street and the result.
func Hand(w io.Writer, h *parser.Hand) error {
	if h == nil {
		return fmt.Errorf("render hand: nil hand")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table %s  blinds %s", dash(h.Table), blinds(h.SmallBlind, h.BigBlind))
	if h.AnteTotal > 0 {
		fmt.Fprintf(&b, "  antes %s", humanize.Comma(int64(h.AnteTotal)))
	}
	b.WriteString("\n\n")

	players := pterm.TableData{{"Seat", "Player", "Pos", "Stack", "Cards"}}
	for _, p := range h.SortedPlayers() {
		name := p.Name
		if p.Hero {
			name += " (hero)"
		}
		players = append(players, []string{
			fmt.Sprint(p.Seat),
			name,
			dash(p.Position.String()),
			replay.FormatBB(p.Stack, h.BigBlind),
			dash(strings.Join(p.Cards, " ")),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(players).Srender()
	if err != nil {
		return fmt.Errorf("render players: %w", err)
	}
	b.WriteString(table)
	b.WriteString("\n")

	for _, st := range parser.BettingStreets {
		actions := h.StreetActions(st)
		if len(actions) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s", strings.ToUpper(st.String()))
		if board := streetBoard(h, st); board != "" {
			fmt.Fprintf(&b, " [%s]", board)
		}
		b.WriteString("\n")
		for _, a := range actions {
			fmt.Fprintf(&b, "  %s\n", describeAction(a, h.BigBlind))
		}
	}

	if res := result(h); res != "" {
		b.WriteString("\n")
		b.WriteString(res)
	}

	box := pterm.DefaultBox.WithTitle("Hand #" + h.ID).WithHorizontalPadding(2)
	_, err = fmt.Fprintln(w, box.Sprint(strings.TrimRight(b.String(), "\n")))
	return err
}

// State renders a single line describing a replay position, e.g.
// "flop 2/5 | pot 12.00 BB | next: bob".
func State(w io.Writer, s replay.State) error {
	_, err := fmt.Fprintln(w, StateLine(s))
	return err
}

// StateLine is the text State writes, without the newline.
func StateLine(s replay.State) string {
	if s.Hand == nil {
		return "no hand"
	}
	h := s.Hand
	snap := s.Snapshot()

	parts := []string{position(s), "pot " + replay.FormatBB(snap.Pot, h.BigBlind)}

	bets := replay.VisibleBets(s)
	names := make([]string, 0, len(bets))
	for name, v := range bets {
		if v > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) > 0 {
		cells := make([]string, len(names))
		for i, n := range names {
			cells[i] = n + " " + replay.FormatBB(bets[n], h.BigBlind)
		}
		label := "bets"
		if s.Award == replay.AwardShown {
			label = "wins"
		}
		parts = append(parts, label+" "+strings.Join(cells, ", "))
	}

	if s.Award == replay.AwardNone {
		if next, ok := replay.NextToAct(h, s.Cursor); ok {
			parts = append(parts, "next: "+next.Player)
		}
	}
	return strings.Join(parts, " | ")
}

func position(s replay.State) string {
	switch {
	case s.Award == replay.AwardApplied:
		return "settled"
	case s.Award == replay.AwardShown:
		return "award"
	case s.Cursor.Street >= parser.StreetShowdown:
		return "showdown"
	case s.Cursor.IsNeutral():
		return s.Cursor.Street.String()
	}
	total := 0
	step := 0
	for i, a := range s.Hand.StreetActions(s.Cursor.Street) {
		if a.Type == parser.ActionPosts {
			continue
		}
		total++
		if i <= s.Cursor.Index {
			step++
		}
	}
	return fmt.Sprintf("%s %d/%d", s.Cursor.Street, step, total)
}

func describeAction(a parser.Action, bigBlind int) string {
	switch a.Type {
	case parser.ActionFolds, parser.ActionChecks:
		return a.Player + " " + a.Type.String()
	case parser.ActionRaises:
		return fmt.Sprintf("%s raises to %s", a.Player, replay.FormatBB(a.Amount, bigBlind))
	case parser.ActionPosts:
		kind := "blind"
		if a.Ante {
			kind = "ante"
		}
		return fmt.Sprintf("%s posts %s %s", a.Player, kind, replay.FormatBB(a.Amount, bigBlind))
	case parser.ActionUnknown:
		return a.Raw
	}
	return fmt.Sprintf("%s %s %s", a.Player, a.Type, replay.FormatBB(a.Amount, bigBlind))
}

func result(h *parser.Hand) string {
	var b strings.Builder
	if len(h.Board) > 0 {
		fmt.Fprintf(&b, "Board %s\n", strings.Join(h.Board, " "))
	}
	// Unparseable cards only lose the hand descriptions.
	shown, _ := evaluator.DescribeShown(h)
	for _, w := range parser.ExtractWinners(h) {
		fmt.Fprintf(&b, "%s wins %s", w.Player, humanize.Comma(int64(w.Amount)))
		if desc, ok := shown[w.Player]; ok {
			fmt.Fprintf(&b, " with %s", desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func streetBoard(h *parser.Hand, st parser.Street) string {
	n := 0
	switch st {
	case parser.StreetFlop:
		n = 3
	case parser.StreetTurn:
		n = 4
	case parser.StreetRiver:
		n = 5
	}
	return strings.Join(h.Board[:min(n, len(h.Board))], " ")
}

func heroCell(r persistence.HandSummary) string {
	if r.Hero == "" {
		return "-"
	}
	cell := r.Hero
	if r.HeroPosition != "" {
		cell += " " + r.HeroPosition
	}
	if r.HeroCards != "" {
		cell += " [" + r.HeroCards + "]"
	}
	return cell
}

func netCell(r persistence.HandSummary) string {
	if r.Hero == "" {
		return "-"
	}
	if r.HeroNet > 0 {
		return "+" + replay.FormatBB(r.HeroNet, r.BigBlind)
	}
	return replay.FormatBB(r.HeroNet, r.BigBlind)
}

func blinds(sb, bb int) string {
	return humanize.Comma(int64(sb)) + "/" + humanize.Comma(int64(bb))
}

func shortUID(uid string) string {
	if len(uid) > 12 {
		return uid[:12]
	}
	return uid
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
