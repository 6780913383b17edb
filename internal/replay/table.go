package replay

import "github.com/AkatukiSora/hhreplay/internal/parser"

// Table memoizes the snapshot of every addressable cursor of one hand.
type Table struct {
	hand  *parser.Hand
	snaps map[string]Snapshot
}

// BuildTable precomputes snapshots for every street at indexes -1 through
// the last action, plus the showdown cursor.
func BuildTable(h *parser.Hand) *Table {
	t := &Table{hand: h, snaps: make(map[string]Snapshot)}
	if h == nil {
		return t
	}
	for _, st := range parser.BettingStreets {
		for i := -1; i < len(h.Actions[st]); i++ {
			c := Cursor{Street: st, Index: i}
			t.snaps[c.Key()] = Compute(h, c)
		}
	}
	sd := Neutral(parser.StreetShowdown)
	t.snaps[sd.Key()] = Compute(h, sd)
	return t
}

// Hand returns the hand the table was built for.
func (t *Table) Hand() *parser.Hand { return t.hand }

// Len returns the number of memoized cursors.
func (t *Table) Len() int { return len(t.snaps) }

// Lookup returns the memoized snapshot for c, computing it on a miss.
// The returned maps are shared and must not be modified.
func (t *Table) Lookup(c Cursor) Snapshot {
	if s, ok := t.snaps[c.Key()]; ok {
		return s
	}
	return Compute(t.hand, c)
}
