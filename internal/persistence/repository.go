package persistence

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

type HandFilter struct {
	// Player keeps hands where this name held a seat.
	Player string
	Table  string
	// HeroOnly keeps hands with a "Dealt to" line.
	HeroOnly bool
	// Limit == 0 means no limit.
	Limit  int
	Offset int
}

// HandSourceRef locates a hand block inside an imported file.
type HandSourceRef struct {
	SourcePath string
	StartByte  int64
	EndByte    int64
	HandUID    string
}

type PersistedHand struct {
	Hand   *parser.Hand
	Source HandSourceRef
}

// HandSummary is a lightweight hand record for list display.
type HandSummary struct {
	HandUID    string
	HandID     string
	Table      string
	NumPlayers int
	SmallBlind int
	BigBlind   int
	TotalPot   int

	// Hero fields are zero when the hand has no hero.
	Hero         string
	HeroCards    string // e.g. "Ah Kd"
	HeroPosition string
	HeroNet      int
	HeroWon      bool

	Board string // e.g. "Ah Kd 2c"
}

type UpsertResult struct {
	Inserted int
	Updated  int
	Skipped  int
}

// ImportCursor remembers how far a source file has been imported.
type ImportCursor struct {
	SourcePath     string
	NextByteOffset int64
	FileSize       int64
	ModTime        time.Time
	LastHandUID    string
	// IsFullyImported is set once the cursor reached the end of a file whose
	// size and modification time still match.
	IsFullyImported bool
	UpdatedAt       time.Time
}

// Unchanged reports whether a file with the given size and modification
// time was already imported in full.
func (c *ImportCursor) Unchanged(size int64, modTime time.Time) bool {
	return c != nil && c.IsFullyImported && c.FileSize == size && c.ModTime.Equal(modTime)
}

// ImportRun is one entry of the import log.
type ImportRun struct {
	ID         string
	SourcePath string
	StartedAt  time.Time
	FinishedAt time.Time
	Result     UpsertResult
	Err        string
}

// NewImportRun starts a run for sourcePath with a fresh random ID.
func NewImportRun(sourcePath string, startedAt time.Time) ImportRun {
	return ImportRun{ID: uuid.NewString(), SourcePath: sourcePath, StartedAt: startedAt}
}

type HandRepository interface {
	UpsertHands(ctx context.Context, hands []PersistedHand) (UpsertResult, error)
	// ListHands returns matching hands newest first (highest hand number).
	ListHands(ctx context.Context, f HandFilter) ([]*parser.Hand, error)
	CountHands(ctx context.Context, f HandFilter) (int, error)
	// ListHandSummaries returns one page of summaries and the total count of
	// matching hands (ignoring Limit/Offset).
	ListHandSummaries(ctx context.Context, f HandFilter) ([]HandSummary, int, error)
	// GetHandByUID returns nil, nil if not found.
	GetHandByUID(ctx context.Context, uid string) (*parser.Hand, error)
}

type CursorRepository interface {
	// GetCursor returns nil, nil if the source has never been imported.
	GetCursor(ctx context.Context, sourcePath string) (*ImportCursor, error)
	SaveCursor(ctx context.Context, c ImportCursor) error
}

type ImportRepository interface {
	HandRepository
	CursorRepository
	// SaveImportBatch upserts hands and advances the cursor atomically.
	SaveImportBatch(ctx context.Context, hands []PersistedHand, cursor ImportCursor) (UpsertResult, error)
	RecordImportRun(ctx context.Context, run ImportRun) error
	// ListImportRuns returns the most recent runs first.
	ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error)
}

// ResolveHandUID returns the UID carried by the source, or the content hash
// of the hand when the source has none.
func ResolveHandUID(ph PersistedHand) string {
	if ph.Source.HandUID != "" {
		return ph.Source.HandUID
	}
	return parser.HandUID(ph.Hand)
}

// Summarize derives the list row for h.
func Summarize(uid string, h *parser.Hand) HandSummary {
	s := HandSummary{
		HandUID:    uid,
		HandID:     h.ID,
		Table:      h.Table,
		NumPlayers: len(h.Players),
		SmallBlind: h.SmallBlind,
		BigBlind:   h.BigBlind,
		TotalPot:   totalPot(h),
		Board:      strings.Join(h.Board, " "),
	}
	if p, ok := h.Players[h.Hero]; ok {
		s.Hero = p.Name
		s.HeroCards = strings.Join(p.Cards, " ")
		if p.Position != parser.PosUnknown {
			s.HeroPosition = p.Position.String()
		}
		s.HeroNet = -h.Invested[p.Name]
		for _, w := range h.Winners {
			if w.Player == p.Name {
				s.HeroNet = w.Net
				s.HeroWon = true
			}
		}
	}
	return s
}

func totalPot(h *parser.Hand) int {
	pot := 0
	for _, v := range h.Invested {
		pot += v
	}
	return pot
}

// handNumber is the numeric form of a hand ID, 0 when it is not numeric.
func handNumber(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func matchesFilter(h *parser.Hand, f HandFilter) bool {
	if f.Player != "" {
		if _, ok := h.Players[f.Player]; !ok {
			return false
		}
	}
	if f.Table != "" && h.Table != f.Table {
		return false
	}
	if f.HeroOnly && h.Hero == "" {
		return false
	}
	return true
}

// page applies Limit/Offset to n rows and returns the [lo, hi) window.
func page(n int, f HandFilter) (int, int) {
	lo := min(max(f.Offset, 0), n)
	hi := n
	if f.Limit > 0 {
		hi = min(lo+f.Limit, n)
	}
	return lo, hi
}

type uidHand struct {
	uid  string
	hand *parser.Hand
}

// sortNewestFirst orders by hand number descending, then UID.
func sortNewestFirst(rows []uidHand) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := handNumber(rows[i].hand.ID), handNumber(rows[j].hand.ID)
		if a != b {
			return a > b
		}
		return rows[i].uid < rows[j].uid
	})
}
