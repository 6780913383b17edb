package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

type inMemoryEntry struct {
	hand   *parser.Hand
	source HandSourceRef
}

type MemoryRepository struct {
	mu      sync.RWMutex
	hands   map[string]inMemoryEntry
	cursors map[string]ImportCursor
	runs    []ImportRun
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		hands:   make(map[string]inMemoryEntry),
		cursors: make(map[string]ImportCursor),
	}
}

func (r *MemoryRepository) UpsertHands(_ context.Context, hands []PersistedHand) (UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertHandsLocked(hands), nil
}

func (r *MemoryRepository) upsertHandsLocked(hands []PersistedHand) UpsertResult {
	res := UpsertResult{}
	for _, ph := range hands {
		if ph.Hand == nil {
			res.Skipped++
			continue
		}
		uid := ResolveHandUID(ph)
		if _, ok := r.hands[uid]; ok {
			res.Updated++
		} else {
			res.Inserted++
		}
		r.hands[uid] = inMemoryEntry{hand: parser.CloneHand(ph.Hand), source: ph.Source}
	}
	return res
}

func (r *MemoryRepository) matchingLocked(f HandFilter) []uidHand {
	rows := make([]uidHand, 0, len(r.hands))
	for uid, entry := range r.hands {
		if entry.hand == nil || !matchesFilter(entry.hand, f) {
			continue
		}
		rows = append(rows, uidHand{uid: uid, hand: entry.hand})
	}
	sortNewestFirst(rows)
	return rows
}

func (r *MemoryRepository) ListHands(_ context.Context, f HandFilter) ([]*parser.Hand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.matchingLocked(f)
	lo, hi := page(len(rows), f)
	out := make([]*parser.Hand, 0, hi-lo)
	for _, row := range rows[lo:hi] {
		out = append(out, parser.CloneHand(row.hand))
	}
	return out, nil
}

func (r *MemoryRepository) CountHands(_ context.Context, f HandFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matchingLocked(f)), nil
}

func (r *MemoryRepository) ListHandSummaries(_ context.Context, f HandFilter) ([]HandSummary, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.matchingLocked(f)
	lo, hi := page(len(rows), f)
	out := make([]HandSummary, 0, hi-lo)
	for _, row := range rows[lo:hi] {
		out = append(out, Summarize(row.uid, row.hand))
	}
	return out, len(rows), nil
}

func (r *MemoryRepository) GetHandByUID(_ context.Context, uid string) (*parser.Hand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.hands[uid]
	if !ok {
		return nil, nil
	}
	return parser.CloneHand(entry.hand), nil
}

func (r *MemoryRepository) GetCursor(_ context.Context, sourcePath string) (*ImportCursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cursors[sourcePath]
	if !ok {
		return nil, nil
	}
	copyCursor := c
	return &copyCursor, nil
}

func (r *MemoryRepository) SaveCursor(_ context.Context, c ImportCursor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCursorLocked(c)
	return nil
}

func (r *MemoryRepository) saveCursorLocked(c ImportCursor) {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	r.cursors[c.SourcePath] = c
}

func (r *MemoryRepository) SaveImportBatch(_ context.Context, hands []PersistedHand, c ImportCursor) (UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.upsertHandsLocked(hands)
	r.saveCursorLocked(c)
	return res, nil
}

func (r *MemoryRepository) RecordImportRun(_ context.Context, run ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.runs {
		if r.runs[i].ID == run.ID {
			r.runs[i] = run
			return nil
		}
	}
	r.runs = append(r.runs, run)
	return nil
}

func (r *MemoryRepository) ListImportRuns(_ context.Context, limit int) ([]ImportRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]ImportRun(nil), r.runs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
