package persistence

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

const fixtureLog = `Hand #7: Hold'em No Limit (50/100)
Table 'Alpha' 6-max Seat #1 is the button
Seat 1: hero (1000 in chips)
Seat 2: villain (1000 in chips)
hero: posts small blind 50
villain: posts big blind 100
Dealt to hero [Ah Kd]
hero: raises to 300
villain: calls 200
*** FLOP *** [2c 7d Jh]
hero: bets 200
villain: folds
Uncalled bet (200) returned to hero
hero collected 600 from pot
*** SUMMARY ***

Hand #9: Hold'em No Limit (50/100)
Table 'Beta' 6-max Seat #2 is the button
Seat 1: hero (1000 in chips)
Seat 2: other (1000 in chips)
hero: posts small blind 50
other: posts big blind 100
Dealt to hero [7c 2d]
hero: folds
other collected 100 from pot
*** SUMMARY ***

Hand #8: Hold'em No Limit (50/100)
Table 'Alpha' 6-max Seat #2 is the button
Seat 1: villain (1000 in chips)
Seat 2: other (1000 in chips)
villain: posts small blind 50
other: posts big blind 100
villain: folds
other collected 100 from pot
*** SUMMARY ***`

func fixtureHands(t *testing.T) []PersistedHand {
	t.Helper()
	hands := parser.Parse(fixtureLog)
	if len(hands) != 3 {
		t.Fatalf("fixture parsed into %d hands, want 3", len(hands))
	}
	out := make([]PersistedHand, 0, len(hands))
	for i, h := range hands {
		out = append(out, PersistedHand{
			Hand: h,
			Source: HandSourceRef{
				SourcePath: "hh.txt",
				StartByte:  int64(i * 100),
				EndByte:    int64(i*100 + 99),
			},
		})
	}
	return out
}

type repoCase struct {
	name    string
	newRepo func(t *testing.T) ImportRepository
}

func repoCases() []repoCase {
	return []repoCase{
		{
			name: "memory",
			newRepo: func(_ *testing.T) ImportRepository {
				return NewMemoryRepository()
			},
		},
		{
			name: "sqlite",
			newRepo: func(t *testing.T) ImportRepository {
				repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "hands.db"))
				if err != nil {
					t.Fatalf("new sqlite repo: %v", err)
				}
				t.Cleanup(func() {
					_ = repo.Close()
				})
				return repo
			},
		},
	}
}

func TestSaveImportBatchParity(t *testing.T) {
	t.Parallel()

	for _, tt := range repoCases() {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			repo := tt.newRepo(t)
			hands := fixtureHands(t)

			cursor := ImportCursor{
				SourcePath:      "hh.txt",
				NextByteOffset:  299,
				FileSize:        299,
				ModTime:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				LastHandUID:     parser.HandUID(hands[len(hands)-1].Hand),
				IsFullyImported: true,
			}
			batch := append(hands, PersistedHand{})

			res, err := repo.SaveImportBatch(ctx, batch, cursor)
			if err != nil {
				t.Fatalf("first save import batch: %v", err)
			}
			if res != (UpsertResult{Inserted: 3, Skipped: 1}) {
				t.Fatalf("first upsert result: %+v", res)
			}

			res, err = repo.SaveImportBatch(ctx, hands, cursor)
			if err != nil {
				t.Fatalf("second save import batch: %v", err)
			}
			if res != (UpsertResult{Updated: 3}) {
				t.Fatalf("second upsert should update existing rows: %+v", res)
			}

			saved, err := repo.GetCursor(ctx, "hh.txt")
			if err != nil {
				t.Fatalf("get cursor: %v", err)
			}
			if saved == nil || saved.NextByteOffset != 299 || saved.LastHandUID != cursor.LastHandUID {
				t.Fatalf("cursor not saved correctly: %+v", saved)
			}
			if !saved.Unchanged(299, cursor.ModTime) {
				t.Fatalf("cursor should report unchanged file: %+v", saved)
			}
			if saved.Unchanged(300, cursor.ModTime) {
				t.Fatalf("cursor should notice a grown file")
			}

			missing, err := repo.GetCursor(ctx, "nope.txt")
			if err != nil || missing != nil {
				t.Fatalf("missing cursor = %+v, %v; want nil, nil", missing, err)
			}
		})
	}
}

func TestListHandsOrderAndFilters(t *testing.T) {
	t.Parallel()

	for _, tt := range repoCases() {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			repo := tt.newRepo(t)
			if _, err := repo.UpsertHands(ctx, fixtureHands(t)); err != nil {
				t.Fatalf("upsert: %v", err)
			}

			tests := []struct {
				name   string
				filter HandFilter
				want   []string
			}{
				{name: "all newest first", filter: HandFilter{}, want: []string{"9", "8", "7"}},
				{name: "player", filter: HandFilter{Player: "villain"}, want: []string{"8", "7"}},
				{name: "table", filter: HandFilter{Table: "Beta"}, want: []string{"9"}},
				{name: "hero only", filter: HandFilter{HeroOnly: true}, want: []string{"9", "7"}},
				{name: "page", filter: HandFilter{Limit: 1, Offset: 1}, want: []string{"8"}},
				{name: "offset only", filter: HandFilter{Offset: 2}, want: []string{"7"}},
				{name: "no match", filter: HandFilter{Player: "ghost"}, want: []string{}},
			}
			for _, tc := range tests {
				hands, err := repo.ListHands(ctx, tc.filter)
				if err != nil {
					t.Fatalf("%s: list hands: %v", tc.name, err)
				}
				got := make([]string, 0, len(hands))
				for _, h := range hands {
					got = append(got, h.ID)
				}
				if !reflect.DeepEqual(got, tc.want) {
					t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
				}
			}

			n, err := repo.CountHands(ctx, HandFilter{Table: "Alpha", Limit: 1})
			if err != nil {
				t.Fatalf("count hands: %v", err)
			}
			if n != 2 {
				t.Fatalf("count = %d, want 2 (limit ignored)", n)
			}
		})
	}
}

func TestGetHandByUIDRoundTrip(t *testing.T) {
	t.Parallel()

	for _, tt := range repoCases() {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			repo := tt.newRepo(t)
			hands := fixtureHands(t)
			if _, err := repo.UpsertHands(ctx, hands); err != nil {
				t.Fatalf("upsert: %v", err)
			}

			want := hands[2].Hand
			got, err := repo.GetHandByUID(ctx, parser.HandUID(want))
			if err != nil {
				t.Fatalf("get hand: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
			got.Players["hero"].Stack = 1

			again, err := repo.GetHandByUID(ctx, parser.HandUID(want))
			if err != nil {
				t.Fatalf("get hand again: %v", err)
			}
			if again.Players["hero"].Stack != 1000 {
				t.Fatalf("stored hand was mutated through a returned copy")
			}

			none, err := repo.GetHandByUID(ctx, "missing")
			if err != nil || none != nil {
				t.Fatalf("missing hand = %v, %v; want nil, nil", none, err)
			}
		})
	}
}

func TestListHandSummaries(t *testing.T) {
	t.Parallel()

	for _, tt := range repoCases() {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			repo := tt.newRepo(t)
			if _, err := repo.UpsertHands(ctx, fixtureHands(t)); err != nil {
				t.Fatalf("upsert: %v", err)
			}

			rows, total, err := repo.ListHandSummaries(ctx, HandFilter{HeroOnly: true, Limit: 5})
			if err != nil {
				t.Fatalf("list summaries: %v", err)
			}
			if total != 2 || len(rows) != 2 {
				t.Fatalf("total=%d rows=%d, want 2/2", total, len(rows))
			}

			won := rows[1]
			if won.HandID != "7" || won.Table != "Alpha" || won.NumPlayers != 2 {
				t.Fatalf("unexpected summary: %+v", won)
			}
			// Hero invested 300 and collected 600.
			if won.TotalPot != 600 || won.HeroNet != 300 || !won.HeroWon {
				t.Fatalf("pot/net: %+v", won)
			}
			if won.HeroCards != "Ah Kd" || won.HeroPosition != "SB" || won.Board != "2c 7d Jh" {
				t.Fatalf("hero fields: %+v", won)
			}

			lost := rows[0]
			if lost.HandID != "9" || lost.HeroNet != -50 || lost.HeroWon {
				t.Fatalf("folded hand summary: %+v", lost)
			}
		})
	}
}

func TestImportRuns(t *testing.T) {
	t.Parallel()

	for _, tt := range repoCases() {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			repo := tt.newRepo(t)

			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			first := NewImportRun("a.txt", base)
			second := NewImportRun("b.txt", base.Add(time.Minute))
			if first.ID == "" || first.ID == second.ID {
				t.Fatalf("run IDs must be unique: %q %q", first.ID, second.ID)
			}
			for _, run := range []ImportRun{first, second} {
				if err := repo.RecordImportRun(ctx, run); err != nil {
					t.Fatalf("record run: %v", err)
				}
			}

			first.FinishedAt = base.Add(2 * time.Second)
			first.Result = UpsertResult{Inserted: 4}
			if err := repo.RecordImportRun(ctx, first); err != nil {
				t.Fatalf("update run: %v", err)
			}

			runs, err := repo.ListImportRuns(ctx, 0)
			if err != nil {
				t.Fatalf("list runs: %v", err)
			}
			if len(runs) != 2 || runs[0].ID != second.ID || runs[1].ID != first.ID {
				t.Fatalf("runs = %+v", runs)
			}
			if runs[1].Result.Inserted != 4 || !runs[1].FinishedAt.Equal(first.FinishedAt) {
				t.Fatalf("run not updated: %+v", runs[1])
			}
			if !runs[0].FinishedAt.IsZero() {
				t.Fatalf("unfinished run has finish time: %+v", runs[0])
			}

			limited, err := repo.ListImportRuns(ctx, 1)
			if err != nil || len(limited) != 1 {
				t.Fatalf("limited runs = %v, %v", limited, err)
			}
		})
	}
}

func TestSQLiteSchemaVersion(t *testing.T) {
	t.Parallel()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "hands.db"))
	if err != nil {
		t.Fatalf("new sqlite repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	v, err := repo.SchemaVersion()
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v != 2 {
		t.Fatalf("schema version = %d, want 2", v)
	}
}
