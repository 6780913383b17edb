package ranges

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AkatukiSora/hhreplay/internal/parser"
	"github.com/AkatukiSora/hhreplay/internal/replay"
)

const sixMaxOpen = `Hand #21: Hold'em No Limit (50/100)
Seat 1: P1 (4000 in chips)
Seat 2: P2 (2600 in chips)
Seat 3: P3 (5000 in chips)
Seat 4: P4 (9000 in chips)
Seat 5: P5 (3000 in chips)
Seat 6: P6 (7000 in chips)
P5: posts small blind 50
P6: posts big blind 100
P1: folds
P2: calls 100
P3: raises to 300
P4: folds
P5: folds
P6: folds
P2: folds`

func TestNearestDepth(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want int }{
		{0, 15},
		{15, 15},
		{17, 15},
		{18, 20},
		{35, 40}, // tie between 30 and 40 goes deeper
		{70, 80},
		{90, 100},
		{400, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NearestDepth(tt.in), "NearestDepth(%d)", tt.in)
	}
}

func TestMapPosition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"utg", "UTG", true},
		{"MP", "LJ", true},
		{"UTG+1", "LJ", true},
		{"EP", "UTG", true},
		{"UTG3", "HJ", true},
		{"BTN", "BTN", true},
		{"BB", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MapPosition(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFromOpenRaise(t *testing.T) {
	t.Parallel()
	h := parser.Parse(sixMaxOpen)[0]

	ctx, err := FromOpenRaise(h)
	require.NoError(t, err)
	// P3 is CO; the shortest stack at the table is 26 BB.
	assert.Equal(t, Context{Player: "P3", Position: "CO", EffectiveBB: 26}, ctx)
	assert.Equal(t, 25, ctx.Depth())

	_, err = FromOpenRaise(parser.Parse("Hand #1: Hold'em (1/2)\nSeat 1: a (10 in chips)")[0])
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestFromNextToAct(t *testing.T) {
	t.Parallel()
	h := parser.Parse(sixMaxOpen)[0]

	// Neutral preflop: P1 (LJ) acts first with 40 BB; deeper stacks cover it.
	ctx, err := FromNextToAct(h, replay.Start)
	require.NoError(t, err)
	assert.Equal(t, Context{Player: "P1", Position: "LJ", EffectiveBB: 40}, ctx)

	// After P3 raises, P4 (BTN) is next; largest live stack besides P4 is 70 BB.
	ctx, err = FromNextToAct(h, replay.Cursor{Street: parser.StreetPreflop, Index: 4})
	require.NoError(t, err)
	assert.Equal(t, Context{Player: "P4", Position: "BTN", EffectiveBB: 70}, ctx)

	// BB has no chart.
	_, err = FromNextToAct(h, replay.Cursor{Street: parser.StreetPreflop, Index: 6})
	assert.ErrorIs(t, err, ErrNoContext)

	_, err = FromNextToAct(h, replay.Neutral(parser.StreetFlop))
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestResolverCanonicalWithoutProber(t *testing.T) {
	t.Parallel()
	r := NewResolver("", nil)
	got := r.Resolve(context.Background(), Context{Position: "BTN", EffectiveBB: 31})
	assert.Equal(t, "ranges/Main/7Max/open/BTN/30BB.png", got)

	r = NewResolver("https://charts.example/open/", nil)
	assert.Equal(t, "https://charts.example/open/SB/100BB.png", r.Canonical(Context{Position: "SB", EffectiveBB: 150}))
}

func TestResolverProbesDirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	// Only the flat variant exists.
	require.NoError(t, os.WriteFile(filepath.Join(root, "20BB_HJ.png"), []byte("png"), 0o644))

	r := NewResolver("charts", DirProber{Root: root})
	assert.Equal(t, "charts/20BB_HJ.png", r.Resolve(context.Background(), Context{Position: "HJ", EffectiveBB: 20}))

	// Missing charts fall back to the canonical path.
	assert.Equal(t, "charts/CO/20BB.png", r.Resolve(context.Background(), Context{Position: "CO", EffectiveBB: 20}))
}

func TestResolverProbesHTTP(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodHead && req.URL.Path == "/open/UTG_15BB.png" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL+"/open", HTTPProber{BaseURL: srv.URL + "/open", Client: srv.Client()})
	assert.Equal(t, srv.URL+"/open/UTG_15BB.png", r.Resolve(context.Background(), Context{Position: "UTG", EffectiveBB: 12}))
}

func TestCandidatesAreUnique(t *testing.T) {
	t.Parallel()
	c := Candidates(Context{Position: "BTN", EffectiveBB: 100})
	assert.Len(t, c, 9)
	assert.Equal(t, "BTN/100BB.png", c[0])
	assert.Equal(t, "btn/100BB.png", c[1])
}
