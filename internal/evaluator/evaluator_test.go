package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

const showdown = `Hand #31: Hold'em No Limit (50/100)
Seat 1: hero (1000 in chips)
Seat 2: villain (1000 in chips)
Seat 3: folder (1000 in chips)
hero: posts small blind 50
villain: posts big blind 100
folder: folds
hero: calls 50
villain: checks
*** FLOP *** [2c 7d Jh]
hero: checks
villain: checks
*** TURN *** [2c 7d Jh] [4s]
hero: checks
villain: checks
*** RIVER *** [2c 7d Jh 4s] [9c]
hero: checks
villain: checks
*** SHOW DOWN ***
villain collected 200 from pot
*** SUMMARY ***
Seat 1: hero (small blind) showed [Qs Qd] and lost with a pair of Queens
Seat 2: villain (big blind) showed [Jd Js] and won (200) with three of a kind, Jacks`

func TestParseCard(t *testing.T) {
	t.Parallel()
	for _, code := range []string{"Ah", "Td", "10c", "2s", "kH"} {
		_, err := ParseCard(code)
		assert.NoError(t, err, code)
	}
	for _, code := range []string{"", "A", "1h", "Ax", "ZZ"} {
		_, err := ParseCard(code)
		assert.Error(t, err, code)
	}

	a, err := ParseCard("Td")
	require.NoError(t, err)
	b, err := ParseCard("10d")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRankShown(t *testing.T) {
	t.Parallel()
	h := parser.Parse(showdown)[0]

	shown, err := RankShown(h)
	require.NoError(t, err)
	require.Len(t, shown, 2)
	assert.Equal(t, "villain", shown[0].Player)
	assert.Equal(t, "hero", shown[1].Player)
	assert.Greater(t, shown[0].Score, shown[1].Score)
	assert.Equal(t, []string{"villain"}, Best(shown))

	desc, err := DescribeShown(h)
	require.NoError(t, err)
	assert.Len(t, desc, 2)
	assert.NotEmpty(t, desc["villain"])
	assert.NotEqual(t, desc["villain"], desc["hero"])
}

func TestRankShownSplit(t *testing.T) {
	t.Parallel()
	h := &parser.Hand{
		Board: []string{"Ah", "Kh", "Qh", "Jh", "Th"},
		Players: map[string]*parser.Player{
			"a": {Name: "a", Seat: 1, Cards: []string{"2c", "3d"}},
			"b": {Name: "b", Seat: 2, Cards: []string{"4c", "5d"}},
			"c": {Name: "c", Seat: 3},
		},
	}
	shown, err := RankShown(h)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, Best(shown))
}

func TestRankShownNeedsFullBoard(t *testing.T) {
	t.Parallel()
	h := &parser.Hand{Board: []string{"Ah", "Kh", "Qh"}}
	_, err := RankShown(h)
	assert.ErrorIs(t, err, ErrIncompleteBoard)

	_, err = DescribeShown(nil)
	assert.ErrorIs(t, err, ErrIncompleteBoard)
}
