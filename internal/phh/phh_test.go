package phh

import (
	"bytes"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

const headsUp = `Hand #41: Hold'em No Limit (50/100)
Table 'Beta' 2-max Seat #1 is the button
Seat 1: A (1000 in chips)
Seat 2: B (1000 in chips)
A: posts small blind 50
B: posts big blind 100
Dealt to A [10h Kh]
A: raises to 300
B: folds
Uncalled bet (200) returned to A
A collected 400 from pot
*** SUMMARY ***`

const threeWay = `Hand #42: Hold'em No Limit (5/10)
Seat 2: x (500 in chips)
Seat 4: y (500 in chips)
Seat 6: z (500 in chips)
x: posts small blind 5
y: posts big blind 10
z: calls 10
x: calls 5
y: checks
*** FLOP *** [2c 7d Jh]
x: bets 20
y: raises to 60
z: folds
x: calls 40
*** TURN *** [2c 7d Jh] [4s]
x: checks
y: checks
*** RIVER *** [2c 7d Jh 4s] [9c]
x: checks
y: checks
*** SHOW DOWN ***
y collected 150 from pot
*** SUMMARY ***
Seat 2: x (small blind) showed [Ac Ad] and lost
Seat 4: y (big blind) showed [Jd Js] and won (150)`

func TestFromHandHeadsUp(t *testing.T) {
	t.Parallel()
	rec, err := FromHand(parser.Parse(headsUp)[0])
	require.NoError(t, err)

	assert.Equal(t, "NT", rec.Variant)
	assert.Equal(t, "Beta", rec.Table)
	assert.Equal(t, "41", rec.Hand)
	assert.Equal(t, []string{"A", "B"}, rec.Players)
	assert.Equal(t, []int{50, 100}, rec.BlindsOrStraddles)
	assert.Equal(t, []int{1000, 1000}, rec.StartingStacks)
	assert.Equal(t, 100, rec.MinBet)
	assert.Equal(t, []string{
		"d dh p1 ThKh",
		"d dh p2 ????",
		"p1 cbr 300",
		"p2 f",
	}, rec.Actions)
	assert.Equal(t, []int{1100, 900}, rec.FinishingStacks)
	assert.Equal(t, []int{400, 0}, rec.Winnings)
}

func TestFromHandMultiStreet(t *testing.T) {
	t.Parallel()
	rec, err := FromHand(parser.Parse(threeWay)[0])
	require.NoError(t, err)

	// Small blind first: x (SB), y (BB), z (BTN).
	assert.Equal(t, []string{"x", "y", "z"}, rec.Players)
	assert.Equal(t, []int{2, 4, 6}, rec.Seats)
	assert.Equal(t, []string{
		"d dh p1 ????",
		"d dh p2 ????",
		"d dh p3 ????",
		"p3 cc",
		"p1 cc",
		"p2 cc",
		"d db 2c7dJh",
		"p1 cbr 20",
		"p2 cbr 60",
		"p3 f",
		"p1 cc",
		"d db 4s",
		"p1 cc",
		"p2 cc",
		"d db 9c",
		"p1 cc",
		"p2 cc",
		"p1 sm AcAd",
		"p2 sm JdJs",
	}, rec.Actions)

	// Pot is 30 preflop + 120 on the flop; y takes all of it.
	assert.Equal(t, []int{430, 580, 490}, rec.FinishingStacks)
	assert.Equal(t, []int{0, 150, 0}, rec.Winnings)
	total := 0
	for _, s := range rec.FinishingStacks {
		total += s
	}
	assert.Equal(t, 1500, total)
}

func TestEncode(t *testing.T) {
	t.Parallel()
	rec, err := FromHand(parser.Parse(headsUp)[0])
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, rec))
	out := buf.String()
	assert.Contains(t, out, `variant = "NT"`)
	assert.Contains(t, out, `"p1 cbr 300"`)

	var back Record
	_, err = toml.Decode(out, &back)
	require.NoError(t, err)
	assert.Equal(t, *rec, back)

	assert.Error(t, Encode(&buf, nil))
	_, err = FromHand(nil)
	assert.Error(t, err)
}

func TestEncodeHands(t *testing.T) {
	t.Parallel()
	hands := parser.Parse(headsUp + "\n\n" + threeWay)

	var buf bytes.Buffer
	require.NoError(t, EncodeHands(&buf, hands))

	var sections map[string]Record
	_, err := toml.Decode(buf.String(), &sections)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "42", sections["1"].Hand)
	assert.Equal(t, "41", sections["2"].Hand)
	assert.True(t, strings.HasPrefix(buf.String(), "[1]\n"))
}

func TestNormalizeCard(t *testing.T) {
	t.Parallel()
	tests := map[string]string{"10h": "Th", "ah": "Ah", "Kd": "Kd", "tS": "Ts", "?": "?"}
	for in, want := range tests {
		assert.Equal(t, want, normalizeCard(in), in)
	}
}
