package replay

import (
	"strconv"

	"github.com/dustin/go-humanize"
)

// FormatBB renders chips in big blinds ("12.50 BB"). Without a usable big
// blind it falls back to raw chips ("1,250 chips").
func FormatBB(chips, bigBlind int) string {
	if bigBlind <= 0 {
		return humanize.Comma(int64(chips)) + " chips"
	}
	return strconv.FormatFloat(float64(chips)/float64(bigBlind), 'f', 2, 64) + " BB"
}

// InBB converts chips to big blinds. ok is false when bigBlind is not positive.
func InBB(chips, bigBlind int) (bb float64, ok bool) {
	if bigBlind <= 0 {
		return 0, false
	}
	return float64(chips) / float64(bigBlind), true
}
