package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HandUID derives a stable identity for h from its normalised text block, so
// re-importing the same file never duplicates hands.
func HandUID(h *Hand) string {
	if h == nil {
		return ""
	}
	b := strings.Builder{}
	b.WriteString("v1|")
	b.WriteString(h.ID)
	b.WriteByte('|')
	b.WriteString(strings.TrimSpace(h.Raw))
	s := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(s[:])
}
