package random

import (
	"crypto/rand"
	"math/big"
)

// Ambiguous characters (I, O, 0, 1) are excluded from room codes.
const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Code returns a short uppercase code suitable for room invites.
func Code(length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(letters)))
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = letters[0]
			continue
		}
		out[i] = letters[n.Int64()]
	}
	return string(out)
}
