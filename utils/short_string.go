package utils

import (
	"encoding/hex"
	"fmt"
)

func ShortenLog(hash string) string {
	index_cut := 8
	if len(hash) <= 8 {
		return hash
	} else if len(hash) <= 16 {
		index_cut = 4
	}
	return fmt.Sprintf("%s...%s", hash[:index_cut], hash[len(hash)-index_cut:])
}

// ShortHash renders a 32-byte commitment in the abbreviated hex form used
// in log and anomaly messages.
func ShortHash(hash [32]byte) string {
	return ShortenLog(hex.EncodeToString(hash[:]))
}
