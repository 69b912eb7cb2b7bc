package utils

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// U64ToBE encodes v as 8 big-endian bytes, the fixed-width form used for
// height-ordered database keys and watermark values.
func U64ToBE(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// BEToU64 decodes an 8-byte big-endian value.
func BEToU64(buf []byte) (uint64, error) {
	if len(buf) != 8 {
		return 0, fmt.Errorf("invalid u64 value length: %d", len(buf))
	}
	return binary.BigEndian.Uint64(buf), nil
}

// HexToHash32 parses a 64-character hex string into a 32-byte commitment.
func HexToHash32(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("invalid hash length: %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
