package block

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Header is the finalized block header as consensus emits it. The payload
// itself is referenced by commitment only; whether the body or the erasure
// share is locally available is tracked separately.
type Header struct {
	Height            uint64       `json:"height"`
	Timestamp         uint64       `json:"timestamp"`
	ParentHash        [32]byte     `json:"parent_hash"`
	PayloadCommitment [32]byte     `json:"payload_commitment"`
	FeeTotal          *uint256.Int `json:"fee_total"`
}

func (h *Header) Hash() [32]byte {
	hasher := sha256.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, h.Height)
	hasher.Write(buf)
	binary.BigEndian.PutUint64(buf, h.Timestamp)
	hasher.Write(buf)
	hasher.Write(h.ParentHash[:])
	hasher.Write(h.PayloadCommitment[:])
	if h.FeeTotal != nil {
		fee := h.FeeTotal.Bytes32()
		hasher.Write(fee[:])
	}
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}
