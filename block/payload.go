package block

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Payload carries the raw transactions of one block. Consensus ships it
// detached from the header, so a node may hold the header without the body.
type Payload struct {
	Transactions [][]byte `json:"transactions"`
}

// EmptyPayload is the canonical zero-transaction payload. The genesis block
// commits to it.
func EmptyPayload() *Payload {
	return &Payload{Transactions: [][]byte{}}
}

// Encode renders the payload in its canonical byte form: a big-endian
// transaction count followed by length-prefixed transactions. Erasure coding
// and commitments operate on this encoding.
func (p *Payload) Encode() []byte {
	size := 4
	for _, tx := range p.Transactions {
		size += 4 + len(tx)
	}
	out := make([]byte, 0, size)
	out = binary.BigEndian.AppendUint32(out, uint32(len(p.Transactions)))
	for _, tx := range p.Transactions {
		out = binary.BigEndian.AppendUint32(out, uint32(len(tx)))
		out = append(out, tx...)
	}
	return out
}

// DecodePayload parses the canonical byte form produced by Encode.
func DecodePayload(data []byte) (*Payload, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("payload too short: %d bytes", len(data))
	}
	count := binary.BigEndian.Uint32(data)
	offset := 4
	txs := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < offset+4 {
			return nil, fmt.Errorf("payload truncated at tx %d", i)
		}
		txLen := int(binary.BigEndian.Uint32(data[offset:]))
		offset += 4
		if len(data) < offset+txLen {
			return nil, fmt.Errorf("payload truncated at tx %d body", i)
		}
		tx := make([]byte, txLen)
		copy(tx, data[offset:offset+txLen])
		txs = append(txs, tx)
		offset += txLen
	}
	if offset != len(data) {
		return nil, fmt.Errorf("payload has %d trailing bytes", len(data)-offset)
	}
	return &Payload{Transactions: txs}, nil
}

// Hash commits to the canonical encoding. This is a plain content hash;
// the dispersal commitment in the header additionally binds the erasure
// coding parameters.
func (p *Payload) Hash() [32]byte {
	return sha256.Sum256(p.Encode())
}
