package types

import (
	"github.com/openfinality/chainquery/block"
)

// BlockRecord is a block whose payload is locally available in full.
// Headers without a payload never become block records; they surface as
// availability anomalies instead.
type BlockRecord struct {
	Header  block.Header  `json:"header"`
	Payload block.Payload `json:"payload"`
}

func NewBlockRecord(header block.Header, payload block.Payload) *BlockRecord {
	return &BlockRecord{Header: header, Payload: payload}
}

func (r *BlockRecord) Height() uint64 {
	return r.Header.Height
}

func (r *BlockRecord) PayloadHash() [32]byte {
	return r.Payload.Hash()
}
