package types

import (
	"github.com/openfinality/chainquery/block"
	"github.com/openfinality/chainquery/dispersal"
)

// DispersalRecord holds the erasure coding data retained for one block: the
// common parameters always, plus this node's share when it holds one. A
// record without a share still lets the node serve coding parameters to
// peers reconstructing the payload.
type DispersalRecord struct {
	Header block.Header     `json:"header"`
	Common dispersal.Common `json:"common"`
	Share  *dispersal.Share `json:"share,omitempty"`
}

func NewDispersalRecord(header block.Header, common dispersal.Common, share *dispersal.Share) *DispersalRecord {
	return &DispersalRecord{Header: header, Common: common, Share: share}
}

func (r *DispersalRecord) Height() uint64 {
	return r.Header.Height
}

// HasShare reports whether this node retained its own share, as opposed to
// only the common coding parameters.
func (r *DispersalRecord) HasShare() bool {
	return r.Share != nil
}
