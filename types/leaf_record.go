package types

import (
	"errors"
	"fmt"

	"github.com/openfinality/chainquery/consensus"
	"github.com/openfinality/chainquery/utils"
)

// ErrInconsistentLeaf marks a certificate paired with a leaf it does not
// justify. A decide carrying such a pair is corrupt and must not be stored.
var ErrInconsistentLeaf = errors.New("inconsistent leaf")

// LeafRecord is a finalized leaf together with the certificate that
// justifies it. The pairing is validated at construction, so a stored
// record is always internally consistent.
type LeafRecord struct {
	Leaf consensus.Leaf        `json:"leaf"`
	Cert consensus.Certificate `json:"cert"`
}

func NewLeafRecord(leaf consensus.Leaf, cert consensus.Certificate) (*LeafRecord, error) {
	if !cert.Justifies(&leaf) {
		return nil, fmt.Errorf("%w: cert view %d commit %s does not justify leaf view %d commit %s",
			ErrInconsistentLeaf, cert.View, utils.ShortHash(cert.LeafCommit),
			leaf.View, utils.ShortHash(leaf.Commit()))
	}
	return &LeafRecord{Leaf: leaf, Cert: cert}, nil
}

func (r *LeafRecord) Height() uint64 {
	return r.Leaf.Header.Height
}

func (r *LeafRecord) View() consensus.ViewNumber {
	return r.Leaf.View
}

func (r *LeafRecord) LeafCommit() [32]byte {
	return r.Leaf.Commit()
}
