package consensus

import (
	"github.com/holiman/uint256"
)

// ViewNumber counts consensus views. View 0 is reserved for genesis.
type ViewNumber uint64

// Certificate is an aggregate vote over one leaf. The certificate for view
// v commits to the leaf proposed in view v.
type Certificate struct {
	View         ViewNumber   `json:"view"`
	LeafCommit   [32]byte     `json:"leaf_commit"`
	AggregateSig []byte       `json:"aggregate_sig"`
	StakeWeight  *uint256.Int `json:"stake_weight"`
}

// Justifies reports whether the certificate vouches for exactly this leaf:
// same view and a matching leaf commitment.
func (c *Certificate) Justifies(leaf *Leaf) bool {
	return c.View == leaf.View && c.LeafCommit == leaf.Commit()
}
