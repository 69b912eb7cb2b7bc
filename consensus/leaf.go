package consensus

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/openfinality/chainquery/block"
	"github.com/openfinality/chainquery/dispersal"
)

// Leaf is one link of the finalized chain. Justify is the certificate for
// the parent leaf; the certificate for this leaf arrives either in the
// child's Justify or as the finalizing certificate of a decide.
type Leaf struct {
	View         ViewNumber     `json:"view"`
	Header       block.Header   `json:"header"`
	ParentCommit [32]byte       `json:"parent_commit"`
	Justify      Certificate    `json:"justify"`
	Payload      *block.Payload `json:"payload,omitempty"`
}

// Commit is the leaf commitment certificates vote over. The payload is not
// part of it; the header's payload commitment already binds the body.
func (l *Leaf) Commit() [32]byte {
	hasher := sha256.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(l.View))
	hasher.Write(buf)
	headerHash := l.Header.Hash()
	hasher.Write(headerHash[:])
	hasher.Write(l.ParentCommit[:])
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

// IsGenesis reports whether this is the view-0 genesis leaf. Genesis is
// never dispersed over the network; nodes derive its share locally.
func (l *Leaf) IsGenesis() bool {
	return l.View == 0
}

// LeafInfo pairs a finalized leaf with whatever dispersal data consensus
// delivered for it. Dispersal is nil when this node held no share at
// decide time.
type LeafInfo struct {
	Leaf      Leaf                      `json:"leaf"`
	Dispersal *dispersal.LocalDispersal `json:"dispersal,omitempty"`
}
