package dispersal

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Backend selects the erasure coding implementation.
const (
	BackendKZG  = "kzg"
	BackendCKZG = "ckzg"
)

// Common holds the coding parameters every node stores alongside its share.
// Shares from different nodes are only compatible under the same Common.
type Common struct {
	Width           uint32   `json:"width"`
	PayloadSize     uint64   `json:"payload_size"`
	BlobCommitments [][]byte `json:"blob_commitments"`
}

// Fragment is one erasure-coded cell plus its opening proof against the
// blob commitment it was cut from.
type Fragment struct {
	BlobIndex uint32 `json:"blob_index"`
	CellIndex uint32 `json:"cell_index"`
	Cell      []byte `json:"cell"`
	Proof     []byte `json:"proof"`
}

// Share is the slice of the coded payload assigned to one storage node.
type Share struct {
	NodeIndex uint32     `json:"node_index"`
	Fragments []Fragment `json:"fragments"`
}

// LocalDispersal is what consensus hands this node for one block: the
// common parameters plus this node's own share.
type LocalDispersal struct {
	Common Common `json:"common"`
	Share  Share  `json:"share"`
}

// Dispersal is the full output of coding a payload: the binding commitment,
// the common parameters, and one share per storage node.
type Dispersal struct {
	Commitment [32]byte
	Common     Common
	Shares     []Share
}

// Disperser erasure-codes a canonical payload encoding across width
// storage nodes.
type Disperser interface {
	Disperse(payload []byte, width int) (*Dispersal, error)
}

// NewDisperser constructs the configured backend. The ckzg backend needs a
// trusted setup file and the ckzg build tag.
func NewDisperser(backend string, trustedSetupPath string) (Disperser, error) {
	switch backend {
	case BackendKZG, "":
		return NewKZGDisperser()
	case BackendCKZG:
		return NewCKZGDisperser(trustedSetupPath)
	default:
		return nil, fmt.Errorf("unsupported dispersal backend: %s", backend)
	}
}

// commitment binds the coding parameters and the per-blob commitments into
// the 32-byte value headers carry. Changing the width changes the
// commitment, so a header check also pins the share count.
func (c *Common) commitment() [32]byte {
	hasher := sha256.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[:4], c.Width)
	hasher.Write(buf[:4])
	binary.BigEndian.PutUint64(buf, c.PayloadSize)
	hasher.Write(buf)
	for _, bc := range c.BlobCommitments {
		hasher.Write(bc)
	}
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

// Commitment recomputes the binding commitment from the common parameters.
// Verifiers use it to check a stored Common against a block header.
func (c *Common) Commitment() [32]byte {
	return c.commitment()
}
