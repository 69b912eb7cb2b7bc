package consensus

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfinality/chainquery/block"
)

func makeLeaf(view uint64) Leaf {
	return Leaf{
		View: ViewNumber(view),
		Header: block.Header{
			Height:            view,
			Timestamp:         1700000000,
			ParentHash:        [32]byte{0x01},
			PayloadCommitment: [32]byte{0x02},
			FeeTotal:          uint256.NewInt(9),
		},
		ParentCommit: [32]byte{0x03},
		Payload:      &block.Payload{Transactions: [][]byte{{0xaa}}},
	}
}

func TestLeafCommitDeterministic(t *testing.T) {
	assert.Equal(t, makeLeaf(5).Commit(), makeLeaf(5).Commit())
}

func TestLeafCommitSensitivity(t *testing.T) {
	reference := makeLeaf(5)

	viewChanged := makeLeaf(6)
	assert.NotEqual(t, reference.Commit(), viewChanged.Commit())

	headerChanged := makeLeaf(5)
	headerChanged.Header.Timestamp++
	assert.NotEqual(t, reference.Commit(), headerChanged.Commit())

	parentChanged := makeLeaf(5)
	parentChanged.ParentCommit[0] ^= 0xff
	assert.NotEqual(t, reference.Commit(), parentChanged.Commit())
}

func TestLeafCommitIgnoresPayload(t *testing.T) {
	withPayload := makeLeaf(5)
	stripped := makeLeaf(5)
	stripped.Payload = nil

	// certificates vote over the commitment before bodies propagate, so a
	// leaf delivered without its payload must commit identically
	assert.Equal(t, withPayload.Commit(), stripped.Commit())
}

func TestCertificateJustifies(t *testing.T) {
	leaf := makeLeaf(7)
	cert := Certificate{
		View:        leaf.View,
		LeafCommit:  leaf.Commit(),
		StakeWeight: uint256.NewInt(100),
	}
	require.True(t, cert.Justifies(&leaf))

	wrongView := cert
	wrongView.View++
	assert.False(t, wrongView.Justifies(&leaf))

	wrongCommit := cert
	wrongCommit.LeafCommit[31] ^= 0x01
	assert.False(t, wrongCommit.Justifies(&leaf))

	otherLeaf := makeLeaf(8)
	assert.False(t, cert.Justifies(&otherLeaf))
}

func TestIsGenesis(t *testing.T) {
	genesis := makeLeaf(0)
	assert.True(t, genesis.IsGenesis())
	assert.False(t, makeLeaf(1).IsGenesis())
}
