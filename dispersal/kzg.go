package dispersal

import (
	"encoding/binary"
	"fmt"

	goethkzg "github.com/crate-crypto/go-eth-kzg"
)

// 31 payload bytes per 32-byte scalar keeps every field element canonical.
const (
	dataPerScalar = 31
	lengthPrefix  = 8
)

var dataPerBlob = goethkzg.ScalarsPerBlob * dataPerScalar

// KZGDisperser codes payloads with the pure-Go KZG backend. One instance is
// safe for concurrent use.
type KZGDisperser struct {
	ctx *goethkzg.Context
}

func NewKZGDisperser() (*KZGDisperser, error) {
	ctx, err := goethkzg.NewContext4096Secure()
	if err != nil {
		return nil, fmt.Errorf("failed to load kzg context: %w", err)
	}
	return &KZGDisperser{ctx: ctx}, nil
}

// Disperse erasure-codes payload into width shares. The payload is packed
// into 4096-scalar blobs, each blob is committed and extended into 128
// cells, and cells are dealt round-robin across the shares.
func (d *KZGDisperser) Disperse(payload []byte, width int) (*Dispersal, error) {
	if width < 1 {
		return nil, fmt.Errorf("dispersal width must be positive, got %d", width)
	}

	blobs := packBlobs(payload)
	common := Common{
		Width:           uint32(width),
		PayloadSize:     uint64(len(payload)),
		BlobCommitments: make([][]byte, 0, len(blobs)),
	}
	shares := make([]Share, width)
	for i := range shares {
		shares[i] = Share{NodeIndex: uint32(i), Fragments: []Fragment{}}
	}

	for blobIndex, blob := range blobs {
		commitment, err := d.ctx.BlobToKZGCommitment(blob, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to commit blob %d: %w", blobIndex, err)
		}
		common.BlobCommitments = append(common.BlobCommitments, commitment[:])

		cells, proofs, err := d.ctx.ComputeCellsAndKZGProofs(blob, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to extend blob %d: %w", blobIndex, err)
		}
		for cellIndex := range cells {
			fragment := Fragment{
				BlobIndex: uint32(blobIndex),
				CellIndex: uint32(cellIndex),
				Cell:      append([]byte(nil), cells[cellIndex][:]...),
				Proof:     append([]byte(nil), proofs[cellIndex][:]...),
			}
			node := cellIndex % width
			shares[node].Fragments = append(shares[node].Fragments, fragment)
		}
	}

	return &Dispersal{
		Commitment: common.commitment(),
		Common:     common,
		Shares:     shares,
	}, nil
}

// packBlobs lays the length-prefixed payload into canonical blobs: 31 data
// bytes per scalar, high byte zero. An empty payload still yields one blob
// so every block has a commitment.
func packBlobs(payload []byte) []*goethkzg.Blob {
	data := make([]byte, lengthPrefix+len(payload))
	binary.BigEndian.PutUint64(data, uint64(len(payload)))
	copy(data[lengthPrefix:], payload)

	numBlobs := (len(data) + dataPerBlob - 1) / dataPerBlob
	if numBlobs == 0 {
		numBlobs = 1
	}

	blobs := make([]*goethkzg.Blob, numBlobs)
	for i := range blobs {
		blobs[i] = new(goethkzg.Blob)
	}
	for offset := 0; offset < len(data); offset += dataPerScalar {
		end := offset + dataPerScalar
		if end > len(data) {
			end = len(data)
		}
		scalar := offset / dataPerScalar
		blob := blobs[scalar/goethkzg.ScalarsPerBlob]
		pos := (scalar % goethkzg.ScalarsPerBlob) * goethkzg.SerializedScalarSize
		copy(blob[pos+1:], data[offset:end])
	}
	return blobs
}
