//go:build ckzg
// +build ckzg

package dispersal

import (
	"encoding/binary"
	"fmt"
	"sync"

	ckzg4844 "github.com/ethereum/c-kzg-4844/v2/bindings/go"
)

var (
	ckzgSetupOnce sync.Once
	ckzgSetupErr  error
)

// CKZGDisperser codes payloads with the C bindings. The trusted setup is
// process-global, so the first constructed instance pins it.
type CKZGDisperser struct{}

func NewCKZGDisperser(trustedSetupPath string) (Disperser, error) {
	if trustedSetupPath == "" {
		return nil, fmt.Errorf("ckzg backend requires a trusted setup file")
	}
	ckzgSetupOnce.Do(func() {
		ckzgSetupErr = ckzg4844.LoadTrustedSetupFile(trustedSetupPath, 0)
	})
	if ckzgSetupErr != nil {
		return nil, fmt.Errorf("failed to load trusted setup: %w", ckzgSetupErr)
	}
	return &CKZGDisperser{}, nil
}

func (d *CKZGDisperser) Disperse(payload []byte, width int) (*Dispersal, error) {
	if width < 1 {
		return nil, fmt.Errorf("dispersal width must be positive, got %d", width)
	}

	blobs := packCKZGBlobs(payload)
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
		commitment, err := ckzg4844.BlobToKZGCommitment(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to commit blob %d: %w", blobIndex, err)
		}
		common.BlobCommitments = append(common.BlobCommitments, commitment[:])

		cells, proofs, err := ckzg4844.ComputeCellsAndKZGProofs(blob)
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

func packCKZGBlobs(payload []byte) []*ckzg4844.Blob {
	data := make([]byte, lengthPrefix+len(payload))
	binary.BigEndian.PutUint64(data, uint64(len(payload)))
	copy(data[lengthPrefix:], payload)

	numBlobs := (len(data) + dataPerBlob - 1) / dataPerBlob
	if numBlobs == 0 {
		numBlobs = 1
	}

	blobs := make([]*ckzg4844.Blob, numBlobs)
	for i := range blobs {
		blobs[i] = new(ckzg4844.Blob)
	}
	for offset := 0; offset < len(data); offset += dataPerScalar {
		end := offset + dataPerScalar
		if end > len(data) {
			end = len(data)
		}
		scalar := offset / dataPerScalar
		blob := blobs[scalar/scalarsPerCKZGBlob]
		pos := (scalar % scalarsPerCKZGBlob) * 32
		copy(blob[pos+1:], data[offset:end])
	}
	return blobs
}

const scalarsPerCKZGBlob = 4096
