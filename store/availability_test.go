package store

import (
	"crypto/sha256"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfinality/chainquery/block"
	"github.com/openfinality/chainquery/consensus"
	"github.com/openfinality/chainquery/db"
	"github.com/openfinality/chainquery/dispersal"
	"github.com/openfinality/chainquery/types"
)

// ----------------- Helpers -----------------

func testLeafRecord(t *testing.T, view uint64) *types.LeafRecord {
	t.Helper()
	payload := &block.Payload{Transactions: [][]byte{{byte(view), 0x02}, {0x03}}}
	leaf := consensus.Leaf{
		View: consensus.ViewNumber(view),
		Header: block.Header{
			Height:            view,
			Timestamp:         1700000000 + view,
			ParentHash:        sha256.Sum256([]byte{byte(view)}),
			PayloadCommitment: payload.Hash(),
			FeeTotal:          uint256.NewInt(view * 7),
		},
		ParentCommit: sha256.Sum256([]byte{byte(view), 0xff}),
		Payload:      payload,
	}
	cert := consensus.Certificate{
		View:         leaf.View,
		LeafCommit:   leaf.Commit(),
		AggregateSig: []byte{0xbe, 0xef},
		StakeWeight:  uint256.NewInt(500),
	}
	rec, err := types.NewLeafRecord(leaf, cert)
	require.NoError(t, err)
	return rec
}

func testDispersalRecord(view uint64, withShare bool) *types.DispersalRecord {
	header := block.Header{Height: view, Timestamp: 1700000000 + view, FeeTotal: uint256.NewInt(1)}
	common := dispersal.Common{
		Width:           8,
		PayloadSize:     42,
		BlobCommitments: [][]byte{{0x10, 0x11}},
	}
	var share *dispersal.Share
	if withShare {
		share = &dispersal.Share{
			NodeIndex: 3,
			Fragments: []dispersal.Fragment{
				{BlobIndex: 0, CellIndex: 5, Cell: []byte{1, 2, 3}, Proof: []byte{4, 5}},
			},
		}
	}
	return types.NewDispersalRecord(header, common, share)
}

func withWriteTx(t *testing.T, source db.DataSource, fn func(st *AvailabilityStore)) {
	t.Helper()
	tx, err := source.BeginWrite()
	require.NoError(t, err)
	fn(NewAvailabilityStore(tx))
	require.NoError(t, tx.Commit())
}

func withReader(t *testing.T, source db.DataSource, fn func(r *Reader)) {
	t.Helper()
	tx, err := source.BeginRead()
	require.NoError(t, err)
	defer tx.Revert()
	fn(NewReader(tx))
}

// ----------------- Tests -----------------

func TestLeafRecordRoundTrip(t *testing.T) {
	source := db.NewMemorySource()
	defer source.Close()

	rec := testLeafRecord(t, 42)
	withWriteTx(t, source, func(st *AvailabilityStore) {
		require.NoError(t, st.InsertLeaf(rec))
	})

	withReader(t, source, func(r *Reader) {
		got, err := r.GetLeaf(42)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec, got)

		byView, err := r.GetLeafByView(42)
		require.NoError(t, err)
		require.NotNil(t, byView)
		assert.Equal(t, rec.LeafCommit(), byView.LeafCommit())

		height, ok, err := r.LeafHeight()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint64(42), height)
	})
}

func TestBlockRecordRoundTrip(t *testing.T) {
	source := db.NewMemorySource()
	defer source.Close()

	leaf := testLeafRecord(t, 7)
	rec := types.NewBlockRecord(leaf.Leaf.Header, *leaf.Leaf.Payload)

	withWriteTx(t, source, func(st *AvailabilityStore) {
		require.NoError(t, st.InsertBlock(rec))
	})

	withReader(t, source, func(r *Reader) {
		got, err := r.GetBlock(7)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec, got)

		byHash, err := r.GetBlockByPayloadHash(rec.PayloadHash())
		require.NoError(t, err)
		require.NotNil(t, byHash)
		assert.Equal(t, rec.Height(), byHash.Height())

		height, ok, err := r.BlockHeight()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint64(7), height)
	})
}

func TestDispersalRecordRoundTrip(t *testing.T) {
	source := db.NewMemorySource()
	defer source.Close()

	withShare := testDispersalRecord(9, true)
	commonOnly := testDispersalRecord(10, false)

	withWriteTx(t, source, func(st *AvailabilityStore) {
		require.NoError(t, st.InsertDispersal(withShare))
		require.NoError(t, st.InsertDispersal(commonOnly))
	})

	withReader(t, source, func(r *Reader) {
		got, err := r.GetDispersal(9)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, withShare, got)
		assert.True(t, got.HasShare())

		got, err = r.GetDispersal(10)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.HasShare())
	})
}

func TestGenesisDispersalMarker(t *testing.T) {
	source := db.NewMemorySource()
	defer source.Close()

	withReader(t, source, func(r *Reader) {
		present, err := r.HasGenesisDispersal()
		require.NoError(t, err)
		assert.False(t, present)
	})

	withWriteTx(t, source, func(st *AvailabilityStore) {
		require.NoError(t, st.InsertDispersal(testDispersalRecord(0, true)))
	})

	withReader(t, source, func(r *Reader) {
		present, err := r.HasGenesisDispersal()
		require.NoError(t, err)
		assert.True(t, present)
	})
}

func TestAbsentRecordsReturnNil(t *testing.T) {
	source := db.NewMemorySource()
	defer source.Close()

	withReader(t, source, func(r *Reader) {
		leaf, err := r.GetLeaf(1)
		require.NoError(t, err)
		assert.Nil(t, leaf)

		blk, err := r.GetBlock(1)
		require.NoError(t, err)
		assert.Nil(t, blk)

		disp, err := r.GetDispersal(1)
		require.NoError(t, err)
		assert.Nil(t, disp)

		_, ok, err := r.LeafHeight()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestWatermarkNeverLowers(t *testing.T) {
	source := db.NewMemorySource()
	defer source.Close()

	withWriteTx(t, source, func(st *AvailabilityStore) {
		require.NoError(t, st.InsertLeaf(testLeafRecord(t, 5)))
	})
	// replaying an older leaf must not move the watermark back
	withWriteTx(t, source, func(st *AvailabilityStore) {
		require.NoError(t, st.InsertLeaf(testLeafRecord(t, 3)))
	})

	withReader(t, source, func(r *Reader) {
		height, ok, err := r.LeafHeight()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint64(5), height)
	})
}

func TestWatermarkSeesOwnBatch(t *testing.T) {
	source := db.NewMemorySource()
	defer source.Close()

	// both inserts happen in one transaction; the second watermark read
	// must observe the first insert through the same transaction
	withWriteTx(t, source, func(st *AvailabilityStore) {
		require.NoError(t, st.InsertLeaf(testLeafRecord(t, 8)))
		require.NoError(t, st.InsertLeaf(testLeafRecord(t, 6)))
	})

	withReader(t, source, func(r *Reader) {
		height, ok, err := r.LeafHeight()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint64(8), height)
	})
}

func TestIterateLeavesAscending(t *testing.T) {
	source := db.NewMemorySource()
	defer source.Close()

	withWriteTx(t, source, func(st *AvailabilityStore) {
		for _, view := range []uint64{30, 10, 20} {
			require.NoError(t, st.InsertLeaf(testLeafRecord(t, view)))
		}
	})

	withReader(t, source, func(r *Reader) {
		var heights []uint64
		err := r.IterateLeaves(func(rec *types.LeafRecord) bool {
			heights = append(heights, rec.Height())
			return true
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{10, 20, 30}, heights)

		heights = heights[:0]
		err = r.IterateLeaves(func(rec *types.LeafRecord) bool {
			heights = append(heights, rec.Height())
			return false
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{10}, heights)
	})
}

func TestInsertOverwriteIsIdempotent(t *testing.T) {
	source := db.NewMemorySource()
	defer source.Close()

	rec := testLeafRecord(t, 4)
	for i := 0; i < 2; i++ {
		withWriteTx(t, source, func(st *AvailabilityStore) {
			require.NoError(t, st.InsertLeaf(rec))
		})
	}

	withReader(t, source, func(r *Reader) {
		got, err := r.GetLeaf(4)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})
}
