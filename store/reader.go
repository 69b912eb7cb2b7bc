package store

import (
	"fmt"

	"github.com/openfinality/chainquery/db"
	"github.com/openfinality/chainquery/jsonx"
	"github.com/openfinality/chainquery/types"
	"github.com/openfinality/chainquery/utils"
)

// Reader answers availability queries against one pinned version. All
// lookups return (nil, nil) when the record is absent.
type Reader struct {
	tx db.ReadTx
}

func NewReader(tx db.ReadTx) *Reader {
	return &Reader{tx: tx}
}

func (r *Reader) GetLeaf(height uint64) (*types.LeafRecord, error) {
	value, err := r.tx.Get(leafKey(height))
	if err != nil {
		return nil, fmt.Errorf("failed to get leaf record: %w", err)
	}
	if value == nil {
		return nil, nil
	}
	var rec types.LeafRecord
	if err := jsonx.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal leaf record: %w", err)
	}
	return &rec, nil
}

// GetLeafByView resolves the view index, then loads the leaf.
func (r *Reader) GetLeafByView(view uint64) (*types.LeafRecord, error) {
	value, err := r.tx.Get(leafViewKey(view))
	if err != nil {
		return nil, fmt.Errorf("failed to get leaf view index: %w", err)
	}
	if value == nil {
		return nil, nil
	}
	height, err := utils.BEToU64(value)
	if err != nil {
		return nil, fmt.Errorf("corrupt leaf view index: %w", err)
	}
	return r.GetLeaf(height)
}

func (r *Reader) GetBlock(height uint64) (*types.BlockRecord, error) {
	value, err := r.tx.Get(blockKey(height))
	if err != nil {
		return nil, fmt.Errorf("failed to get block record: %w", err)
	}
	if value == nil {
		return nil, nil
	}
	var rec types.BlockRecord
	if err := jsonx.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block record: %w", err)
	}
	return &rec, nil
}

// GetBlockByPayloadHash resolves the payload hash index, then loads the
// block.
func (r *Reader) GetBlockByPayloadHash(hash [32]byte) (*types.BlockRecord, error) {
	value, err := r.tx.Get(payloadHashKey(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to get payload hash index: %w", err)
	}
	if value == nil {
		return nil, nil
	}
	height, err := utils.BEToU64(value)
	if err != nil {
		return nil, fmt.Errorf("corrupt payload hash index: %w", err)
	}
	return r.GetBlock(height)
}

func (r *Reader) GetDispersal(height uint64) (*types.DispersalRecord, error) {
	value, err := r.tx.Get(dispersalKey(height))
	if err != nil {
		return nil, fmt.Errorf("failed to get dispersal record: %w", err)
	}
	if value == nil {
		return nil, nil
	}
	var rec types.DispersalRecord
	if err := jsonx.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dispersal record: %w", err)
	}
	return &rec, nil
}

// HasGenesisDispersal reports whether the locally synthesized genesis
// dispersal has been stored.
func (r *Reader) HasGenesisDispersal() (bool, error) {
	return r.tx.Has(metaKey(MetaKeyGenesisPresent))
}

// LeafHeight returns the highest stored leaf height. ok is false when no
// leaf has been stored yet.
func (r *Reader) LeafHeight() (height uint64, ok bool, err error) {
	return r.watermark(MetaKeyLeafHeight)
}

// BlockHeight returns the highest stored block height. ok is false when no
// block has been stored yet.
func (r *Reader) BlockHeight() (height uint64, ok bool, err error) {
	return r.watermark(MetaKeyBlockHeight)
}

func (r *Reader) watermark(name string) (uint64, bool, error) {
	value, err := r.tx.Get(metaKey(name))
	if err != nil {
		return 0, false, fmt.Errorf("failed to load %s watermark: %w", name, err)
	}
	if value == nil {
		return 0, false, nil
	}
	height, err := utils.BEToU64(value)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt %s watermark: %w", name, err)
	}
	return height, true, nil
}

// IterateLeaves walks stored leaves in ascending height order. The callback
// returns false to stop early.
func (r *Reader) IterateLeaves(callback func(rec *types.LeafRecord) bool) error {
	var decodeErr error
	err := r.tx.IteratePrefix([]byte(PrefixLeaf), func(key, value []byte) bool {
		var rec types.LeafRecord
		if err := jsonx.Unmarshal(value, &rec); err != nil {
			decodeErr = fmt.Errorf("failed to unmarshal leaf record at key %x: %w", key, err)
			return false
		}
		return callback(&rec)
	})
	if err != nil {
		return fmt.Errorf("failed to iterate leaf records: %w", err)
	}
	return decodeErr
}
