package store

import (
	"fmt"

	"github.com/openfinality/chainquery/db"
	"github.com/openfinality/chainquery/jsonx"
	"github.com/openfinality/chainquery/logx"
	"github.com/openfinality/chainquery/types"
	"github.com/openfinality/chainquery/utils"
)

// AvailabilityStore writes finalized records through one transaction. It
// stages the record body plus its secondary indexes and watermarks; nothing
// is visible until the transaction commits. Re-inserting a height is an
// overwrite, so replaying a decide is idempotent.
type AvailabilityStore struct {
	tx db.WriteTx
}

func NewAvailabilityStore(tx db.WriteTx) *AvailabilityStore {
	return &AvailabilityStore{tx: tx}
}

// InsertLeaf stores a justified leaf, its view index, and advances the leaf
// height watermark.
func (s *AvailabilityStore) InsertLeaf(rec *types.LeafRecord) error {
	if rec == nil {
		return fmt.Errorf("leaf record cannot be nil")
	}

	value, err := jsonx.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal leaf record: %w", err)
	}
	height := rec.Height()
	if err := s.tx.Put(leafKey(height), value); err != nil {
		return fmt.Errorf("failed to store leaf record: %w", err)
	}
	if err := s.tx.Put(leafViewKey(uint64(rec.View())), utils.U64ToBE(height)); err != nil {
		return fmt.Errorf("failed to store leaf view index: %w", err)
	}
	if err := s.advanceWatermark(MetaKeyLeafHeight, height); err != nil {
		return err
	}

	logx.Debug("STORE", "Inserted leaf at height ", height, " view ", rec.View())
	return nil
}

// InsertBlock stores a block whose payload is fully available, plus the
// payload hash index, and advances the block height watermark.
func (s *AvailabilityStore) InsertBlock(rec *types.BlockRecord) error {
	if rec == nil {
		return fmt.Errorf("block record cannot be nil")
	}

	value, err := jsonx.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal block record: %w", err)
	}
	height := rec.Height()
	if err := s.tx.Put(blockKey(height), value); err != nil {
		return fmt.Errorf("failed to store block record: %w", err)
	}
	if err := s.tx.Put(payloadHashKey(rec.PayloadHash()), utils.U64ToBE(height)); err != nil {
		return fmt.Errorf("failed to store payload hash index: %w", err)
	}
	if err := s.advanceWatermark(MetaKeyBlockHeight, height); err != nil {
		return err
	}

	logx.Debug("STORE", "Inserted block at height ", height)
	return nil
}

// InsertDispersal stores the erasure coding record for a block.
func (s *AvailabilityStore) InsertDispersal(rec *types.DispersalRecord) error {
	if rec == nil {
		return fmt.Errorf("dispersal record cannot be nil")
	}

	value, err := jsonx.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal dispersal record: %w", err)
	}
	height := rec.Height()
	if err := s.tx.Put(dispersalKey(height), value); err != nil {
		return fmt.Errorf("failed to store dispersal record: %w", err)
	}
	if height == 0 {
		if err := s.tx.Put(metaKey(MetaKeyGenesisPresent), []byte{1}); err != nil {
			return fmt.Errorf("failed to mark genesis dispersal: %w", err)
		}
	}

	logx.Debug("STORE", "Inserted dispersal at height ", height)
	return nil
}

// advanceWatermark raises a height watermark, never lowering it. Reads go
// through the transaction, so a batch observes its own earlier inserts.
func (s *AvailabilityStore) advanceWatermark(name string, height uint64) error {
	key := metaKey(name)
	current, err := s.tx.Get(key)
	if err != nil {
		return fmt.Errorf("failed to load %s watermark: %w", name, err)
	}
	if current != nil {
		existing, err := utils.BEToU64(current)
		if err != nil {
			return fmt.Errorf("corrupt %s watermark: %w", name, err)
		}
		if existing >= height {
			return nil
		}
	}
	if err := s.tx.Put(key, utils.U64ToBE(height)); err != nil {
		return fmt.Errorf("failed to advance %s watermark: %w", name, err)
	}
	return nil
}
