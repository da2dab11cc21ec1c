package kv

import (
	"context"

	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// Block returns the stored block for root, or nil if absent.
func (s *Store) Block(ctx context.Context, root [32]byte) (*types.SignedBeaconBlock, error) {
	_, span := trace.StartSpan(ctx, "kv.Block")
	defer span.End()

	var block *types.SignedBeaconBlock
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(blocksBucket).Get(root[:])
		if enc == nil {
			return nil
		}
		block = &types.SignedBeaconBlock{}
		return ssz.Unmarshal(enc, block)
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch block")
	}
	return block, nil
}

// SaveBlock writes a block keyed by root, and indexes it as the latest
// canonical block at its slot.
func (s *Store) SaveBlock(ctx context.Context, block *types.SignedBeaconBlock, root [32]byte) error {
	_, span := trace.StartSpan(ctx, "kv.SaveBlock")
	defer span.End()

	enc, err := ssz.Marshal(block)
	if err != nil {
		return errors.Wrap(err, "could not marshal block")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(blocksBucket).Put(root[:], enc); err != nil {
			return err
		}
		return tx.Bucket(blockSlotIndexBucket).Put(encodeSlot(uint64(block.Block.Slot)), root[:])
	})
}

// BlockRootBySlot returns the latest canonical block root stored at slot.
func (s *Store) BlockRootBySlot(ctx context.Context, slot uint64) ([32]byte, error) {
	_, span := trace.StartSpan(ctx, "kv.BlockRootBySlot")
	defer span.End()

	var root [32]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		r := tx.Bucket(blockSlotIndexBucket).Get(encodeSlot(slot))
		copy(root[:], r)
		return nil
	})
	return root, err
}
