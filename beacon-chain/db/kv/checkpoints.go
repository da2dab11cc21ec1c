package kv

import (
	"context"

	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// HeadRoot returns the current chain-head block root, or the zero root if
// no head has ever been written.
func (s *Store) HeadRoot(ctx context.Context) ([32]byte, error) {
	var root [32]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		r := tx.Bucket(chainInfoBucket).Get(headBlockRootKey)
		copy(root[:], r)
		return nil
	})
	return root, err
}

// JustifiedCheckpoint returns the stored justified checkpoint, or nil if
// none has been written yet.
func (s *Store) JustifiedCheckpoint(ctx context.Context) (*types.Checkpoint, error) {
	return s.readCheckpoint(justifiedCheckpointKey)
}

// FinalizedCheckpoint returns the stored finalized checkpoint, or nil if
// none has been written yet.
func (s *Store) FinalizedCheckpoint(ctx context.Context) (*types.Checkpoint, error) {
	return s.readCheckpoint(finalizedCheckpointKey)
}

func (s *Store) readCheckpoint(key []byte) (*types.Checkpoint, error) {
	var cp *types.Checkpoint
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(chainInfoBucket).Get(key)
		if enc == nil {
			return nil
		}
		cp = &types.Checkpoint{}
		return ssz.Unmarshal(enc, cp)
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not read checkpoint")
	}
	return cp, nil
}

// SaveJustifiedCheckpoint updates the justified checkpoint cell.
func (s *Store) SaveJustifiedCheckpoint(ctx context.Context, cp *types.Checkpoint) error {
	return s.writeCheckpoint(justifiedCheckpointKey, cp)
}

// SaveFinalizedCheckpoint updates the finalized checkpoint cell.
func (s *Store) SaveFinalizedCheckpoint(ctx context.Context, cp *types.Checkpoint) error {
	return s.writeCheckpoint(finalizedCheckpointKey, cp)
}

func (s *Store) writeCheckpoint(key []byte, cp *types.Checkpoint) error {
	enc, err := ssz.Marshal(cp)
	if err != nil {
		return errors.Wrap(err, "could not marshal checkpoint")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chainInfoBucket).Put(key, enc)
	})
}

// SaveChainHead atomically writes the {block, state, chain.head} triple in
// a single bbolt transaction, satisfying spec.md §4.B's atomicity
// requirement.
func (s *Store) SaveChainHead(ctx context.Context, block *types.SignedBeaconBlock, blockRoot [32]byte, state *types.BeaconState, stateRoot [32]byte) error {
	blockEnc, err := ssz.Marshal(block)
	if err != nil {
		return errors.Wrap(err, "could not marshal block")
	}
	stateEnc, err := ssz.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "could not marshal state")
	}
	stateBytes.Set(float64(len(stateEnc)))

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(blocksBucket).Put(blockRoot[:], blockEnc); err != nil {
			return err
		}
		if err := tx.Bucket(blockSlotIndexBucket).Put(encodeSlot(uint64(block.Block.Slot)), blockRoot[:]); err != nil {
			return err
		}
		if err := tx.Bucket(statesBucket).Put(stateRoot[:], stateEnc); err != nil {
			return err
		}
		return tx.Bucket(chainInfoBucket).Put(headBlockRootKey, blockRoot[:])
	})
}
