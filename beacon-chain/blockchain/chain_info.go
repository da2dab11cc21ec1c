package blockchain

import (
	"context"
	"time"

	"github.com/ethbeacon/consensus-core/beacon-chain/types"
)

// TimeFetcher retrieves the clock-related data of spec.md §4.A, grounded on
// the teacher's blockchain.TimeFetcher interface.
type TimeFetcher interface {
	GenesisTime() time.Time
	CurrentSlot() uint64
}

// HeadFetcher defines the chain-head accessors of spec.md §4.H, grounded
// on the teacher's blockchain.HeadFetcher interface.
type HeadFetcher interface {
	HeadRoot(ctx context.Context) ([32]byte, error)
	HeadBlock(ctx context.Context) (*types.SignedBeaconBlock, error)
	HeadState(ctx context.Context) (*types.BeaconState, error)
	HeadSlot() uint64
}

// FinalizationFetcher defines the justified/finalized accessors of
// spec.md §4.H, grounded on the teacher's blockchain.FinalizationFetcher
// interface.
type FinalizationFetcher interface {
	FinalizedCheckpt() types.Checkpoint
	CurrentJustifiedCheckpt() types.Checkpoint
}

// ChainInfoFetcher composes HeadFetcher and FinalizationFetcher, mirroring
// the teacher's combined interface used by downstream RPC/API layers (out
// of scope here, but the seam is worth keeping for a complete core).
type ChainInfoFetcher interface {
	HeadFetcher
	FinalizationFetcher
}

// GenesisTime returns the wall-clock genesis time the chain started at.
func (s *Service) GenesisTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.genesisTime
}

// CurrentSlot delegates to the Clock.
func (s *Service) CurrentSlot() uint64 {
	return s.clock.CurrentSlot()
}

// HeadRoot returns the current chain-head block root cached in-process by
// the last InitializeBeaconChain, ReceiveBlock, or Start-time
// restoreFromStorage call.
func (s *Service) HeadRoot(ctx context.Context) ([32]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.headRoot, nil
}

// HeadBlock returns the block at the current chain head.
func (s *Service) HeadBlock(ctx context.Context) (*types.SignedBeaconBlock, error) {
	root, err := s.HeadRoot(ctx)
	if err != nil {
		return nil, err
	}
	return s.db.Block(ctx, root)
}

// HeadState returns the state at the current chain head.
func (s *Service) HeadState(ctx context.Context) (*types.BeaconState, error) {
	s.mu.RLock()
	stateRoot := s.headStateRoot
	s.mu.RUnlock()
	return s.db.State(ctx, stateRoot)
}

// HeadSlot returns the slot of the current chain head block.
func (s *Service) HeadSlot() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(s.headSlot)
}

// FinalizedCheckpt returns the store's current finalized checkpoint.
func (s *Service) FinalizedCheckpt() types.Checkpoint {
	return s.forkChoice.FinalizedCheckpoint()
}

// CurrentJustifiedCheckpt returns the store's current justified checkpoint.
func (s *Service) CurrentJustifiedCheckpt() types.Checkpoint {
	return s.forkChoice.JustifiedCheckpoint()
}

// CurrentForkDigest returns the cached fork version that
// params.BeaconConfig().ForkVersionSchedule assigns to the head block's
// epoch, refreshed on every head change. The value is the 4-byte fork
// version itself; the genesis validators root is not mixed in. Grounded on
// the teacher's shared/p2putils fork-digest helpers.
func (s *Service) CurrentForkDigest() [4]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forkDigest
}
