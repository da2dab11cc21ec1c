// Package db defines the Storage Contract of spec.md §4.B: key/value
// persistence for blocks, states, checkpoints, and the deposit-root list,
// with atomic multi-key writes. Implementations live in db/kv.
package db

import (
	"context"

	"github.com/ethbeacon/consensus-core/beacon-chain/trieutil"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
)

// Database is the full Storage Contract surface the core depends on.
// Operations are fail-loud: every method returns an error rather than
// silently no-oping, and all reads are consistent snapshots of the last
// committed write.
type Database interface {
	// Block returns the stored block for root, or nil if absent.
	Block(ctx context.Context, root [32]byte) (*types.SignedBeaconBlock, error)
	// SaveBlock writes a block keyed by its hash-tree-root. Write-once:
	// callers must not rely on overwrite semantics.
	SaveBlock(ctx context.Context, block *types.SignedBeaconBlock, root [32]byte) error
	// BlockRootBySlot returns the latest canonical block root stored at
	// slot, or the zero root if none.
	BlockRootBySlot(ctx context.Context, slot uint64) ([32]byte, error)

	// State returns the stored state for root, or nil if absent.
	State(ctx context.Context, root [32]byte) (*types.BeaconState, error)
	// SaveState writes a state keyed by its hash-tree-root.
	SaveState(ctx context.Context, state *types.BeaconState, root [32]byte) error

	// HeadRoot returns the current chain-head block root.
	HeadRoot(ctx context.Context) ([32]byte, error)
	// JustifiedCheckpoint / FinalizedCheckpoint return the single-slot
	// mutable checkpoint cells.
	JustifiedCheckpoint(ctx context.Context) (*types.Checkpoint, error)
	FinalizedCheckpoint(ctx context.Context) (*types.Checkpoint, error)

	// SaveChainHead atomically writes the {block, state, chain.head} triple,
	// per spec.md §4.B.
	SaveChainHead(ctx context.Context, block *types.SignedBeaconBlock, blockRoot [32]byte, state *types.BeaconState, stateRoot [32]byte) error
	// SaveJustifiedCheckpoint and SaveFinalizedCheckpoint update the
	// respective single-slot cells.
	SaveJustifiedCheckpoint(ctx context.Context, cp *types.Checkpoint) error
	SaveFinalizedCheckpoint(ctx context.Context, cp *types.Checkpoint) error

	// DepositDataRootList returns the Merkle deposit list recorded at the
	// given eth1_deposit_index snapshot, or an empty list if absent.
	DepositDataRootList(ctx context.Context, eth1DepositIndex uint64) (*trieutil.DepositDataRootList, error)
	// SaveDepositDataRootList records the list at the given index.
	SaveDepositDataRootList(ctx context.Context, eth1DepositIndex uint64, list *trieutil.DepositDataRootList) error

	// Close releases any underlying resources (file handles, connections).
	Close() error
}
