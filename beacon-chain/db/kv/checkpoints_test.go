package kv

import (
	"context"
	"testing"

	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/stretchr/testify/require"
)

func TestStore_JustifiedCheckpoint_CanSaveRetrieve(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	cp := &types.Checkpoint{Epoch: 10, Root: [32]byte{'A'}}

	require.NoError(t, db.SaveJustifiedCheckpoint(ctx, cp))

	retrieved, err := db.JustifiedCheckpoint(ctx)
	require.NoError(t, err)
	require.Equal(t, cp.Epoch, retrieved.Epoch)
	require.Equal(t, cp.Root, retrieved.Root)
}

func TestStore_FinalizedCheckpoint_CanSaveRetrieve(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	cp := &types.Checkpoint{Epoch: 20, Root: [32]byte{'B'}}

	require.NoError(t, db.SaveFinalizedCheckpoint(ctx, cp))

	retrieved, err := db.FinalizedCheckpoint(ctx)
	require.NoError(t, err)
	require.Equal(t, cp.Epoch, retrieved.Epoch)
	require.Equal(t, cp.Root, retrieved.Root)
}

func TestStore_SaveChainHead_WritesAtomicTriple(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	block := &types.SignedBeaconBlock{Block: &types.BeaconBlock{Slot: 7}}
	blockRoot := [32]byte{0x01}
	state := &types.BeaconState{Slot: 7}
	stateRoot := [32]byte{0x02}

	require.NoError(t, db.SaveChainHead(ctx, block, blockRoot, state, stateRoot))

	headRoot, err := db.HeadRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, blockRoot, headRoot)

	storedBlock, err := db.Block(ctx, blockRoot)
	require.NoError(t, err)
	require.NotNil(t, storedBlock)

	storedState, err := db.State(ctx, stateRoot)
	require.NoError(t, err)
	require.NotNil(t, storedState)
}
