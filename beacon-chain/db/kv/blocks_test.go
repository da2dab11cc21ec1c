package kv

import (
	"context"
	"testing"

	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/stretchr/testify/require"
)

func TestStore_Block_CanSaveRetrieve(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	block := &types.SignedBeaconBlock{
		Block: &types.BeaconBlock{Slot: 5},
	}
	root := [32]byte{0xAA}

	require.NoError(t, db.SaveBlock(ctx, block, root))

	retrieved, err := db.Block(ctx, root)
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	require.Equal(t, uint64(5), uint64(retrieved.Block.Slot))

	bySlot, err := db.BlockRootBySlot(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, root, bySlot)
}

func TestStore_Block_MissingReturnsNil(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	retrieved, err := db.Block(ctx, [32]byte{0xFF})
	require.NoError(t, err)
	require.Nil(t, retrieved)
}
