package blockchain

import (
	"context"
	"testing"

	"github.com/ethbeacon/consensus-core/beacon-chain/primitives"
	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/stf"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/stretchr/testify/require"
)

func buildChild(t *testing.T, parentRoot [32]byte, parentState *types.BeaconState, slot uint64) *types.SignedBeaconBlock {
	block := &types.SignedBeaconBlock{
		Block: &types.BeaconBlock{
			Slot:       primitives.Slot(slot),
			ParentRoot: parentRoot,
		},
	}
	post, err := identityTransition(context.Background(), parentState, block, stf.Options{})
	require.NoError(t, err)
	stateRoot, err := ssz.HashTreeRoot(post)
	require.NoError(t, err)
	block.Block.StateRoot = [32]byte(stateRoot)
	return block
}

func TestService_ReceiveBlock_AppliesAndUpdatesHead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisState := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, 0, genesisState, types.Eth1Data{}))
	genesisRoot, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	child := buildChild(t, genesisRoot, genesisState, 1)
	require.NoError(t, svc.ReceiveBlock(ctx, child))

	childRoot, err := ssz.HashTreeRoot(child.Block)
	require.NoError(t, err)

	head, err := svc.HeadRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, [32]byte(childRoot), head)
	require.Equal(t, uint64(1), svc.HeadSlot())
}

func TestService_ReceiveBlock_IsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisState := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, 0, genesisState, types.Eth1Data{}))
	genesisRoot, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	child := buildChild(t, genesisRoot, genesisState, 1)
	require.NoError(t, svc.ReceiveBlock(ctx, child))
	require.NoError(t, svc.ReceiveBlock(ctx, child))
}

func TestService_ReceiveBlock_ParksUnknownParentThenDrainsOnArrival(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisState := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, 0, genesisState, types.Eth1Data{}))
	genesisRoot, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	parent := buildChild(t, genesisRoot, genesisState, 1)
	parentRoot, err := ssz.HashTreeRoot(parent.Block)
	require.NoError(t, err)
	parentState, err := identityTransition(ctx, genesisState, parent, stf.Options{})
	require.NoError(t, err)

	grandchild := buildChild(t, [32]byte(parentRoot), parentState, 2)

	err = svc.ReceiveBlock(ctx, grandchild)
	require.Error(t, err)
	be, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, UnknownParent, be.Kind)

	require.NoError(t, svc.ReceiveBlock(ctx, parent))

	grandchildRoot, err := ssz.HashTreeRoot(grandchild.Block)
	require.NoError(t, err)
	head, err := svc.HeadRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, [32]byte(grandchildRoot), head)
}

func TestService_ReceiveBlock_RejectsNonIncreasingSlot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisState := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, 0, genesisState, types.Eth1Data{}))
	genesisRoot, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	atGenesisSlot := buildChild(t, genesisRoot, genesisState, 0)
	err = svc.ReceiveBlock(ctx, atGenesisSlot)
	require.Error(t, err)
	be, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, InvalidBlock, be.Kind)
}

func TestService_ReceiveBlock_RejectsStateRootMismatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisState := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, 0, genesisState, types.Eth1Data{}))
	genesisRoot, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	child := buildChild(t, genesisRoot, genesisState, 1)
	child.Block.StateRoot = [32]byte{0xDE, 0xAD}

	err = svc.ReceiveBlock(ctx, child)
	require.Error(t, err)
	be, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, InvalidBlock, be.Kind)
}
