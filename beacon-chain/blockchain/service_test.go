package blockchain

import (
	"context"
	"testing"
	"time"

	"github.com/ethbeacon/consensus-core/beacon-chain/clock"
	dbtesting "github.com/ethbeacon/consensus-core/beacon-chain/db/testing"
	"github.com/ethbeacon/consensus-core/beacon-chain/event"
	"github.com/ethbeacon/consensus-core/beacon-chain/forkchoice"
	"github.com/ethbeacon/consensus-core/beacon-chain/params"
	"github.com/ethbeacon/consensus-core/beacon-chain/primitives"
	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/stf"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/stretchr/testify/require"
)

func init() {
	cfg := params.MinimalConfig()
	cfg.MaxFutureSlots = 2
	params.OverrideBeaconConfig(cfg)
}

func equalWeight(primitives.ValidatorIndex) uint64 { return 1 }

func identityTransition(_ context.Context, preState *types.BeaconState, signed *types.SignedBeaconBlock, _ stf.Options) (*types.BeaconState, error) {
	next := *preState
	next.Slot = signed.Block.Slot
	return &next, nil
}

func newTestService(t *testing.T) *Service {
	database := dbtesting.SetupDB(t)
	store := forkchoice.New(equalWeight)
	clk := clock.New()
	bus := &event.Bus{}

	svc, err := New(database, store, clk, identityTransition, bus)
	require.NoError(t, err)
	return svc
}

func TestService_InitializeBeaconChain_IsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisState := &types.BeaconState{Slot: 0}

	require.NoError(t, svc.InitializeBeaconChain(ctx, 1000, genesisState, types.Eth1Data{}))
	firstHead, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.InitializeBeaconChain(ctx, 1000, genesisState, types.Eth1Data{}))
	secondHead, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	require.Equal(t, firstHead, secondHead)
}

func TestService_StartStop_ReceivesBlockWhileRunning(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisTime := uint64(time.Now().Add(-1 * time.Second).Unix())
	genesisState := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, genesisTime, genesisState, types.Eth1Data{}))

	genesisRoot, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	future := &types.SignedBeaconBlock{
		Block: &types.BeaconBlock{Slot: 1, ParentRoot: genesisRoot, StateRoot: ssz.ZeroRoot},
	}
	state, err := identityTransition(ctx, genesisState, future, stf.Options{})
	require.NoError(t, err)
	stateRoot, err := ssz.HashTreeRoot(state)
	require.NoError(t, err)
	future.Block.StateRoot = [32]byte(stateRoot)

	require.NoError(t, svc.Start(ctx))
	defer func() { require.NoError(t, svc.Stop()) }()

	err = svc.ReceiveBlock(ctx, future)
	if err != nil {
		be, ok := err.(*Error)
		require.True(t, ok)
		require.Equal(t, FutureSlot, be.Kind)
	}
}

func TestService_InitializeBeaconChain_RejectsMismatchedGenesis(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, 1000, first, types.Eth1Data{}))
	firstHead, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	second := &types.BeaconState{Slot: 0, Eth1DepositIndex: 1}
	err = svc.InitializeBeaconChain(ctx, 1000, second, types.Eth1Data{})
	require.Error(t, err)
	be, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, GenesisMismatch, be.Kind)

	unchangedHead, err := svc.HeadRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, firstHead, unchangedHead)
}

func TestService_Start_RestoresHeadFromStorageAfterRestart(t *testing.T) {
	database := dbtesting.SetupDB(t)
	ctx := context.Background()

	firstStore := forkchoice.New(equalWeight)
	firstClock := clock.New()
	firstBus := &event.Bus{}
	first, err := New(database, firstStore, firstClock, identityTransition, firstBus)
	require.NoError(t, err)

	genesisState := &types.BeaconState{Slot: 0, GenesisTime: 1000}
	require.NoError(t, first.InitializeBeaconChain(ctx, 1000, genesisState, types.Eth1Data{}))
	genesisRoot, err := first.HeadRoot(ctx)
	require.NoError(t, err)

	child := buildChild(t, genesisRoot, genesisState, 1)
	require.NoError(t, first.ReceiveBlock(ctx, child))
	childRoot, err := ssz.HashTreeRoot(child.Block)
	require.NoError(t, err)

	// A fresh Service sharing the same underlying storage stands in for a
	// process restart: its in-memory fields and fork-choice store start
	// empty, exactly as they would after a process relaunch.
	secondStore := forkchoice.New(equalWeight)
	secondClock := clock.New()
	secondBus := &event.Bus{}
	second, err := New(database, secondStore, secondClock, identityTransition, secondBus)
	require.NoError(t, err)

	require.NoError(t, second.Start(ctx))
	defer func() { require.NoError(t, second.Stop()) }()

	restoredHead, err := second.HeadRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, [32]byte(childRoot), restoredHead)
	require.Equal(t, uint64(1), second.HeadSlot())
	require.Equal(t, time.Unix(1000, 0), second.GenesisTime())
}

func TestService_ChainInfoFetchers_ReflectGenesis(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisState := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, 1000, genesisState, types.Eth1Data{}))

	require.Equal(t, uint64(0), svc.HeadSlot())
	require.Equal(t, time.Unix(1000, 0), svc.GenesisTime())

	head, err := svc.HeadBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, head)
}
