package blockchain

import (
	"context"
	"testing"

	"github.com/ethbeacon/consensus-core/beacon-chain/params"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/stretchr/testify/require"
)

func TestService_FinalizationFetchers_DelegateToForkChoice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisState := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, 0, genesisState, types.Eth1Data{}))

	genesisRoot, err := svc.HeadRoot(ctx)
	require.NoError(t, err)

	require.Equal(t, genesisRoot, svc.FinalizedCheckpt().Root)
	require.Equal(t, genesisRoot, svc.CurrentJustifiedCheckpt().Root)
}

func TestService_CurrentForkDigest_SetAtGenesis(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	genesisState := &types.BeaconState{Slot: 0}
	require.NoError(t, svc.InitializeBeaconChain(ctx, 0, genesisState, types.Eth1Data{}))

	digest := svc.CurrentForkDigest()
	require.Equal(t, params.BeaconConfig().ForkVersionAtEpoch(0), digest)
}

var _ ChainInfoFetcher = (*Service)(nil)
