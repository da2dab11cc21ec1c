package attestation

import (
	"context"
	"testing"
	"time"

	"github.com/ethbeacon/consensus-core/beacon-chain/bls"
	"github.com/ethbeacon/consensus-core/beacon-chain/clock"
	dbtesting "github.com/ethbeacon/consensus-core/beacon-chain/db/testing"
	"github.com/ethbeacon/consensus-core/beacon-chain/forkchoice"
	"github.com/ethbeacon/consensus-core/beacon-chain/primitives"
	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/stretchr/testify/require"
)

func equalWeight(primitives.ValidatorIndex) uint64 { return 1 }

func setup(t *testing.T) (*Processor, *forkchoice.Store, [32]byte, [32]byte) {
	ctx := context.Background()
	database := dbtesting.SetupDB(t)

	block := &types.SignedBeaconBlock{Block: &types.BeaconBlock{Slot: 1}}
	blockRoot := [32]byte{0x01}
	require.NoError(t, database.SaveBlock(ctx, block, blockRoot))

	state := &types.BeaconState{Slot: 1}
	stateRoot := [32]byte{0x02}
	require.NoError(t, database.SaveState(ctx, state, stateRoot))

	clk := clock.New()
	clk.Start(time.Now())

	store := forkchoice.New(equalWeight)
	store.Start(0)

	committee := func(state *types.BeaconState, slot primitives.Slot, committeeIndex uint64) ([]primitives.ValidatorIndex, error) {
		return []primitives.ValidatorIndex{0, 1, 2}, nil
	}
	pubkeys := func(state *types.BeaconState, indices []primitives.ValidatorIndex) ([][48]byte, error) {
		return make([][48]byte, len(indices)), nil
	}

	p := New(database, store, clk, bls.AlwaysValid{}, committee, pubkeys)
	return p, store, blockRoot, stateRoot
}

func TestProcessor_ReceiveAttestation_ForwardsParticipantsToForkChoice(t *testing.T) {
	p, store, blockRoot, stateRoot := setup(t)
	ctx := context.Background()

	// blockRoot has a sibling with a larger root: with no votes the
	// tie-break picks the sibling, so blockRoot is head only if the two
	// participants' votes reach fork-choice.
	genesisRoot := ssz.Root{0xA0}
	store.SeedGenesis(&forkchoice.Node{
		BlockRoot:           genesisRoot,
		JustifiedCheckpoint: types.Checkpoint{Root: [32]byte(genesisRoot)},
	})
	require.NoError(t, store.AddBlock(&forkchoice.Node{Slot: 1, BlockRoot: ssz.Root(blockRoot), ParentRoot: genesisRoot}))
	require.NoError(t, store.AddBlock(&forkchoice.Node{Slot: 1, BlockRoot: ssz.Root{0x02}, ParentRoot: genesisRoot}))

	bits := bitfield.NewBitlist(3)
	bits.SetBitAt(0, true)
	bits.SetBitAt(2, true)

	att := &types.Attestation{
		AggregationBits: bits,
		Data: &types.AttestationData{
			Slot:            1,
			BeaconBlockRoot: blockRoot,
			Target:          types.Checkpoint{Epoch: 0, Root: stateRoot},
		},
	}

	require.NoError(t, p.ReceiveAttestation(ctx, att))

	head, err := store.Head()
	require.NoError(t, err)
	require.Equal(t, ssz.Root(blockRoot), head)
}

func TestProcessor_ReceiveAttestation_RejectsUnknownBlockRoot(t *testing.T) {
	p, _, _, stateRoot := setup(t)
	ctx := context.Background()

	att := &types.Attestation{
		AggregationBits: bitfield.NewBitlist(3),
		Data: &types.AttestationData{
			BeaconBlockRoot: [32]byte{0xFF},
			Target:          types.Checkpoint{Root: stateRoot},
		},
	}

	err := p.ReceiveAttestation(ctx, att)
	require.ErrorIs(t, err, ErrUnknownBeaconBlockRoot)
}

func TestProcessor_ReceiveAttestation_RejectsFarFutureTarget(t *testing.T) {
	p, _, blockRoot, stateRoot := setup(t)
	ctx := context.Background()

	att := &types.Attestation{
		AggregationBits: bitfield.NewBitlist(3),
		Data: &types.AttestationData{
			BeaconBlockRoot: blockRoot,
			Target:          types.Checkpoint{Epoch: 1000000, Root: stateRoot},
		},
	}

	err := p.ReceiveAttestation(ctx, att)
	require.ErrorIs(t, err, ErrTargetTooFarInFuture)
}
