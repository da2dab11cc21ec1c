// Package stf defines the pure state-transition-function contract of
// spec.md §6: "(config, pre_state, signed_block, opts) -> post_state |
// Error". The function itself — full epoch/slot processing, signature
// verification beyond the block-level BLS check, and the mainnet
// consensus-field bookkeeping — is assumed available and supplied at
// construction time, mirroring how the teacher's beacon-chain/core/state
// package exposes ExecuteStateTransition / ExecuteStateTransitionNoVerifyAttSigs
// as free functions its blockchain.Service calls into.
package stf

import (
	"context"

	"github.com/ethbeacon/consensus-core/beacon-chain/types"
)

// Options controls which verification steps the transition function
// performs, mirroring spec.md §4.G step 3 ({verify_signatures: !trusted}).
type Options struct {
	VerifySignatures bool
}

// Function is the injectable pure state-transition function.
type Function func(ctx context.Context, preState *types.BeaconState, signed *types.SignedBeaconBlock, opts Options) (*types.BeaconState, error)

// GenesisFunction is the injectable pure genesis-state constructor used by
// the Genesis Bootstrapper, matching spec.md §4.D step 3's
// initialize_beacon_state_from_eth1.
type GenesisFunction func(eth1BlockHash [32]byte, eth1Timestamp uint64, deposits []*types.Deposit) (*types.BeaconState, error)

// IsValidGenesisState is the injectable predicate of spec.md §4.D step 4.
type IsValidGenesisStateFunc func(state *types.BeaconState) bool
