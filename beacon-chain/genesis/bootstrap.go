// Package genesis implements the Genesis Bootstrapper of spec.md §4.D: it
// watches an eth1 follower for deposits, and once MinGenesisActiveValidatorCount
// deposits have been seen, builds a candidate genesis BeaconState and hands
// it to the chain coordinator if the injected validity predicate accepts
// it; any genesis-time check is left to that predicate. Grounded on the
// teacher's beacon-chain/core/state.GenesisBeaconState /
// OptimizedGenesisBeaconState and beacon-chain/powchain's chainStartData
// bookkeeping.
package genesis

import (
	"context"
	"sync"

	"github.com/ethbeacon/consensus-core/beacon-chain/params"
	"github.com/ethbeacon/consensus-core/beacon-chain/powchain"
	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/stf"
	"github.com/ethbeacon/consensus-core/beacon-chain/trieutil"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "genesis")

// ChainInitializer receives the finished genesis state once the
// Bootstrapper has validated it. beacon-chain/blockchain.Service
// implements this; it is declared here, not imported, to keep genesis
// free of a dependency on blockchain.
type ChainInitializer interface {
	InitializeBeaconChain(ctx context.Context, genesisTime uint64, state *types.BeaconState, eth1Data types.Eth1Data) error
}

// Bootstrapper drives genesis per spec.md §4.D: it is the sole subscriber
// of an Eth1Follower until chain start, after which it unsubscribes and
// becomes inert. First-observed valid eth1 block wins.
type Bootstrapper struct {
	follower    powchain.Eth1Follower
	initializer ChainInitializer
	genesisFn   stf.GenesisFunction
	isValidFn   stf.IsValidGenesisStateFunc

	mu        sync.Mutex
	deposits  []*types.Deposit
	rootList  *trieutil.DepositDataRootList
	started   bool
	subID     string
}

// New constructs a Bootstrapper. genesisFn and isValidFn are the injected
// pure functions of spec.md §1 (state-transition and validity predicate);
// the caller owns wiring isValidFn to params.BeaconConfig() thresholds.
func New(follower powchain.Eth1Follower, initializer ChainInitializer, genesisFn stf.GenesisFunction, isValidFn stf.IsValidGenesisStateFunc) *Bootstrapper {
	return &Bootstrapper{
		follower:    follower,
		initializer: initializer,
		genesisFn:   genesisFn,
		isValidFn:   isValidFn,
		rootList:    trieutil.DefaultDepositDataRootList(),
	}
}

// Start subscribes to the eth1 follower and begins accumulating deposits.
// It is idempotent.
func (b *Bootstrapper) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	b.started = true

	if err := b.follower.InitBlockCache(ctx); err != nil {
		return errors.Wrap(err, "could not initialize eth1 block cache")
	}

	id, err := b.follower.OnNewBlock(ctx, func(block powchain.Eth1Block) {
		if err := b.onBlock(ctx, block); err != nil {
			log.WithError(err).Error("Could not process eth1 block for genesis")
		}
	})
	if err != nil {
		return errors.Wrap(err, "could not subscribe to eth1 follower")
	}
	b.subID = id
	return nil
}

// onBlock pulls every deposit up to block's height, appends it to the
// running Merkle deposit list, and checks whether genesis has been
// reached. It holds the bootstrapper lock for the duration: genesis
// bootstrap runs at eth1 block cadence, far below contention concerns.
func (b *Bootstrapper) onBlock(ctx context.Context, block powchain.Eth1Block) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	logs, err := b.follower.ProcessPastDeposits(ctx, block.Number)
	if err != nil {
		return errors.Wrap(err, "could not fetch past deposits")
	}
	for _, l := range logs {
		if int(l.Index) < len(b.deposits) {
			continue
		}
		root, err := ssz.HashTreeRoot(l.Data)
		if err != nil {
			return errors.Wrap(err, "could not hash deposit data")
		}
		b.rootList.Push(root)
		proof, err := b.rootList.GetSingleProof(int(l.Index))
		if err != nil {
			return errors.Wrap(err, "could not build deposit proof")
		}
		b.deposits = append(b.deposits, &types.Deposit{Data: l.Data, Proof: proof})
	}

	if uint64(len(b.deposits)) < params.BeaconConfig().MinGenesisActiveValidatorCount {
		return nil
	}

	eth1Data := types.Eth1Data{
		DepositRoot:  b.rootList.Root(),
		DepositCount: uint64(len(b.deposits)),
		BlockHash:    block.Hash,
	}

	state, err := b.genesisFn(block.Hash, block.Timestamp, b.deposits)
	if err != nil {
		return errors.Wrap(err, "could not build candidate genesis state")
	}
	if !b.isValidFn(state) {
		return nil
	}

	b.follower.RemoveListener(b.subID)
	log.WithField("validatorCount", len(b.deposits)).Info("Minimum genesis conditions met")
	return b.initializer.InitializeBeaconChain(ctx, state.GenesisTime, state, eth1Data)
}
