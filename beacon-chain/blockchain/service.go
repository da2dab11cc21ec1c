// Package blockchain implements the Block Processor and Chain Coordinator
// of spec.md §4.G-H: Service validates signed blocks, applies the
// state-transition function, updates storage and fork-choice, and wires
// every other component's start/stop life-cycle. Grounded on the teacher's
// blockchain.ChainService/Service Start/Stop shape and its
// chain_info.go head/justified/finalized fetchers.
package blockchain

import (
	"context"
	"sync"
	"time"

	"github.com/ethbeacon/consensus-core/beacon-chain/clock"
	"github.com/ethbeacon/consensus-core/beacon-chain/db"
	"github.com/ethbeacon/consensus-core/beacon-chain/event"
	"github.com/ethbeacon/consensus-core/beacon-chain/forkchoice"
	"github.com/ethbeacon/consensus-core/beacon-chain/params"
	"github.com/ethbeacon/consensus-core/beacon-chain/primitives"
	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/stf"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultOrphanPoolSize = 256

// Service is the Chain Coordinator of spec.md §4.H and, via the methods in
// receive_block.go, the Block Processor of spec.md §4.G. It wires the
// Clock, Storage Contract, Fork-Choice store, and the injected
// state-transition function, and publishes chain events on an event.Bus.
type Service struct {
	mu sync.RWMutex

	db         db.Database
	forkChoice *forkchoice.Store
	clock      *clock.Clock
	transition stf.Function
	eventBus   *event.Bus

	genesisTime   time.Time
	headRoot      [32]byte
	headStateRoot [32]byte
	headSlot      primitives.Slot
	forkDigest    [4]byte

	orphans  *lru.Cache
	orphanMu sync.Mutex

	futureMu     sync.Mutex
	futureBlocks map[primitives.Slot][]*types.SignedBeaconBlock

	slotCh          chan uint64
	unsubscribeSlot func()

	group    *errgroup.Group
	groupCtx context.Context
	cancel   context.CancelFunc
}

// New constructs a Service. transition is the injected pure
// state-transition function of spec.md §1.
func New(database db.Database, forkChoiceStore *forkchoice.Store, clk *clock.Clock, transition stf.Function, eventBus *event.Bus) (*Service, error) {
	orphans, err := lru.New(defaultOrphanPoolSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not construct orphan pool")
	}
	return &Service{
		db:           database,
		forkChoice:   forkChoiceStore,
		clock:        clk,
		transition:   transition,
		eventBus:     eventBus,
		orphans:      orphans,
		futureBlocks: make(map[primitives.Slot][]*types.SignedBeaconBlock),
	}, nil
}

// InitializeBeaconChain implements genesis.ChainInitializer: it persists
// the genesis block and state, and seeds fork-choice; the Clock is started
// later by Start. A repeat call whose genesis block is already stored is a
// no-op.
func (s *Service) InitializeBeaconChain(ctx context.Context, genesisTime uint64, genesisState *types.BeaconState, eth1Data types.Eth1Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	genesisBlock := &types.SignedBeaconBlock{
		Block: &types.BeaconBlock{Slot: 0, StateRoot: ssz.Root{}},
	}
	stateRoot, err := ssz.HashTreeRoot(genesisState)
	if err != nil {
		return newError(GenesisMismatch, err, "could not hash genesis state")
	}
	genesisBlock.Block.StateRoot = [32]byte(stateRoot)
	blockRoot, err := ssz.HashTreeRoot(genesisBlock.Block)
	if err != nil {
		return newError(GenesisMismatch, err, "could not hash genesis block")
	}

	existing, err := s.db.Block(ctx, blockRoot)
	if err != nil {
		return newError(StorageFault, err, "could not check for existing genesis block")
	}
	if existing != nil {
		return nil
	}

	priorRoot, err := s.db.BlockRootBySlot(ctx, 0)
	if err != nil {
		return newError(StorageFault, err, "could not check for a prior genesis block")
	}
	if priorRoot != ssz.ZeroRoot && priorRoot != blockRoot {
		return newError(GenesisMismatch, errors.Errorf("storage already has a genesis block %x, new bootstrap produced %x", priorRoot, blockRoot), "refusing to overwrite existing genesis")
	}

	if err := s.db.SaveChainHead(ctx, genesisBlock, blockRoot, genesisState, [32]byte(stateRoot)); err != nil {
		return newError(StorageFault, err, "could not persist genesis chain head")
	}

	genesisCheckpoint := types.Checkpoint{Epoch: 0, Root: blockRoot}
	if err := s.db.SaveJustifiedCheckpoint(ctx, &genesisCheckpoint); err != nil {
		return newError(StorageFault, err, "could not persist genesis justified checkpoint")
	}
	if err := s.db.SaveFinalizedCheckpoint(ctx, &genesisCheckpoint); err != nil {
		return newError(StorageFault, err, "could not persist genesis finalized checkpoint")
	}
	s.forkChoice.Start(genesisTime)
	s.forkChoice.SeedGenesis(&forkchoice.Node{
		Slot:                0,
		BlockRoot:           ssz.Root(blockRoot),
		StateRoot:           ssz.Root(stateRoot),
		ParentRoot:          ssz.ZeroRoot,
		JustifiedCheckpoint: genesisCheckpoint,
		FinalizedCheckpoint: genesisCheckpoint,
	})

	s.genesisTime = time.Unix(int64(genesisTime), 0)
	s.headRoot = blockRoot
	s.headStateRoot = [32]byte(stateRoot)
	s.headSlot = 0
	s.forkDigest = params.BeaconConfig().ForkVersionAtEpoch(0)

	log.WithField("genesisTime", s.genesisTime).Info("Beacon chain initialized from genesis")
	s.eventBus.Publish(event.Event{Kind: event.Head, Data: event.HeadData{Root: blockRoot, StateRoot: [32]byte(stateRoot), Slot: 0}})
	return nil
}

// restoreFromStorage implements spec.md §4.H's wait_for_state() load path:
// on a process restart, the Service's in-memory fields and the fork-choice
// store start empty even though the Storage Contract already holds a
// chain head and its justified/finalized checkpoints. It is a no-op when
// InitializeBeaconChain has already populated this process's state (the
// common case of a single long-lived process that never restarts).
//
// The Storage Contract retains only the canonical head, not the full
// block tree that produced it, so restoring after a restart re-seeds
// fork-choice with the stored head as a new root rather than replaying
// history. Block processing and fork-choice after a restart start from
// that head exactly as they would from a fresh genesis.
func (s *Service) restoreFromStorage(ctx context.Context) error {
	s.mu.RLock()
	alreadyLoaded := s.headRoot != ssz.ZeroRoot
	s.mu.RUnlock()
	if alreadyLoaded {
		return nil
	}

	storedHead, err := s.db.HeadRoot(ctx)
	if err != nil {
		return newError(StorageFault, err, "could not read stored chain head")
	}
	if storedHead == ssz.ZeroRoot {
		return nil
	}

	headBlock, err := s.db.Block(ctx, storedHead)
	if err != nil {
		return newError(StorageFault, err, "could not load stored head block")
	}
	if headBlock == nil {
		return newError(StorageFault, errors.New("stored head root has no matching block"), "inconsistent store")
	}
	headState, err := s.db.State(ctx, ssz.Root(headBlock.Block.StateRoot))
	if err != nil {
		return newError(StorageFault, err, "could not load stored head state")
	}
	if headState == nil {
		return newError(StorageFault, errors.New("stored head state root has no matching state"), "inconsistent store")
	}

	justified, err := s.db.JustifiedCheckpoint(ctx)
	if err != nil {
		return newError(StorageFault, err, "could not read stored justified checkpoint")
	}
	justifiedEpoch := primitives.Epoch(0)
	if justified != nil {
		justifiedEpoch = justified.Epoch
	}
	finalized, err := s.db.FinalizedCheckpoint(ctx)
	if err != nil {
		return newError(StorageFault, err, "could not read stored finalized checkpoint")
	}
	finalizedEpoch := primitives.Epoch(0)
	if finalized != nil {
		finalizedEpoch = finalized.Epoch
	}

	// The fork-choice store only ever knows about nodes seeded or added
	// into it, so the restored justified/finalized checkpoints must point
	// at the restored head itself rather than at whatever root storage
	// last recorded: the Storage Contract does not retain the ancestor
	// blocks those roots may have referred to, and a checkpoint root with
	// no matching node would make Head() fail with ErrNoJustifiedBlock.
	// The epoch numbers still carry over so AddBlock's strictly-greater
	// check keeps working against real epoch history.
	s.forkChoice.Start(headState.GenesisTime)
	s.forkChoice.SeedGenesis(&forkchoice.Node{
		Slot:                headBlock.Block.Slot,
		BlockRoot:           ssz.Root(storedHead),
		StateRoot:           ssz.Root(headBlock.Block.StateRoot),
		ParentRoot:          ssz.ZeroRoot,
		JustifiedCheckpoint: types.Checkpoint{Epoch: justifiedEpoch, Root: storedHead},
		FinalizedCheckpoint: types.Checkpoint{Epoch: finalizedEpoch, Root: storedHead},
	})

	s.mu.Lock()
	s.genesisTime = time.Unix(int64(headState.GenesisTime), 0)
	s.headRoot = storedHead
	s.headStateRoot = ssz.Root(headBlock.Block.StateRoot)
	s.headSlot = headBlock.Block.Slot
	s.forkDigest = params.BeaconConfig().ForkVersionAtEpoch(uint64(s.headSlot.ToEpoch()))
	s.mu.Unlock()

	log.WithFields(logrus.Fields{"headRoot": storedHead, "headSlot": headBlock.Block.Slot}).Info("Restored chain head from storage")
	return nil
}

// Start begins the Clock and the future-slot drain loop. It is idempotent
// only insofar as the Clock and fork-choice store are themselves
// idempotent; calling Start before InitializeBeaconChain has run is a
// programmer error unless storage already holds a chain head from a prior
// process, in which case Start reseeds from it via restoreFromStorage.
func (s *Service) Start(ctx context.Context) error {
	if err := s.restoreFromStorage(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	genesisTime := s.genesisTime
	s.mu.Unlock()

	groupCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(groupCtx)
	s.group = group
	s.groupCtx = groupCtx
	s.cancel = cancel

	s.clock.Start(genesisTime)

	s.slotCh = make(chan uint64, 1)
	s.unsubscribeSlot = s.clock.Subscribe(s.slotCh)

	group.Go(func() error {
		for {
			select {
			case slot := <-s.slotCh:
				s.forkChoice.OnTick(primitives.Slot(slot))
				s.drainFutureBlocks(groupCtx, primitives.Slot(slot))
			case <-groupCtx.Done():
				return nil
			}
		}
	})

	log.Info("Chain coordinator started")
	return nil
}

// Stop gracefully shuts down the Clock, the future-slot drain loop, and the
// fork-choice store, in reverse dependency order, honoring the errgroup
// coordination of spec.md §5.
func (s *Service) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.unsubscribeSlot != nil {
		s.unsubscribeSlot()
	}
	s.clock.Stop()
	s.forkChoice.Stop()
	if s.group != nil {
		if err := s.group.Wait(); err != nil {
			return errors.Wrap(err, "chain coordinator did not shut down cleanly")
		}
	}
	log.Info("Chain coordinator stopped")
	return nil
}
