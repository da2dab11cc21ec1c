package blockchain

import (
	"context"

	"github.com/ethbeacon/consensus-core/beacon-chain/event"
	"github.com/ethbeacon/consensus-core/beacon-chain/forkchoice"
	"github.com/ethbeacon/consensus-core/beacon-chain/params"
	"github.com/ethbeacon/consensus-core/beacon-chain/primitives"
	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/stf"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// ReceiveBlock is the Block Processor entry point of spec.md §4.G,
// carrying a block through Received → Validated → Applied → Stored →
// Notified, with a rejection sink at every stage. Grounded on the
// teacher's ReceiveBlock/ReceiveBlockNoPubsub family.
func (s *Service) ReceiveBlock(ctx context.Context, signed *types.SignedBeaconBlock) error {
	ctx, span := trace.StartSpan(ctx, "blockchain.ReceiveBlock")
	defer span.End()

	blockRoot, err := ssz.HashTreeRoot(signed.Block)
	if err != nil {
		return newError(InvalidBlock, err, "could not hash incoming block")
	}
	return s.receiveBlock(ctx, signed, blockRoot)
}

func (s *Service) receiveBlock(ctx context.Context, signed *types.SignedBeaconBlock, blockRoot ssz.Root) error {
	// Received: idempotence check (invariant 7 of spec.md §3's property list).
	existing, err := s.db.Block(ctx, blockRoot)
	if err != nil {
		return newError(StorageFault, err, "could not check for existing block")
	}
	if existing != nil {
		return nil
	}

	// Validated: future-slot tolerance.
	currentSlot := primitives.Slot(s.clock.CurrentSlot())
	maxFuture := primitives.Slot(params.BeaconConfig().MaxFutureSlots)
	if signed.Block.Slot > currentSlot+maxFuture {
		s.parkFuture(signed)
		return newError(FutureSlot, errors.New("block slot exceeds future-slot tolerance"), "parking block until clock advances")
	}

	// Validated: parent known.
	parentNode, ok := s.forkChoice.Node(ssz.Root(signed.Block.ParentRoot))
	if !ok {
		s.parkOrphan(signed)
		return newError(UnknownParent, errors.New("parent block not found"), "parking block in orphan pool")
	}

	// Validated: strictly increasing slot.
	if signed.Block.Slot <= parentNode.Slot {
		return newError(InvalidBlock, errors.New("block slot does not exceed parent slot"), "slot ordering violation")
	}

	preState, err := s.db.State(ctx, parentNode.StateRoot)
	if err != nil {
		return newError(StorageFault, err, "could not load parent state")
	}
	if preState == nil {
		return newError(StorageFault, errors.New("parent state missing from storage"), "inconsistent store")
	}

	// Applied: the injected state-transition function.
	postState, err := s.transition(ctx, preState, signed, stf.Options{VerifySignatures: true})
	if err != nil {
		return newError(InvalidBlock, err, "state transition rejected block")
	}
	postStateRoot, err := ssz.HashTreeRoot(postState)
	if err != nil {
		return newError(InvalidBlock, err, "could not hash post-state")
	}
	if postStateRoot != ssz.Root(signed.Block.StateRoot) {
		return newError(InvalidBlock, errors.New("declared state root does not match computed post-state"), "slot ordering or transition mismatch")
	}

	// Stored.
	if err := s.db.SaveBlock(ctx, signed, blockRoot); err != nil {
		return newError(StorageFault, err, "could not save block")
	}
	if err := s.db.SaveState(ctx, postState, postStateRoot); err != nil {
		return newError(StorageFault, err, "could not save post-state")
	}

	node := &forkchoice.Node{
		Slot:                signed.Block.Slot,
		BlockRoot:           blockRoot,
		StateRoot:           postStateRoot,
		ParentRoot:          ssz.Root(signed.Block.ParentRoot),
		JustifiedCheckpoint: postState.CurrentJustifiedCheckpoint,
		FinalizedCheckpoint: postState.FinalizedCheckpoint,
	}
	if err := s.forkChoice.AddBlock(node); err != nil {
		return newError(InvalidBlock, err, "fork choice rejected block")
	}
	processedBlockCount.Inc()

	// Notified.
	s.eventBus.Publish(event.Event{Kind: event.Block, Data: event.BlockData{Root: blockRoot, Slot: uint64(signed.Block.Slot)}})
	if err := s.maybeUpdateHead(ctx); err != nil {
		return newError(StorageFault, err, "could not update chain head")
	}

	s.drainOrphans(ctx, blockRoot)
	return nil
}

// maybeUpdateHead recomputes fork-choice's head and, if it differs from
// the currently recorded head, atomically persists the new
// {block, state, chain.head} triple, persists the justified/finalized
// checkpoints, and publishes Head, ForkDigestChanged when the value moved,
// and Justified/Finalized when their epoch moved past the persisted one.
// When the head is unchanged it returns without touching the checkpoints.
func (s *Service) maybeUpdateHead(ctx context.Context) error {
	headRoot, err := s.forkChoice.Head()
	if err != nil {
		return errors.Wrap(err, "could not compute head")
	}

	s.mu.RLock()
	unchanged := headRoot == ssz.Root(s.headRoot)
	s.mu.RUnlock()
	if unchanged {
		return nil
	}

	headStateRoot, err := s.forkChoice.HeadStateRoot()
	if err != nil {
		return errors.Wrap(err, "could not compute head state root")
	}
	headBlock, err := s.db.Block(ctx, headRoot)
	if err != nil {
		return errors.Wrap(err, "could not load head block")
	}
	headState, err := s.db.State(ctx, headStateRoot)
	if err != nil {
		return errors.Wrap(err, "could not load head state")
	}
	if err := s.db.SaveChainHead(ctx, headBlock, headRoot, headState, headStateRoot); err != nil {
		return errors.Wrap(err, "could not persist new chain head")
	}

	s.mu.Lock()
	s.headRoot = headRoot
	s.headStateRoot = headStateRoot
	s.headSlot = headBlock.Block.Slot
	newDigest := params.BeaconConfig().ForkVersionAtEpoch(uint64(s.headSlot.ToEpoch()))
	digestChanged := newDigest != s.forkDigest
	s.forkDigest = newDigest
	s.mu.Unlock()

	headSlotGauge.Set(float64(headBlock.Block.Slot))
	s.eventBus.Publish(event.Event{Kind: event.Head, Data: event.HeadData{Root: headRoot, StateRoot: headStateRoot, Slot: uint64(headBlock.Block.Slot)}})
	if digestChanged {
		s.eventBus.Publish(event.Event{Kind: event.ForkDigestChanged, Data: event.ForkDigestData{Digest: newDigest}})
	}

	justified := s.forkChoice.JustifiedCheckpoint()
	finalized := s.forkChoice.FinalizedCheckpoint()
	prevJustified, err := s.db.JustifiedCheckpoint(ctx)
	if err != nil {
		return errors.Wrap(err, "could not read stored justified checkpoint")
	}
	prevFinalized, err := s.db.FinalizedCheckpoint(ctx)
	if err != nil {
		return errors.Wrap(err, "could not read stored finalized checkpoint")
	}
	if err := s.db.SaveJustifiedCheckpoint(ctx, &justified); err != nil {
		return errors.Wrap(err, "could not persist justified checkpoint")
	}
	if err := s.db.SaveFinalizedCheckpoint(ctx, &finalized); err != nil {
		return errors.Wrap(err, "could not persist finalized checkpoint")
	}
	if prevJustified == nil || justified.Epoch > prevJustified.Epoch {
		s.eventBus.Publish(event.Event{Kind: event.Justified, Data: event.CheckpointData{Epoch: uint64(justified.Epoch), Root: justified.Root}})
	}
	if prevFinalized == nil || finalized.Epoch > prevFinalized.Epoch {
		s.eventBus.Publish(event.Event{Kind: event.Finalized, Data: event.CheckpointData{Epoch: uint64(finalized.Epoch), Root: finalized.Root}})
	}
	return nil
}

// parkOrphan files signed under its parent root in the orphan pool,
// draining FIFO into ReceiveBlock once the parent reaches Stored.
func (s *Service) parkOrphan(signed *types.SignedBeaconBlock) {
	parentRoot := ssz.Root(signed.Block.ParentRoot)
	s.orphanMu.Lock()
	defer s.orphanMu.Unlock()
	var pending []*types.SignedBeaconBlock
	if v, ok := s.orphans.Get(parentRoot); ok {
		pending = v.([]*types.SignedBeaconBlock)
	}
	s.orphans.Add(parentRoot, append(pending, signed))
	orphanedBlockCount.Inc()
}

// drainOrphans re-attempts every block parked under parentRoot, now that
// parentRoot has reached Stored.
func (s *Service) drainOrphans(ctx context.Context, parentRoot ssz.Root) {
	s.orphanMu.Lock()
	v, ok := s.orphans.Get(parentRoot)
	if ok {
		s.orphans.Remove(parentRoot)
	}
	s.orphanMu.Unlock()
	if !ok {
		return
	}
	for _, pending := range v.([]*types.SignedBeaconBlock) {
		childRoot, err := ssz.HashTreeRoot(pending.Block)
		if err != nil {
			log.WithError(err).Error("Could not hash parked orphan block")
			continue
		}
		if err := s.receiveBlock(ctx, pending, childRoot); err != nil {
			log.WithError(err).Debug("Parked orphan block still could not be applied")
		}
	}
}

// parkFuture files signed under its slot, draining once the Clock reaches
// slot - MaxFutureSlots.
func (s *Service) parkFuture(signed *types.SignedBeaconBlock) {
	s.futureMu.Lock()
	defer s.futureMu.Unlock()
	s.futureBlocks[signed.Block.Slot] = append(s.futureBlocks[signed.Block.Slot], signed)
}

// drainFutureBlocks re-attempts every block parked at a slot now within
// tolerance of currentSlot.
func (s *Service) drainFutureBlocks(ctx context.Context, currentSlot primitives.Slot) {
	maxFuture := primitives.Slot(params.BeaconConfig().MaxFutureSlots)

	s.futureMu.Lock()
	var due []*types.SignedBeaconBlock
	for slot, blocks := range s.futureBlocks {
		if slot <= currentSlot+maxFuture {
			due = append(due, blocks...)
			delete(s.futureBlocks, slot)
		}
	}
	s.futureMu.Unlock()

	for _, pending := range due {
		root, err := ssz.HashTreeRoot(pending.Block)
		if err != nil {
			log.WithError(err).Error("Could not hash deferred future block")
			continue
		}
		if err := s.receiveBlock(ctx, pending, root); err != nil {
			log.WithError(err).Debug("Deferred future block still could not be applied")
		}
	}
}
