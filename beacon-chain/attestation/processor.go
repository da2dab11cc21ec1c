// Package attestation implements the Attestation Processor of spec.md
// §4.F: it validates incoming attestations and feeds their votes into
// fork-choice. Grounded on the teacher's beacon-chain/attestation.Service
// for the service shape and on process_block.go's
// insertBlockAndAttestationsToForkChoiceStore /
// helpers.AttestingIndices for the bitfield-to-committee-to-fork-choice
// plumbing.
package attestation

import (
	"context"

	"github.com/ethbeacon/consensus-core/beacon-chain/bls"
	"github.com/ethbeacon/consensus-core/beacon-chain/clock"
	"github.com/ethbeacon/consensus-core/beacon-chain/db"
	"github.com/ethbeacon/consensus-core/beacon-chain/forkchoice"
	"github.com/ethbeacon/consensus-core/beacon-chain/params"
	"github.com/ethbeacon/consensus-core/beacon-chain/primitives"
	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "attestation")

// ErrUnknownBeaconBlockRoot is returned when an attestation's
// beacon_block_root is unknown to storage.
var ErrUnknownBeaconBlockRoot = errors.New("attestation: unknown beacon block root")

// ErrTargetTooFarInFuture is returned when an attestation's target epoch is
// more than one epoch ahead of the current clock slot's epoch.
var ErrTargetTooFarInFuture = errors.New("attestation: target epoch too far in the future")

// ErrInvalidSignature is returned when the injected BLS verifier rejects an
// attestation's aggregate signature.
var ErrInvalidSignature = errors.New("attestation: invalid signature")

// CommitteeFunc resolves the beacon committee for (slot, committeeIndex)
// against a given state, mirroring the teacher's
// helpers.BeaconCommitteeFromState. It is injected because committee
// shuffling is owned by the external state-transition function's domain,
// not by this processor.
type CommitteeFunc func(state *types.BeaconState, slot primitives.Slot, committeeIndex uint64) ([]primitives.ValidatorIndex, error)

// PubkeysFunc resolves the BLS public keys of a set of validator indices
// against a given state, for signature verification.
type PubkeysFunc func(state *types.BeaconState, indices []primitives.ValidatorIndex) ([][48]byte, error)

// Processor is the Attestation Processor of spec.md §4.F. It is safe for
// concurrent use; forwarding to fork-choice is serialized through the
// store's own internal lock, so Processor itself holds no mutex.
type Processor struct {
	db        db.Database
	store     *forkchoice.Store
	clock     *clock.Clock
	verifier  bls.Verifier
	committee CommitteeFunc
	pubkeys   PubkeysFunc
}

// New constructs a Processor.
func New(database db.Database, store *forkchoice.Store, clk *clock.Clock, verifier bls.Verifier, committee CommitteeFunc, pubkeys PubkeysFunc) *Processor {
	return &Processor{
		db:        database,
		store:     store,
		clock:     clk,
		verifier:  verifier,
		committee: committee,
		pubkeys:   pubkeys,
	}
}

// ReceiveAttestation validates att per spec.md §4.F and forwards each
// participating validator's vote to fork-choice.
func (p *Processor) ReceiveAttestation(ctx context.Context, att *types.Attestation) error {
	ctx, span := trace.StartSpan(ctx, "attestation.ReceiveAttestation")
	defer span.End()

	blockRoot := att.Data.BeaconBlockRoot
	block, err := p.db.Block(ctx, blockRoot)
	if err != nil {
		return errors.Wrap(err, "could not look up beacon block root")
	}
	if block == nil {
		return ErrUnknownBeaconBlockRoot
	}

	currentEpoch := p.clock.CurrentSlot() / params.BeaconConfig().SlotsPerEpoch
	if uint64(att.Data.Target.Epoch) > currentEpoch+1 {
		return ErrTargetTooFarInFuture
	}

	targetState, err := p.db.State(ctx, att.Data.Target.Root)
	if err != nil {
		return errors.Wrap(err, "could not look up target state")
	}
	if targetState == nil {
		return ErrUnknownBeaconBlockRoot
	}

	committee, err := p.committee(targetState, att.Data.Slot, att.Data.CommitteeIndex)
	if err != nil {
		return errors.Wrap(err, "could not resolve committee")
	}

	participants := attestingIndices(att.AggregationBits, committee)
	if len(participants) == 0 {
		return nil
	}

	pubkeys, err := p.pubkeys(targetState, participants)
	if err != nil {
		return errors.Wrap(err, "could not resolve participant public keys")
	}
	msgRoot, err := ssz.HashTreeRoot(att.Data)
	if err != nil {
		return errors.Wrap(err, "could not hash attestation data")
	}
	valid, err := p.verifier.Verify(pubkeys, [32]byte(msgRoot), att.Signature)
	if err != nil {
		return errors.Wrap(err, "could not verify attestation signature")
	}
	if !valid {
		return ErrInvalidSignature
	}

	for _, idx := range participants {
		p.store.AddAttestation(idx, ssz.Root(blockRoot), att.Data.Target.Epoch)
	}
	return nil
}

// attestingIndices intersects the aggregation bitfield with committee,
// mirroring the teacher's helpers.AttestingIndices.
func attestingIndices(bits bitfield.Bitlist, committee []primitives.ValidatorIndex) []primitives.ValidatorIndex {
	indices := make([]primitives.ValidatorIndex, 0, len(committee))
	for i, idx := range committee {
		if bits.BitAt(uint64(i)) {
			indices = append(indices, idx)
		}
	}
	return indices
}
