// Package types defines the wire-level consensus values of spec.md §3:
// blocks, state, attestations, checkpoints, and deposits. They are plain Go
// structs that beacon-chain/ssz's go-ssz wrapper hashes by reflection; the
// only struct tags are `ssz:"-"` on the ExtraFields maps.
package types

import (
	"github.com/ethbeacon/consensus-core/beacon-chain/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// Fork describes the previous/current fork versions active at an epoch.
type Fork struct {
	PreviousVersion [4]byte
	CurrentVersion  [4]byte
	Epoch           primitives.Epoch
}

// Checkpoint pins an epoch to a block root for justification/finalization.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  [32]byte
}

// Eth1Data commits to the eth1 deposit contract's observed state.
type Eth1Data struct {
	DepositRoot  [32]byte
	DepositCount uint64
	BlockHash    [32]byte
}

// Validator is the subset of validator-registry fields the core touches
// directly; the remainder of the mainnet validator record is opaque to this
// core and owned by the external state-transition function.
type Validator struct {
	PublicKey             [48]byte
	EffectiveBalance      uint64
	ActivationEpoch       primitives.Epoch
	ExitEpoch             primitives.Epoch
	Slashed               bool
}

// BeaconBlockBody holds the operations carried by a block. Only the fields
// this core inspects (attestations, deposits) are modeled; everything else
// the state-transition function needs lives behind ExtraFields.
type BeaconBlockBody struct {
	RandaoReveal [96]byte
	Eth1Data     Eth1Data
	Graffiti     [32]byte
	Attestations []*Attestation
	Deposits     []*Deposit
	ExtraFields  map[string][]byte `ssz:"-"`
}

// BeaconBlock is the unsigned block envelope.
type BeaconBlock struct {
	Slot          primitives.Slot
	ProposerIndex primitives.ValidatorIndex
	ParentRoot    [32]byte
	StateRoot     [32]byte
	Body          *BeaconBlockBody
}

// SignedBeaconBlock wraps a BeaconBlock with its proposer signature.
type SignedBeaconBlock struct {
	Block     *BeaconBlock
	Signature [96]byte
}

// BeaconState is the typed, tree-backed consensus state of spec.md §3.
// ExtraFields is the seam for the mainnet fields (randao mixes, historical
// roots, slashings, participation, sync committees, ...) that this core
// never mutates directly — only the external, pure state-transition
// function does.
type BeaconState struct {
	GenesisTime           uint64
	GenesisValidatorsRoot [32]byte
	Slot                  primitives.Slot
	Fork                  Fork
	Validators            []*Validator
	Balances              []uint64
	Eth1Data              Eth1Data
	Eth1DepositIndex      uint64
	CurrentJustifiedCheckpoint Checkpoint
	FinalizedCheckpoint        Checkpoint
	ExtraFields                map[string][]byte `ssz:"-"`
}

// AttestationData pins an attestation to a slot, a beacon-block root, and
// source/target checkpoints.
type AttestationData struct {
	Slot            primitives.Slot
	CommitteeIndex  uint64
	BeaconBlockRoot [32]byte
	Source          Checkpoint
	Target          Checkpoint
}

// Attestation is a validator committee's signed vote.
type Attestation struct {
	AggregationBits bitfield.Bitlist
	Data            *AttestationData
	Signature       [96]byte
}

// DepositData is a single eth1 deposit-contract leaf.
type DepositData struct {
	PublicKey             [48]byte
	WithdrawalCredentials [32]byte
	Amount                uint64
	Signature             [96]byte
}

// Deposit carries a DepositData plus its Merkle inclusion proof against the
// deposit-contract root observed by the eth1 block being processed.
type Deposit struct {
	Proof [][]byte
	Data  *DepositData
}
