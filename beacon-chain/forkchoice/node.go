package forkchoice

import (
	"github.com/ethbeacon/consensus-core/beacon-chain/primitives"
	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
)

// Node is the spec's ForkChoiceNode: the minimal record the fork-choice
// store needs per known block, grounded on the teacher's
// beacon-chain/forkchoice/protoarray.Node (parent/children-by-root tree
// shape), trimmed to the fields this LMD-GHOST walk actually reads.
type Node struct {
	Slot                primitives.Slot
	BlockRoot           ssz.Root
	StateRoot           ssz.Root
	ParentRoot          ssz.Root
	JustifiedCheckpoint types.Checkpoint
	FinalizedCheckpoint types.Checkpoint
}

// LatestMessage is a validator's most recently attested head, per spec.md
// §3.
type LatestMessage struct {
	Epoch primitives.Epoch
	Root  ssz.Root
}
