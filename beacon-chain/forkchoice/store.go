// Package forkchoice implements the LMD-GHOST fork-choice engine of
// spec.md §4.E: it maintains the block tree, the latest validator votes,
// and the justified/finalized checkpoints, and computes head(). Grounded
// on the teacher's beacon-chain/blockchain/fork_choice.go (lmdGhost,
// blockChildren, VoteCount) and on its later
// beacon-chain/forkchoice/protoarray package, which converges on the same
// incrementally-maintained-node-map shape this store uses instead of the
// teacher's original per-call tree walk.
package forkchoice

import (
	"sync"

	"github.com/ethbeacon/consensus-core/beacon-chain/primitives"
	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "forkchoice")

// WeightFunc returns the attesting weight (effective balance, in the
// teacher's terms) of a validator index. The store is agnostic to where
// that weight comes from; callers typically close over the current
// justified state's validator balances.
type WeightFunc func(validatorIndex primitives.ValidatorIndex) uint64

// Store is the fork-choice store of spec.md §4.E. All operations serialize
// through a single mutex, realizing the single-writer rule of spec.md §5.
type Store struct {
	mu sync.Mutex

	started bool

	weight WeightFunc

	nodes    map[ssz.Root]*Node
	children map[ssz.Root][]ssz.Root

	latestMessages map[primitives.ValidatorIndex]LatestMessage

	justified types.Checkpoint
	finalized types.Checkpoint

	currentSlot primitives.Slot
}

// New constructs a Store. weight supplies each validator's attesting
// weight for the head-selection walk.
func New(weight WeightFunc) *Store {
	return &Store{
		weight:         weight,
		nodes:          make(map[ssz.Root]*Node),
		children:       make(map[ssz.Root][]ssz.Root),
		latestMessages: make(map[primitives.ValidatorIndex]LatestMessage),
	}
}

// Start marks the store live. Subsequent calls are no-ops, per spec.md
// §4.E.
func (s *Store) Start(genesisTime uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
}

// Stop drains and releases the store. After Stop, AddBlock returns
// ErrNotStarted; AddAttestation, SeedGenesis and OnTick do not check it.
func (s *Store) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
}

// SeedGenesis installs the genesis block as the store's root node and its
// initial justified/finalized checkpoints, bypassing AddBlock's
// known-parent requirement since the genesis block has no parent.
func (s *Store) SeedGenesis(node *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.BlockRoot] = node
	s.justified = node.JustifiedCheckpoint
	s.finalized = node.FinalizedCheckpoint
}

// AddBlock inserts node keyed by its block root. node.ParentRoot must
// already be present in the store, or be the zero root. If node's embedded
// checkpoints advance the store's justified/finalized checkpoints (strictly
// greater epoch), the store adopts them.
func (s *Store) AddBlock(node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if !node.ParentRoot.IsZero() {
		if _, ok := s.nodes[node.ParentRoot]; !ok {
			return ErrUnknownParent
		}
	}
	if _, exists := s.nodes[node.BlockRoot]; exists {
		return nil
	}

	s.nodes[node.BlockRoot] = node
	s.children[node.ParentRoot] = append(s.children[node.ParentRoot], node.BlockRoot)

	if node.JustifiedCheckpoint.Epoch > s.justified.Epoch {
		s.justified = node.JustifiedCheckpoint
	}
	if node.FinalizedCheckpoint.Epoch > s.finalized.Epoch {
		s.finalized = node.FinalizedCheckpoint
	}
	return nil
}

// AddAttestation records validatorIndex's vote for blockRoot at
// targetEpoch, overwriting the validator's prior latest message only if
// targetEpoch strictly exceeds it, preserving invariant 6 of spec.md §3
// (LatestMessage.epoch is monotone non-decreasing).
func (s *Store) AddAttestation(validatorIndex primitives.ValidatorIndex, blockRoot ssz.Root, targetEpoch primitives.Epoch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.latestMessages[validatorIndex]
	if ok && targetEpoch <= current.Epoch {
		return
	}
	s.latestMessages[validatorIndex] = LatestMessage{Epoch: targetEpoch, Root: blockRoot}
}

// Head descends the block tree from the current justified checkpoint's
// block, at each step picking the child maximizing total attesting weight
// of validators whose latest message lies at or below that subtree,
// tie-broken by the larger block root treated as a big-endian integer.
func (s *Store) Head() (ssz.Root, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head()
}

func (s *Store) head() (ssz.Root, error) {
	root := ssz.Root(s.justified.Root)
	if _, ok := s.nodes[root]; !ok {
		return ssz.ZeroRoot, ErrNoJustifiedBlock
	}

	for {
		children := s.children[root]
		if len(children) == 0 {
			return root, nil
		}
		best := children[0]
		bestWeight := s.subtreeWeight(best)
		for _, c := range children[1:] {
			w := s.subtreeWeight(c)
			if w > bestWeight || (w == bestWeight && best.Less(c)) {
				best = c
				bestWeight = w
			}
		}
		root = best
	}
}

// subtreeWeight sums the weight of every validator whose latest message
// root is subtreeRoot or a descendant of it.
func (s *Store) subtreeWeight(subtreeRoot ssz.Root) uint64 {
	var total uint64
	for validatorIndex, msg := range s.latestMessages {
		if s.isAtOrBelow(subtreeRoot, msg.Root) {
			total += s.weight(validatorIndex)
		}
	}
	return total
}

// isAtOrBelow reports whether descendant is ancestor or a descendant of
// ancestor, walking parent links up from descendant.
func (s *Store) isAtOrBelow(ancestor, descendant ssz.Root) bool {
	cur := descendant
	for {
		if cur == ancestor {
			return true
		}
		node, ok := s.nodes[cur]
		if !ok || cur.IsZero() {
			return false
		}
		if node.ParentRoot == cur {
			return false
		}
		cur = node.ParentRoot
	}
}

// HeadStateRoot returns the state root attached to the node Head() selects.
func (s *Store) HeadStateRoot() (ssz.Root, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	headRoot, err := s.head()
	if err != nil {
		return ssz.ZeroRoot, err
	}
	node, ok := s.nodes[headRoot]
	if !ok {
		return ssz.ZeroRoot, ErrNoJustifiedBlock
	}
	return node.StateRoot, nil
}

// OnTick advances the store's internal notion of time. It performs no
// state transition itself; justification/finalization updates are carried
// on future blocks via AddBlock.
func (s *Store) OnTick(slot primitives.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentSlot = slot
}

// JustifiedCheckpoint returns the store's current justified checkpoint.
func (s *Store) JustifiedCheckpoint() types.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.justified
}

// FinalizedCheckpoint returns the store's current finalized checkpoint.
func (s *Store) FinalizedCheckpoint() types.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// Node returns the stored node for root, if any.
func (s *Store) Node(root ssz.Root) (*Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[root]
	return n, ok
}
