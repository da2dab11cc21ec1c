// Package trieutil implements the sparse Merkle trie backing the
// DepositDataRootList of spec.md §3: an append-only list of deposit-data
// roots, indexed by eth1_deposit_index, that supports single-leaf inclusion
// proofs. Adapted from the teacher's shared/trieutil.MerkleTrie.
package trieutil

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// DepositContractTreeDepth matches the eth2 deposit contract's fixed depth.
const DepositContractTreeDepth = 32

var zeroHashes = make([][32]byte, DepositContractTreeDepth+1)

func init() {
	for i := 1; i <= DepositContractTreeDepth; i++ {
		zeroHashes[i] = hashPair(zeroHashes[i-1], zeroHashes[i-1])
	}
}

func hashPair(a, b [32]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(a[:])
	h.Write(b[:])
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// DepositDataRootList is the append-only Merkle list of deposit-data roots
// described in spec.md §4.D. Push only appends a leaf; Root and
// GetSingleProof rebuild the tree from the leaves on every call, which
// keeps the implementation small; real deposit counts per genesis
// bootstrap are bounded in the tens of thousands, so this is not a hot path.
type DepositDataRootList struct {
	leaves [][32]byte
}

// DefaultDepositDataRootList returns an empty list, matching the spec's
// DepositDataRootList.default_value().
func DefaultDepositDataRootList() *DepositDataRootList {
	return &DepositDataRootList{}
}

// DepositDataRootListFromLeaves rebuilds a list from a previously persisted
// leaf slice, used by the db/kv layer on load since leaves is unexported.
func DepositDataRootListFromLeaves(leaves [][32]byte) *DepositDataRootList {
	return &DepositDataRootList{leaves: leaves}
}

// Leaves returns the list's current leaves in insertion order. Callers must
// not mutate the returned slice.
func (l *DepositDataRootList) Leaves() [][32]byte {
	return l.leaves
}

// Marshal encodes the list as a 4-byte big-endian leaf count followed by the
// leaves themselves, for storage by the Storage Contract's deposit-root-list
// namespace. go-ssz's reflection can't reach the unexported leaves field, so
// this list uses its own small fixed-layout codec instead.
func (l *DepositDataRootList) Marshal() []byte {
	buf := make([]byte, 4+32*len(l.leaves))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(l.leaves)))
	for i, leaf := range l.leaves {
		copy(buf[4+32*i:4+32*(i+1)], leaf[:])
	}
	return buf
}

// UnmarshalDepositDataRootList decodes a list previously written by Marshal.
func UnmarshalDepositDataRootList(data []byte) (*DepositDataRootList, error) {
	if len(data) < 4 {
		return nil, errors.New("deposit data root list encoding too short")
	}
	count := binary.BigEndian.Uint32(data[:4])
	want := 4 + 32*int(count)
	if len(data) != want {
		return nil, errors.Errorf("deposit data root list encoding has length %d, want %d", len(data), want)
	}
	leaves := make([][32]byte, count)
	for i := range leaves {
		copy(leaves[i][:], data[4+32*i:4+32*(i+1)])
	}
	return DepositDataRootListFromLeaves(leaves), nil
}

// Push appends a new leaf (a deposit-data hash-tree-root) to the list.
func (l *DepositDataRootList) Push(leaf [32]byte) {
	l.leaves = append(l.leaves, leaf)
}

// Len returns the number of leaves currently in the list.
func (l *DepositDataRootList) Len() int {
	return len(l.leaves)
}

// Root computes the Merkle root over all current leaves. Each level is
// padded with that level's zero hash when its length is odd, for exactly
// DepositContractTreeDepth levels, matching the deposit contract's fixed
// tree shape rather than collapsing early for small leaf counts.
func (l *DepositDataRootList) Root() [32]byte {
	layer := l.baseLayer()
	for d := 0; d < DepositContractTreeDepth; d++ {
		if len(layer)%2 == 1 {
			layer = append(layer, zeroHashes[d])
		}
		next := make([][32]byte, 0, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			next = append(next, hashPair(layer[i], layer[i+1]))
		}
		layer = next
	}
	return layer[0]
}

// GetSingleProof returns the Merkle inclusion proof for the leaf at
// position index (zero-based, in insertion order; not a generalized
// index), i.e. the sibling hash at every level from the leaf up
// to the root, per spec.md §4.D step 2. Padding mirrors Root's: a level
// gains its own zero hash only when it is odd, rather than pre-padding the
// leaf level to a power of two and assuming every higher level halves
// cleanly.
func (l *DepositDataRootList) GetSingleProof(index int) ([][]byte, error) {
	if index < 0 || index >= len(l.leaves) {
		return nil, fmt.Errorf("index %d out of range for %d leaves", index, len(l.leaves))
	}
	layer := l.baseLayer()
	proof := make([][]byte, DepositContractTreeDepth)
	idx := index
	for d := 0; d < DepositContractTreeDepth; d++ {
		if len(layer)%2 == 1 {
			layer = append(layer, zeroHashes[d])
		}
		sibling := layer[idx^1]
		proofCopy := sibling
		proof[d] = proofCopy[:]

		next := make([][32]byte, 0, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			next = append(next, hashPair(layer[i], layer[i+1]))
		}
		layer = next
		idx /= 2
	}
	return proof, nil
}

// baseLayer returns the current leaves, or a single zero leaf when the list
// is empty so Root/GetSingleProof still walk a well-defined tree (the
// all-zero-leaf case converges on the precomputed zeroHashes table).
func (l *DepositDataRootList) baseLayer() [][32]byte {
	if len(l.leaves) == 0 {
		return [][32]byte{zeroHashes[0]}
	}
	layer := make([][32]byte, len(l.leaves))
	copy(layer, l.leaves)
	return layer
}

// VerifyProof is a defensive helper used by tests and by any caller that
// wants to confirm a leaf's proof recomputes to the expected root, mirroring
// the verification half of the teacher's sparse Merkle trie.
func VerifyProof(leaf [32]byte, proof [][]byte, index int, root [32]byte) error {
	if len(proof) != DepositContractTreeDepth {
		return errors.Errorf("expected proof of depth %d, got %d", DepositContractTreeDepth, len(proof))
	}
	computed := leaf
	idx := index
	for _, p := range proof {
		var sibling [32]byte
		copy(sibling[:], p)
		if idx%2 == 0 {
			computed = hashPair(computed, sibling)
		} else {
			computed = hashPair(sibling, computed)
		}
		idx /= 2
	}
	if computed != root {
		return errors.New("merkle proof does not verify against root")
	}
	return nil
}
