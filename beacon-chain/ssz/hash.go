// Package ssz wraps the hash-tree-root contract the consensus core depends
// on but does not implement: per spec.md §6, the SSZ codec is assumed
// available as a pure function. This package is the thin seam between that
// external codec and the rest of the core, grounded on the teacher's
// pervasive ssz.HashTreeRoot call sites (github.com/prysmaticlabs/go-ssz).
package ssz

import gssz "github.com/prysmaticlabs/go-ssz"

// Root is a 32-byte SSZ hash-tree-root. Equality is bytewise.
type Root [32]byte

// ZeroRoot is the all-zero root used as the genesis block's parent root.
var ZeroRoot = Root{}

// IsZero reports whether r is the all-zero root.
func (r Root) IsZero() bool {
	return r == ZeroRoot
}

// Big returns r's bytes, which read as a big-endian unsigned integer. The
// fork-choice tie-break compares roots with Less, not Big.
func (r Root) Big() [32]byte {
	return r
}

// Less reports whether r is smaller than other when both are read as
// big-endian integers.
func (r Root) Less(other Root) bool {
	for i := 0; i < len(r); i++ {
		if r[i] != other[i] {
			return r[i] < other[i]
		}
	}
	return false
}

// HashTreeRoot computes the SSZ hash-tree-root of a typed value.
func HashTreeRoot(v interface{}) (Root, error) {
	r, err := gssz.HashTreeRoot(v)
	if err != nil {
		return Root{}, err
	}
	return Root(r), nil
}

// Marshal serializes a typed value to its SSZ wire encoding, used by db/kv
// to persist blocks and states as opaque byte blobs.
func Marshal(v interface{}) ([]byte, error) {
	return gssz.Marshal(v)
}

// Unmarshal deserializes an SSZ wire encoding into dst, which must be a
// pointer to the same type Marshal was called with.
func Unmarshal(data []byte, dst interface{}) error {
	return gssz.Unmarshal(data, dst)
}

// Equal reports structural SSZ equality of two typed values of the same type.
func Equal(a, b interface{}) (bool, error) {
	ra, err := gssz.HashTreeRoot(a)
	if err != nil {
		return false, err
	}
	rb, err := gssz.HashTreeRoot(b)
	if err != nil {
		return false, err
	}
	return ra == rb, nil
}
