// Package kv implements beacon-chain/db's Database contract on top of
// go.etcd.io/bbolt, one bucket per namespace of spec.md §4.B. Bucket naming
// is grounded on the teacher's beacon-chain/db/schema.go convention.
package kv

import "encoding/binary"

var (
	blocksBucket       = []byte("blocks")
	statesBucket       = []byte("states")
	blockSlotIndexBucket = []byte("block-slot-index")
	depositRootListBucket = []byte("deposit-root-lists")
	chainInfoBucket    = []byte("chain-info")
)

var (
	headBlockRootKey        = []byte("head-block-root")
	justifiedCheckpointKey  = []byte("justified-checkpoint")
	finalizedCheckpointKey  = []byte("finalized-checkpoint")
)

// encodeSlot encodes a slot as a big-endian uint64 so bbolt's byte-ordered
// keys sort the same way slot numbers do.
func encodeSlot(slot uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, slot)
	return buf
}
