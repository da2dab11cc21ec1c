// Package powchain defines the Eth1 Follower contract of spec.md §4.C: the
// external boundary between the beacon-chain core and an eth1 execution
// client. The core never speaks JSON-RPC directly; it only consumes the
// Eth1Follower interface, grounded on the teacher's
// beacon-chain/powchain.Service (ProcessETH1Block, Eth2GenesisPowchainInfo)
// and its block_reader.go block-cache pattern.
package powchain

import (
	"context"
	"math/big"

	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/ethereum/go-ethereum/common"
)

// Eth1Block is the subset of an eth1 execution block the core cares about:
// enough to drive genesis bootstrap and to track deposit-contract state.
type Eth1Block struct {
	Number       *big.Int
	Hash         common.Hash
	Timestamp    uint64
	DepositRoot  [32]byte
	DepositCount uint64
}

// DepositLog is a single decoded DepositEvent from the deposit contract:
// its deposit index and deposit data. It carries no Merkle proof; the
// Genesis Bootstrapper builds proofs itself.
type DepositLog struct {
	Index uint64
	Data  *types.DepositData
}

// Eth1Follower is the Eth1 Follower contract: it watches the configured
// deposit contract on an eth1 execution client and surfaces new blocks and
// historical deposits to the rest of the core. Implementations must be
// safe for concurrent use; OnNewBlock handlers may be invoked from a
// dedicated internal goroutine.
type Eth1Follower interface {
	// OnNewBlock registers handler to be called once per new eth1 block
	// observed at or above the deposit contract's deployment height. It
	// returns a subscription id that RemoveListener accepts.
	OnNewBlock(ctx context.Context, handler func(Eth1Block)) (string, error)
	// RemoveListener cancels a subscription previously returned by
	// OnNewBlock. Removing an unknown id is a no-op.
	RemoveListener(id string)
	// InitBlockCache primes the follower's internal block-by-hash and
	// block-by-height caches, mirroring the teacher's blockCache warm-up
	// on service start.
	InitBlockCache(ctx context.Context) error
	// ProcessPastDeposits returns every deposit log observed at or below
	// upTo, in ascending index order, for genesis bootstrap and for
	// resuming a partially-seen deposit history after restart.
	ProcessPastDeposits(ctx context.Context, upTo *big.Int) ([]DepositLog, error)
}
