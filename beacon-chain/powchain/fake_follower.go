package powchain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// depositEventTopic is the Keccak-256 hash of the deposit contract's
// DepositEvent signature, computed the way an eth1 log filter would
// derive a topic to subscribe on. FakeFollower exposes it through
// DepositEventTopic; it is not attached to the blocks FireBlock delivers.
// Grounded on the
// teacher's shared/hashutil.Hash use of golang.org/x/crypto/sha3 for
// exactly this kind of log-topic derivation.
var depositEventTopic = eth1LogTopic("DepositEvent(bytes,bytes,bytes,bytes,bytes)")

func eth1LogTopic(signature string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var topic common.Hash
	h.Sum(topic[:0])
	return topic
}

// FakeFollower is an in-memory Eth1Follower test double used to drive
// genesis bootstrap and block-arrival tests deterministically, without a
// live eth1 execution client. New relative to spec.md, which treats the
// follower as interface-only; grounded on the teacher's practice of
// shipping hand-rolled mocks alongside each service package (e.g.
// powchain's badReader/goodReader test doubles in service_test.go).
type FakeFollower struct {
	mu        sync.Mutex
	listeners map[string]func(Eth1Block)
	deposits  []DepositLog
	cached    bool
}

// NewFakeFollower returns an empty FakeFollower with no deposits.
func NewFakeFollower() *FakeFollower {
	return &FakeFollower{listeners: make(map[string]func(Eth1Block))}
}

// OnNewBlock implements Eth1Follower.
func (f *FakeFollower) OnNewBlock(ctx context.Context, handler func(Eth1Block)) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New().String()
	f.listeners[id] = handler
	return id, nil
}

// RemoveListener implements Eth1Follower.
func (f *FakeFollower) RemoveListener(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.listeners, id)
}

// InitBlockCache implements Eth1Follower; it is a no-op for the fake.
func (f *FakeFollower) InitBlockCache(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = true
	return nil
}

// ProcessPastDeposits implements Eth1Follower, returning every deposit
// queued via QueueDeposit with index <= upTo's uint64 value.
func (f *FakeFollower) ProcessPastDeposits(ctx context.Context, upTo *big.Int) ([]DepositLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	limit := upTo.Uint64()
	out := make([]DepositLog, 0, len(f.deposits))
	for _, d := range f.deposits {
		if d.Index <= limit {
			out = append(out, d)
		}
	}
	return out, nil
}

// DepositEventTopic returns the Keccak-256 log topic of the deposit
// contract's DepositEvent signature.
func (f *FakeFollower) DepositEventTopic() common.Hash {
	return depositEventTopic
}

// QueueDeposit appends a deposit log the fake will surface from
// ProcessPastDeposits, for test setup.
func (f *FakeFollower) QueueDeposit(d DepositLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deposits = append(f.deposits, d)
}

// FireBlock synchronously invokes every registered listener with block,
// simulating a new eth1 block arriving.
func (f *FakeFollower) FireBlock(block Eth1Block) {
	f.mu.Lock()
	handlers := make([]func(Eth1Block), 0, len(f.listeners))
	for _, h := range f.listeners {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(block)
	}
}
