// Package event implements the typed publish/subscribe bus injected into
// the Chain Coordinator, per spec.md §9's design note: the source's
// event-emitter-inheriting BeaconChain becomes a bus that is a capability,
// not a base class. Grounded on the teacher's old ChainService/
// attestation.Service use of github.com/ethereum/go-ethereum/event.Feed for
// exactly this purpose.
package event

import gethevent "github.com/ethereum/go-ethereum/event"

// Kind identifies one of the five event types spec.md §4.H publishes.
type Kind int

const (
	// Block fires whenever a block finishes the G processor's Stored stage.
	Block Kind = iota
	// Head fires whenever fork_choice.head() changes.
	Head
	// Justified fires when a head change finds the justified checkpoint's
	// epoch past the last persisted one. An advance that leaves the head
	// unchanged is not published.
	Justified
	// Finalized fires when a head change finds the finalized checkpoint's
	// epoch past the last persisted one. An advance that leaves the head
	// unchanged is not published.
	Finalized
	// ForkDigestChanged fires when current_fork_digest is recomputed.
	ForkDigestChanged
)

// Event is the envelope delivered to subscribers.
type Event struct {
	Kind Kind
	Data interface{}
}

// BlockData accompanies a Block event.
type BlockData struct {
	Root [32]byte
	Slot uint64
}

// HeadData accompanies a Head event.
type HeadData struct {
	Root      [32]byte
	StateRoot [32]byte
	Slot      uint64
}

// CheckpointData accompanies Justified and Finalized events.
type CheckpointData struct {
	Epoch uint64
	Root  [32]byte
}

// ForkDigestData accompanies a ForkDigestChanged event.
type ForkDigestData struct {
	Digest [4]byte
}

// Bus is a typed publish/subscribe capability. The zero value is usable.
type Bus struct {
	feed gethevent.Feed
}

// Subscription is the explicit handle returned by Subscribe, replacing the
// source's dynamic this-bound listener with something a caller can drop
// deterministically (spec.md §9).
type Subscription struct {
	sub gethevent.Subscription
}

// Unsubscribe releases the subscription. Safe to call once.
func (s *Subscription) Unsubscribe() {
	s.sub.Unsubscribe()
}

// Subscribe registers ch to receive every Event published on the bus until
// the returned Subscription is unsubscribed.
func (b *Bus) Subscribe(ch chan<- Event) *Subscription {
	return &Subscription{sub: b.feed.Subscribe(ch)}
}

// Publish delivers evt to every current subscriber. Returns the number of
// subscribers it was delivered to, matching gethevent.Feed.Send.
func (b *Bus) Publish(evt Event) int {
	return b.feed.Send(evt)
}
