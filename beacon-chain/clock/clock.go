// Package clock implements the Clock component of spec.md §4.A: it emits
// monotonically increasing slot ticks from a genesis-time anchor.
package clock

import (
	"sync"
	"time"

	"github.com/ethbeacon/consensus-core/beacon-chain/params"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "clock")

// Clock produces the current slot from a genesis-time anchor and emits slot
// transitions to subscribers. The zero value is not usable; construct with
// New.
type Clock struct {
	secondsPerSlot uint64

	mu          sync.RWMutex
	genesisTime time.Time
	started     bool
	ticker      *slotTicker

	subMu sync.Mutex
	subs  []chan uint64

	fanOutDone chan struct{}
}

// New constructs a Clock using the active config's SecondsPerSlot.
func New() *Clock {
	return &Clock{secondsPerSlot: params.BeaconConfig().SecondsPerSlot}
}

// Start anchors the clock at genesisTime and begins emitting slot(n)
// events. Subsequent calls are no-ops, matching forkchoice.Store.Start's
// idempotence contract.
func (c *Clock) Start(genesisTime time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.genesisTime = genesisTime
	c.ticker = newSlotTicker(genesisTime, c.secondsPerSlot)
	c.fanOutDone = make(chan struct{})
	go c.fanOut(c.ticker, c.fanOutDone)
	log.WithField("genesisTime", genesisTime).Info("Clock started")
}

// Stop releases the ticker goroutine. Safe to call even if Start was never
// called.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.ticker == nil {
		return
	}
	c.ticker.stop()
	close(c.fanOutDone)
	c.started = false
}

// CurrentSlot returns floor((now - genesis_time) / SECONDS_PER_SLOT). Safe
// for concurrent use. Returns 0 before Start is called.
func (c *Clock) CurrentSlot() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return 0
	}
	elapsed := time.Since(c.genesisTime)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed.Seconds()) / c.secondsPerSlot
}

// Subscribe registers ch to receive every slot tick. The returned function
// unsubscribes ch.
func (c *Clock) Subscribe(ch chan uint64) func() {
	c.subMu.Lock()
	c.subs = append(c.subs, ch)
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, s := range c.subs {
			if s == ch {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
	}
}

func (c *Clock) fanOut(ticker *slotTicker, done chan struct{}) {
	for {
		select {
		case slot := <-ticker.C():
			c.subMu.Lock()
			subs := make([]chan uint64, len(c.subs))
			copy(subs, c.subs)
			c.subMu.Unlock()
			for _, s := range subs {
				select {
				case s <- slot:
				default:
					log.Warn("Slot subscriber channel full, dropping tick")
				}
			}
		case <-done:
			return
		}
	}
}
