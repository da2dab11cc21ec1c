package clock

import (
	"testing"
	"time"
)

func TestSlotTicker_TicksForward(t *testing.T) {
	ticker := &slotTicker{
		c:    make(chan uint64),
		done: make(chan struct{}),
	}
	defer ticker.stop()

	var sinceDuration time.Duration
	since := func(time.Time) time.Duration { return sinceDuration }

	var untilDuration time.Duration
	until := func(time.Time) time.Duration { return untilDuration }

	var tick chan time.Time
	after := func(time.Duration) <-chan time.Time { return tick }

	genesisTime := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	secondsPerSlot := uint64(12)

	sinceDuration = 1 * time.Second
	untilDuration = 11 * time.Second
	tick = make(chan time.Time, 2)
	ticker.start(genesisTime, secondsPerSlot, since, until, after)

	tick <- time.Now()
	if slot := <-ticker.C(); slot != 1 {
		t.Fatalf("expected slot 1, got %d", slot)
	}

	tick <- time.Now()
	if slot := <-ticker.C(); slot != 2 {
		t.Fatalf("expected slot 2, got %d", slot)
	}
}

func TestSlotTicker_BeforeGenesisStartsAtZero(t *testing.T) {
	ticker := &slotTicker{
		c:    make(chan uint64),
		done: make(chan struct{}),
	}
	defer ticker.stop()

	var sinceDuration, untilDuration time.Duration
	since := func(time.Time) time.Duration { return sinceDuration }
	until := func(time.Time) time.Duration { return untilDuration }

	var tick chan time.Time
	after := func(time.Duration) <-chan time.Time { return tick }

	genesisTime := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	sinceDuration = -1 * time.Second
	untilDuration = 1 * time.Second
	tick = make(chan time.Time, 1)
	ticker.start(genesisTime, 12, since, until, after)

	tick <- time.Now()
	if slot := <-ticker.C(); slot != 0 {
		t.Fatalf("expected slot 0, got %d", slot)
	}
}
