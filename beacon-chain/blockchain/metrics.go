package blockchain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	processedBlockCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_blockchain_processed_blocks_total",
		Help: "The number of blocks the Block Processor has successfully stored",
	})
	orphanedBlockCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_blockchain_orphaned_blocks_total",
		Help: "The total number of blocks parked in the orphan pool awaiting their parent",
	})
	headSlotGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_blockchain_head_slot",
		Help: "The slot of the current chain head",
	})
)
