// Package params defines the configuration presets consumed by every other
// package in the consensus core: slot/epoch timing, genesis thresholds, and
// the fork-version schedule used to compute the fork digest.
package params

import "sync"

// BeaconChainConfig holds the constants a given network preset pins. Mirrors
// the shape of the teacher's params.Config, generalized to the fields this
// core actually reads.
type BeaconChainConfig struct {
	PresetName string

	SecondsPerSlot uint64
	SlotsPerEpoch  uint64

	GenesisDelay                    uint64
	MinGenesisTime                  uint64
	MinGenesisActiveValidatorCount  uint64
	MaxEffectiveBalance             uint64
	EffectiveBalanceIncrement       uint64

	MaxFutureSlots uint64

	GenesisForkVersion [4]byte
	ForkVersionSchedule map[uint64][4]byte // epoch -> fork version, ascending keys

	ZeroHash [32]byte
}

var (
	configLock sync.RWMutex
	activeConfig = MainnetConfig()
)

// MainnetConfig returns the production network preset.
func MainnetConfig() *BeaconChainConfig {
	return &BeaconChainConfig{
		PresetName:                     "mainnet",
		SecondsPerSlot:                 12,
		SlotsPerEpoch:                  32,
		GenesisDelay:                   604800,
		MinGenesisTime:                 1606824000,
		MinGenesisActiveValidatorCount: 16384,
		MaxEffectiveBalance:            32000000000,
		EffectiveBalanceIncrement:      1000000000,
		MaxFutureSlots:                 2,
		GenesisForkVersion:             [4]byte{0x00, 0x00, 0x00, 0x00},
		ForkVersionSchedule: map[uint64][4]byte{
			0: {0x00, 0x00, 0x00, 0x00},
		},
	}
}

// MinimalConfig returns the preset used by local testnets and spec tests:
// short epochs and a tiny genesis validator threshold.
func MinimalConfig() *BeaconChainConfig {
	cfg := MainnetConfig()
	cfg.PresetName = "minimal"
	cfg.SlotsPerEpoch = 8
	cfg.MinGenesisActiveValidatorCount = 64
	cfg.GenesisDelay = 300
	cfg.ForkVersionSchedule = map[uint64][4]byte{
		0: {0x01, 0x00, 0x00, 0x00},
	}
	return cfg
}

// BeaconConfig returns the currently active preset. Safe for concurrent use.
func BeaconConfig() *BeaconChainConfig {
	configLock.RLock()
	defer configLock.RUnlock()
	return activeConfig
}

// OverrideBeaconConfig swaps the active preset. Intended for test setup and
// network-selection at process start, not for use mid-run.
func OverrideBeaconConfig(cfg *BeaconChainConfig) {
	configLock.Lock()
	defer configLock.Unlock()
	activeConfig = cfg
}

// ForkVersionAtEpoch returns the fork version active at the given epoch,
// per the highest schedule entry whose key is <= epoch.
func (c *BeaconChainConfig) ForkVersionAtEpoch(epoch uint64) [4]byte {
	best := c.GenesisForkVersion
	bestEpoch := uint64(0)
	found := false
	for e, v := range c.ForkVersionSchedule {
		if e <= epoch && (!found || e > bestEpoch) {
			best = v
			bestEpoch = e
			found = true
		}
	}
	return best
}
