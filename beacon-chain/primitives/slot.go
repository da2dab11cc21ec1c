// Package primitives defines the small scalar types shared across the
// consensus core, mirroring the prysmaticlabs/eth2-types convention the
// teacher's shared/slotutil and shared/p2putils packages build on.
package primitives

import "github.com/ethbeacon/consensus-core/beacon-chain/params"

// Slot is a single beacon-chain time unit.
type Slot uint64

// Epoch is a fixed-length bundle of slots.
type Epoch uint64

// ValidatorIndex identifies a validator in the registry.
type ValidatorIndex uint64

// ToEpoch converts a slot to its containing epoch using the active config's
// SlotsPerEpoch.
func (s Slot) ToEpoch() Epoch {
	return Epoch(uint64(s) / params.BeaconConfig().SlotsPerEpoch)
}

// StartSlot returns the first slot of the epoch.
func (e Epoch) StartSlot() Slot {
	return Slot(uint64(e) * params.BeaconConfig().SlotsPerEpoch)
}
