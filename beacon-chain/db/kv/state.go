package kv

import (
	"context"

	"github.com/ethbeacon/consensus-core/beacon-chain/ssz"
	"github.com/ethbeacon/consensus-core/beacon-chain/types"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

var stateBytes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "beacondb_state_size_bytes",
	Help: "The SSZ-encoded size of the last saved state",
})

// State returns the stored state for root, or nil if absent.
func (s *Store) State(ctx context.Context, root [32]byte) (*types.BeaconState, error) {
	_, span := trace.StartSpan(ctx, "kv.State")
	defer span.End()

	var st *types.BeaconState
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(statesBucket).Get(root[:])
		if enc == nil {
			return nil
		}
		st = &types.BeaconState{}
		return ssz.Unmarshal(enc, st)
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch state")
	}
	return st, nil
}

// SaveState writes a state keyed by root.
func (s *Store) SaveState(ctx context.Context, state *types.BeaconState, root [32]byte) error {
	_, span := trace.StartSpan(ctx, "kv.SaveState")
	defer span.End()

	enc, err := ssz.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "could not marshal state")
	}
	stateBytes.Set(float64(len(enc)))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(statesBucket).Put(root[:], enc)
	})
}
