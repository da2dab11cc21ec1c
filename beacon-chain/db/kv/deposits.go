package kv

import (
	"context"

	"github.com/ethbeacon/consensus-core/beacon-chain/trieutil"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// DepositDataRootList returns the deposit-data-root list as it stood after
// processing eth1DepositIndex deposits, or an empty list if none has been
// saved under that index yet.
func (s *Store) DepositDataRootList(ctx context.Context, eth1DepositIndex uint64) (*trieutil.DepositDataRootList, error) {
	_, span := trace.StartSpan(ctx, "kv.DepositDataRootList")
	defer span.End()

	var list *trieutil.DepositDataRootList
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(depositRootListBucket).Get(encodeSlot(eth1DepositIndex))
		if enc == nil {
			return nil
		}
		var err error
		list, err = trieutil.UnmarshalDepositDataRootList(enc)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch deposit data root list")
	}
	if list == nil {
		list = trieutil.DefaultDepositDataRootList()
	}
	return list, nil
}

// SaveDepositDataRootList persists the deposit-data-root list as it stands
// after processing eth1DepositIndex deposits, keyed so later genesis
// bootstrap attempts can resume from the same eth1 follower distance.
func (s *Store) SaveDepositDataRootList(ctx context.Context, eth1DepositIndex uint64, list *trieutil.DepositDataRootList) error {
	_, span := trace.StartSpan(ctx, "kv.SaveDepositDataRootList")
	defer span.End()

	enc := list.Marshal()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(depositRootListBucket).Put(encodeSlot(eth1DepositIndex), enc)
	})
}
