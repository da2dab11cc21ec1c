package kv

import (
	"context"
	"testing"

	"github.com/ethbeacon/consensus-core/beacon-chain/trieutil"
	"github.com/stretchr/testify/require"
)

func setupDB(t testing.TB) *Store {
	store, err := NewKVStore(t.TempDir() + "/beacon.db")
	require.NoError(t, err, "Failed to instantiate DB")
	t.Cleanup(func() {
		require.NoError(t, store.Close(), "Failed to close database")
	})
	return store
}

func TestStore_DepositDataRootList_CanSaveRetrieve(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	list := trieutil.DefaultDepositDataRootList()
	list.Push([32]byte{1})
	list.Push([32]byte{2})

	require.NoError(t, db.SaveDepositDataRootList(ctx, 2, list))

	retrieved, err := db.DepositDataRootList(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, list.Root(), retrieved.Root())
	require.Equal(t, list.Len(), retrieved.Len())
}

func TestStore_DepositDataRootList_MissingReturnsEmpty(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	retrieved, err := db.DepositDataRootList(ctx, 99)
	require.NoError(t, err)
	require.Equal(t, 0, retrieved.Len())
}
