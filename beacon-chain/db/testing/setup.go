// Package testing provides a disposable bbolt-backed Database for use by
// other packages' tests, mirroring the teacher's db/kv setupDB/teardownDB
// test helpers but exported for reuse outside the kv package itself.
package testing

import (
	"testing"

	"github.com/ethbeacon/consensus-core/beacon-chain/db"
	"github.com/ethbeacon/consensus-core/beacon-chain/db/kv"
	"github.com/stretchr/testify/require"
)

// SetupDB returns a Database backed by a fresh bbolt file in a temp
// directory, closed automatically via t.Cleanup.
func SetupDB(t testing.TB) db.Database {
	store, err := kv.NewKVStore(t.TempDir() + "/beacon.db")
	require.NoError(t, err, "could not instantiate test db")
	t.Cleanup(func() {
		require.NoError(t, store.Close(), "could not close test db")
	})
	return store
}
