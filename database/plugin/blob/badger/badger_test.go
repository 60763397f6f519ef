// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/langjourney/database/plugin/blob/badger"
	"github.com/blinklabs-io/langjourney/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...badger.BlobStoreBadgerOptionFunc) *badger.BlobStoreBadger {
	t.Helper()
	store, err := badger.New(opts...)
	require.NoError(t, err)
	require.NoError(t, store.Start())
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestGetSetDelete(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("ct:1"), []byte("value")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	val, err := store.Get(txn, []byte("ct:1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)
	_, err = store.Get(txn, []byte("ct:2"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, []byte("ct:1")))
	require.NoError(t, txn.Commit())
	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = store.Get(txn, []byte("ct:1"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestFinishedTxn(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, txn.Rollback())
	err := store.Set(txn, []byte("k"), []byte("v"))
	require.ErrorIs(t, err, types.ErrTxnFinished)
	require.ErrorIs(t, store.Set(nil, []byte("k"), []byte("v")), types.ErrNilTxn)
}

func TestForeignTxn(t *testing.T) {
	storeA := newTestStore(t)
	storeB := newTestStore(t)
	txn := storeA.NewTransaction(true)
	defer txn.Rollback() //nolint:errcheck
	require.Error(t, storeB.Set(txn, []byte("k"), []byte("v")))
}

func TestSetWithTTL(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.SetWithTTL(txn, []byte("grant:a"), []byte("sig"), time.Hour))
	require.NoError(t, txn.Commit())
	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := store.Get(txn, []byte("grant:a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("sig"), val)
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1700000000123, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), ts)
}

func TestPersistent(t *testing.T) {
	dataDir := t.TempDir()
	store, err := badger.New(badger.WithDataDir(dataDir), badger.WithGc(false))
	require.NoError(t, err)
	require.NoError(t, store.Start())
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("coprocessor_key"), []byte{0x01}))
	require.NoError(t, txn.Commit())
	require.NoError(t, store.Close())
	// Close is idempotent
	require.NoError(t, store.Close())

	reopened := newTestStore(t, badger.WithDataDir(dataDir))
	txn = reopened.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := reopened.Get(txn, []byte("coprocessor_key"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, val)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	newTestStore(t, badger.WithPromRegistry(reg))
	count, err := testutil.GatherAndCount(
		reg,
		"database_blob_lsm_size_bytes",
		"database_blob_vlog_size_bytes",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUnstartedStore(t *testing.T) {
	store, err := badger.New()
	require.NoError(t, err)
	txn := store.NewTransaction(false)
	_, err = store.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobStoreUnavailable)
	require.NoError(t, store.Close())
}
