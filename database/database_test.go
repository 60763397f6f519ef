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

package database_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/database/models"
	"github.com/blinklabs-io/langjourney/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestTxnCommitsBothStores(t *testing.T) {
	db := newTestDatabase(t)
	handle := bytes.Repeat([]byte{0xab}, 32)
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		id, err := db.AllocateId(models.CounterPath, txn)
		if err != nil {
			return err
		}
		if err := db.AddPath(&models.Path{
			ID:                 id,
			Creator:            bytes.Repeat([]byte{0x01}, 20),
			ContentRef:         "QmPath",
			EncryptedTaskCount: handle,
			Active:             true,
		}, txn); err != nil {
			return err
		}
		return db.SetCiphertext(handle, []byte("ciphertext"), txn)
	})
	require.NoError(t, err)

	path, err := db.GetPath(1, nil)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, "QmPath", path.ContentRef)
	ct, err := db.GetCiphertext(handle, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), ct)

	metadataTs, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	blobTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Positive(t, metadataTs)
	assert.Equal(t, metadataTs, blobTs)
}

func TestTxnRollbackOnError(t *testing.T) {
	db := newTestDatabase(t)
	handle := bytes.Repeat([]byte{0xcd}, 32)
	errBoom := errors.New("boom")
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if _, err := db.AllocateId(models.CounterSubmission, txn); err != nil {
			return err
		}
		if err := db.SetCiphertext(handle, []byte("x"), txn); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	next, err := db.NextId(models.CounterSubmission, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
	_, err = db.GetCiphertext(handle, nil)
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestGrantHandle(t *testing.T) {
	db := newTestDatabase(t)
	handle := bytes.Repeat([]byte{0x11}, 32)
	alice := bytes.Repeat([]byte{0xa1}, 20)
	bob := bytes.Repeat([]byte{0xb0}, 20)
	require.NoError(t, db.GrantHandle(handle, [][]byte{alice, bob}, nil))
	ok, err := db.HasHandleGrant(handle, alice, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	grants, err := db.GetHandleGrants(handle, nil)
	require.NoError(t, err)
	assert.Len(t, grants, 2)
}

func TestGrantBlobs(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.SetGrant("k1", []byte("grant"), time.Hour, nil))
	val, err := db.GetGrant("k1", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("grant"), val)
	require.NoError(t, db.DeleteGrant("k1", nil))
	_, err = db.GetGrant("k1", nil)
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestCoprocessorKeyPersists(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	_, err = db.GetCoprocessorKey(nil)
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, db.SetCoprocessorKey([]byte{0x01, 0x02}, nil))
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer db.Close()
	key, err := db.GetCoprocessorKey(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, key)
}

func TestCommitTimestampMismatch(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, db.Transaction(true).Do(func(txn *database.Txn) error {
		_, err := db.AllocateId(models.CounterPath, txn)
		return err
	}))
	// Advance only the metadata side
	metadataTxn := db.Metadata().Transaction()
	require.NoError(t, db.Metadata().SetCommitTimestamp(time.Now().UnixMilli()+60000, metadataTxn))
	require.NoError(t, metadataTxn.Commit())
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.Error(t, err)
	var tsErr database.CommitTimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.NotEqual(t, tsErr.MetadataTimestamp, tsErr.BlobTimestamp)
	require.NotNil(t, db)
	require.NoError(t, db.Close())
}

func TestUnknownPlugin(t *testing.T) {
	_, err := database.New(&database.Config{BlobPlugin: "s3"})
	require.Error(t, err)
}
