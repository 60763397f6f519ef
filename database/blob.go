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

package database

import (
	"time"

	"github.com/blinklabs-io/langjourney/database/types"
)

// blobRead runs fn against the blob side of txn, or a throwaway read-only
// blob transaction when txn is nil
func (d *Database) blobRead(txn *Txn, fn func(types.Txn) error) error {
	if txn != nil {
		return fn(txn.Blob())
	}
	tmpTxn := NewBlobOnlyTxn(d, false)
	defer tmpTxn.Release()
	return fn(tmpTxn.Blob())
}

// blobWrite runs fn against the blob side of txn, or a blob-only transaction
// that is committed on success when txn is nil
func (d *Database) blobWrite(txn *Txn, fn func(types.Txn) error) error {
	if txn != nil {
		return fn(txn.Blob())
	}
	return NewBlobOnlyTxn(d, true).Do(func(tmpTxn *Txn) error {
		return fn(tmpTxn.Blob())
	})
}

// GetCiphertext returns the stored ciphertext record for a handle, or
// types.ErrBlobKeyNotFound
func (d *Database) GetCiphertext(handle []byte, txn *Txn) ([]byte, error) {
	var ret []byte
	err := d.blobRead(txn, func(blobTxn types.Txn) error {
		var err error
		ret, err = d.blob.Get(blobTxn, types.CiphertextBlobKey(handle))
		return err
	})
	return ret, err
}

func (d *Database) SetCiphertext(handle []byte, data []byte, txn *Txn) error {
	return d.blobWrite(txn, func(blobTxn types.Txn) error {
		return d.blob.Set(blobTxn, types.CiphertextBlobKey(handle), data)
	})
}

// GetGrant returns a stored decryption grant, or types.ErrBlobKeyNotFound
func (d *Database) GetGrant(key string, txn *Txn) ([]byte, error) {
	var ret []byte
	err := d.blobRead(txn, func(blobTxn types.Txn) error {
		var err error
		ret, err = d.blob.Get(blobTxn, types.GrantBlobKey(key))
		return err
	})
	return ret, err
}

// SetGrant stores a decryption grant. A positive ttl lets the blob store
// drop it once it can no longer be valid.
func (d *Database) SetGrant(
	key string,
	data []byte,
	ttl time.Duration,
	txn *Txn,
) error {
	return d.blobWrite(txn, func(blobTxn types.Txn) error {
		return d.blob.SetWithTTL(blobTxn, types.GrantBlobKey(key), data, ttl)
	})
}

func (d *Database) DeleteGrant(key string, txn *Txn) error {
	return d.blobWrite(txn, func(blobTxn types.Txn) error {
		return d.blob.Delete(blobTxn, types.GrantBlobKey(key))
	})
}

// GetCoprocessorKey returns the persisted coprocessor key, or
// types.ErrBlobKeyNotFound
func (d *Database) GetCoprocessorKey(txn *Txn) ([]byte, error) {
	var ret []byte
	err := d.blobRead(txn, func(blobTxn types.Txn) error {
		var err error
		ret, err = d.blob.Get(blobTxn, []byte(types.CoprocessorKeyBlobKey))
		return err
	})
	return ret, err
}

func (d *Database) SetCoprocessorKey(key []byte, txn *Txn) error {
	return d.blobWrite(txn, func(blobTxn types.Txn) error {
		return d.blob.Set(blobTxn, []byte(types.CoprocessorKeyBlobKey), key)
	})
}
