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

package mock

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/database/types"
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
)

var errUnknownHandle = errors.New("handle is not known to the coprocessor")

// ciphertextRecord is what the coprocessor keeps behind a handle
type ciphertextRecord struct {
	_        struct{} `cbor:",toarray"`
	Contract []byte
	User     []byte
	Value    uint64
	Type     uint8
}

func (c *Coprocessor) storeRecord(
	h handle.Handle,
	rec ciphertextRecord,
	txn *database.Txn,
) error {
	data, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode ciphertext record: %w", err)
	}
	return c.db.SetCiphertext(h.Bytes(), data, txn)
}

func (c *Coprocessor) loadRecord(h handle.Handle) (*ciphertextRecord, error) {
	data, err := c.db.GetCiphertext(h.Bytes(), nil)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, errUnknownHandle
		}
		return nil, err
	}
	var rec ciphertextRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode ciphertext record: %w", err)
	}
	return &rec, nil
}

func (r *ciphertextRecord) contract() common.Address {
	return common.BytesToAddress(r.Contract)
}
