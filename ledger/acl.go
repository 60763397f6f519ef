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

package ledger

import (
	"context"

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
)

// grant lets each account and the ledger contract decrypt h
func (l *Ledger) grant(
	txn *database.Txn,
	h handle.Handle,
	accounts ...common.Address,
) error {
	all := make([][]byte, 0, len(accounts)+1)
	for _, account := range accounts {
		all = append(all, account.Bytes())
	}
	all = append(all, l.contractAddress.Bytes())
	return l.db.GrantHandle(h.Bytes(), all, txn)
}

// IsAllowed reports whether account may decrypt h
func (l *Ledger) IsAllowed(
	ctx context.Context,
	h handle.Handle,
	account common.Address,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.db.HasHandleGrant(h.Bytes(), account.Bytes(), nil)
}

// AllowedAccounts returns every account that may decrypt h
func (l *Ledger) AllowedAccounts(
	ctx context.Context,
	h handle.Handle,
) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	grants, err := l.db.GetHandleGrants(h.Bytes(), nil)
	if err != nil {
		return nil, err
	}
	ret := make([]common.Address, 0, len(grants))
	for _, g := range grants {
		ret = append(ret, common.BytesToAddress(g.Account))
	}
	return ret, nil
}
