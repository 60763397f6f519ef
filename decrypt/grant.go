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

package decrypt

import (
	"slices"
	"strings"
	"time"

	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultDurationDays is how long a new grant stays usable
const DefaultDurationDays = 365

// Grant is a signed, time-boxed permission to decrypt handles of a set of
// contracts, together with the ephemeral key pair that receives the
// plaintexts
type Grant struct {
	PrivateKey        hexutil.Bytes    `json:"privateKey"`
	PublicKey         hexutil.Bytes    `json:"publicKey"`
	Signature         hexutil.Bytes    `json:"signature"`
	ContractAddresses []common.Address `json:"contractAddresses"`
	UserAddress       common.Address   `json:"userAddress"`
	StartTimestamp    int64            `json:"startTimestamp"`
	DurationDays      uint32           `json:"durationDays"`
}

// Expiry returns the first instant at which the grant is no longer valid
func (g *Grant) Expiry() time.Time {
	return time.Unix(
		g.StartTimestamp+int64(g.DurationDays)*fhe.SecondsPerDay,
		0,
	)
}

// IsValid reports whether the grant can still be used at now
func (g *Grant) IsValid(now time.Time) bool {
	if g == nil {
		return false
	}
	return now.Before(g.Expiry())
}

// request builds the decrypt call for pairs under this grant
func (g *Grant) request(pairs []fhe.HandleContractPair) fhe.UserDecryptRequest {
	return fhe.UserDecryptRequest{
		Pairs:             pairs,
		PrivateKey:        g.PrivateKey,
		PublicKey:         g.PublicKey,
		Signature:         g.Signature,
		ContractAddresses: g.ContractAddresses,
		UserAddress:       g.UserAddress,
		StartTimestamp:    g.StartTimestamp,
		DurationDays:      g.DurationDays,
	}
}

// normalizeContracts returns the contracts sorted by their lower-case hex
// form with duplicates removed
func normalizeContracts(contracts []common.Address) []common.Address {
	ret := slices.Clone(contracts)
	slices.SortFunc(ret, func(a, b common.Address) int {
		return strings.Compare(strings.ToLower(a.Hex()), strings.ToLower(b.Hex()))
	})
	return slices.Compact(ret)
}

// GrantKey is the storage key of the grant for user over contracts. The
// contract order doesn't matter.
func GrantKey(user common.Address, contracts []common.Address) string {
	parts := make([]string, 0, len(contracts)+1)
	parts = append(parts, strings.ToLower(user.Hex()))
	for _, c := range normalizeContracts(contracts) {
		parts = append(parts, strings.ToLower(c.Hex()))
	}
	return crypto.Keccak256Hash([]byte(strings.Join(parts, ","))).Hex()
}
