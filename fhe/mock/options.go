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
	"crypto/ecdsa"
	"log/slog"
	"time"

	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/ethereum/go-ethereum/common"
)

type CoprocessorOptionFunc func(*Coprocessor)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) CoprocessorOptionFunc {
	return func(c *Coprocessor) {
		c.logger = logger
	}
}

// WithChainId specifies the chain id embedded in handles and grants
func WithChainId(chainId uint64) CoprocessorOptionFunc {
	return func(c *Coprocessor) {
		c.chainId = chainId
	}
}

// WithVerifyingContract specifies the decryption gateway address used as the
// EIP-712 verifying contract
func WithVerifyingContract(addr common.Address) CoprocessorOptionFunc {
	return func(c *Coprocessor) {
		c.verifyingContract = addr
	}
}

// WithSignerKey specifies the coprocessor key. Without it a key is loaded
// from the blob store, or generated and stored there.
func WithSignerKey(key *ecdsa.PrivateKey) CoprocessorOptionFunc {
	return func(c *Coprocessor) {
		c.key = key
	}
}

// WithACL specifies the decrypt permission source
func WithACL(acl fhe.ACL) CoprocessorOptionFunc {
	return func(c *Coprocessor) {
		c.acl = acl
	}
}

// WithClock specifies the time source for grant validity checks
func WithClock(clock func() time.Time) CoprocessorOptionFunc {
	return func(c *Coprocessor) {
		c.clock = clock
	}
}
