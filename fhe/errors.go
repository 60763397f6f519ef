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

package fhe

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidProof is the class of input proof validation failures. It
	// indicates an encoding bug or tampering, not a state conflict.
	ErrInvalidProof = errors.New("invalid input proof")

	// ErrAuthorizationMismatch is returned when a decrypt request names a
	// handle that the grant does not cover
	ErrAuthorizationMismatch = errors.New("authorization mismatch")

	ErrInvalidGrantSignature = errors.New("invalid grant signature")
	ErrGrantWindowClosed     = errors.New("grant is not within its validity window")
	ErrValueOutOfRange       = errors.New("value does not fit encrypted type")
)

// ProofError describes an input proof that failed validation
type ProofError struct {
	Handle handle.Handle
	Reason string
}

func (e *ProofError) Error() string {
	return fmt.Sprintf("%s for handle %s: %s", ErrInvalidProof, e.Handle, e.Reason)
}

func (e *ProofError) Unwrap() error {
	return ErrInvalidProof
}

// AuthorizationMismatchError identifies the first handle in a decrypt batch
// that is not covered by the grant
type AuthorizationMismatchError struct {
	Handle          handle.Handle
	ContractAddress common.Address
	Reason          string
}

func (e *AuthorizationMismatchError) Error() string {
	return fmt.Sprintf(
		"%s: handle %s on contract %s: %s",
		ErrAuthorizationMismatch,
		e.Handle,
		e.ContractAddress.Hex(),
		e.Reason,
	)
}

func (e *AuthorizationMismatchError) Unwrap() error {
	return ErrAuthorizationMismatch
}
