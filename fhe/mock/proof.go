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
	"errors"
	"fmt"
	"slices"

	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// inputDomain separates input proof signatures from other uses of the key
const inputDomain = "langjourney-input"

// maxProofHandles is the most handles one proof can carry
const maxProofHandles = 255

// Proof layout: count (1) | handles (32 * count) | signature (65)

func inputProofHash(
	contract common.Address,
	user common.Address,
	handles []handle.Handle,
) []byte {
	parts := [][]byte{
		[]byte(inputDomain),
		contract.Bytes(),
		user.Bytes(),
	}
	for _, h := range handles {
		parts = append(parts, h.Bytes())
	}
	return crypto.Keccak256(parts...)
}

func buildProof(
	key *ecdsa.PrivateKey,
	contract common.Address,
	user common.Address,
	handles []handle.Handle,
) ([]byte, error) {
	if len(handles) == 0 || len(handles) > maxProofHandles {
		return nil, fmt.Errorf("proof must cover 1 to %d handles", maxProofHandles)
	}
	sig, err := crypto.Sign(inputProofHash(contract, user, handles), key)
	if err != nil {
		return nil, fmt.Errorf("sign input proof: %w", err)
	}
	proof := make([]byte, 0, 1+len(handles)*handle.Size+len(sig))
	proof = append(proof, byte(len(handles)))
	for _, h := range handles {
		proof = append(proof, h.Bytes()...)
	}
	return append(proof, sig...), nil
}

type parsedProof struct {
	handles   []handle.Handle
	signature []byte
}

func parseProof(proof []byte) (*parsedProof, error) {
	if len(proof) == 0 {
		return nil, errors.New("empty proof")
	}
	count := int(proof[0])
	if count == 0 {
		return nil, errors.New("proof covers no handles")
	}
	if len(proof) != 1+count*handle.Size+crypto.SignatureLength {
		return nil, fmt.Errorf(
			"proof length %d does not match %d handles",
			len(proof),
			count,
		)
	}
	ret := &parsedProof{
		handles: make([]handle.Handle, count),
	}
	for i := range count {
		copy(ret.handles[i][:], proof[1+i*handle.Size:1+(i+1)*handle.Size])
	}
	ret.signature = slices.Clone(proof[1+count*handle.Size:])
	return ret, nil
}

// signer recovers the address that signed the proof for contract and user
func (p *parsedProof) signer(
	contract common.Address,
	user common.Address,
) (common.Address, error) {
	pub, err := crypto.SigToPub(
		inputProofHash(contract, user, p.handles),
		p.signature,
	)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func (p *parsedProof) contains(h handle.Handle) bool {
	return slices.Contains(p.handles, h)
}
