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
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	GrantDomainName    = "Decryption"
	GrantDomainVersion = "1"
	GrantPrimaryType   = "UserDecryptRequestVerification"

	// SecondsPerDay converts grant durations to seconds
	SecondsPerDay = 86400
)

// NewGrantTypedData builds the EIP-712 payload for a decryption grant
func NewGrantTypedData(
	chainId uint64,
	verifyingContract common.Address,
	req GrantRequest,
) (apitypes.TypedData, error) {
	if len(req.PublicKey) == 0 {
		return apitypes.TypedData{}, errors.New("grant public key is empty")
	}
	if len(req.ContractAddresses) == 0 {
		return apitypes.TypedData{}, errors.New(
			"grant must name at least one contract",
		)
	}
	contracts := make([]any, 0, len(req.ContractAddresses))
	for _, addr := range req.ContractAddresses {
		contracts = append(contracts, addr.Hex())
	}
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			GrantPrimaryType: []apitypes.Type{
				{Name: "publicKey", Type: "bytes"},
				{Name: "contractAddresses", Type: "address[]"},
				{Name: "startTimestamp", Type: "uint256"},
				{Name: "durationDays", Type: "uint256"},
			},
		},
		PrimaryType: GrantPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:    GrantDomainName,
			Version: GrantDomainVersion,
			// #nosec G115
			ChainId:           math.NewHexOrDecimal256(int64(chainId)),
			VerifyingContract: verifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"publicKey":         hexutil.Encode(req.PublicKey),
			"contractAddresses": contracts,
			"startTimestamp":    strconv.FormatInt(req.StartTimestamp, 10),
			"durationDays": strconv.FormatUint(
				uint64(req.DurationDays),
				10,
			),
		},
	}, nil
}

// TypedDataHash returns the EIP-712 signing hash for the payload
func TypedDataHash(data apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("hash typed data: %w", err)
	}
	return hash, nil
}

// RecoverTypedDataSigner returns the address that produced an eth_signTypedData
// style signature (V of 27/28 or 0/1) over the payload
func RecoverTypedDataSigner(
	data apitypes.TypedData,
	sig []byte,
) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf(
			"%w: length %d",
			ErrInvalidGrantSignature,
			len(sig),
		)
	}
	hash, err := TypedDataHash(data)
	if err != nil {
		return common.Address{}, err
	}
	tmpSig := make([]byte, len(sig))
	copy(tmpSig, sig)
	if tmpSig[crypto.RecoveryIDOffset] >= 27 {
		tmpSig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash, tmpSig)
	if err != nil {
		return common.Address{}, fmt.Errorf(
			"%w: %w",
			ErrInvalidGrantSignature,
			err,
		)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
