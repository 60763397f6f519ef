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

// Package mock is a local stand-in for an FHE coprocessor and decryption
// gateway. It commits plaintexts to handles in the blob store, signs input
// proofs, and re-encrypts results to the requester's ephemeral key. It
// performs no homomorphic computation.
package mock

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/database/types"
	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/ecies"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const DefaultChainId = 31337

var (
	_ fhe.Instance      = (*Coprocessor)(nil)
	_ fhe.InputVerifier = (*Coprocessor)(nil)
)

type Coprocessor struct {
	db                *database.Database
	logger            *slog.Logger
	key               *ecdsa.PrivateKey
	acl               fhe.ACL
	clock             func() time.Time
	aclMutex          sync.RWMutex
	chainId           uint64
	address           common.Address
	verifyingContract common.Address
}

// New creates a coprocessor backed by the blob store of db
func New(
	db *database.Database,
	opts ...CoprocessorOptionFunc,
) (*Coprocessor, error) {
	if db == nil {
		return nil, errors.New("coprocessor requires a database")
	}
	c := &Coprocessor{
		db:      db,
		chainId: DefaultChainId,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.key == nil {
		key, err := c.loadOrCreateKey()
		if err != nil {
			return nil, err
		}
		c.key = key
	}
	c.address = crypto.PubkeyToAddress(c.key.PublicKey)
	if c.verifyingContract == (common.Address{}) {
		c.verifyingContract = crypto.CreateAddress(c.address, 0)
	}
	return c, nil
}

func (c *Coprocessor) loadOrCreateKey() (*ecdsa.PrivateKey, error) {
	keyBytes, err := c.db.GetCoprocessorKey(nil)
	if err == nil {
		key, err := crypto.ToECDSA(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("load coprocessor key: %w", err)
		}
		return key, nil
	}
	if !errors.Is(err, types.ErrBlobKeyNotFound) {
		return nil, fmt.Errorf("load coprocessor key: %w", err)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate coprocessor key: %w", err)
	}
	if err := c.db.SetCoprocessorKey(crypto.FromECDSA(key), nil); err != nil {
		return nil, fmt.Errorf("store coprocessor key: %w", err)
	}
	c.logger.Info(
		"generated coprocessor key",
		"component", "coprocessor",
		"address", crypto.PubkeyToAddress(key.PublicKey).Hex(),
	)
	return key, nil
}

// Address returns the address that signs input proofs
func (c *Coprocessor) Address() common.Address {
	return c.address
}

func (c *Coprocessor) ChainId() uint64 {
	return c.chainId
}

// VerifyingContract returns the EIP-712 verifying contract for grants
func (c *Coprocessor) VerifyingContract() common.Address {
	return c.verifyingContract
}

// SetACL sets the decrypt permission source. The ledger is usually created
// after the coprocessor, so this can't always be an option.
func (c *Coprocessor) SetACL(acl fhe.ACL) {
	c.aclMutex.Lock()
	defer c.aclMutex.Unlock()
	c.acl = acl
}

func (c *Coprocessor) getACL() fhe.ACL {
	c.aclMutex.RLock()
	defer c.aclMutex.RUnlock()
	return c.acl
}

// Encrypt commits values to handles bound to contract and user and returns
// them with a single proof covering the batch
func (c *Coprocessor) Encrypt(
	ctx context.Context,
	contract common.Address,
	user common.Address,
	values ...fhe.Value,
) (*fhe.EncryptedInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 || len(values) > maxProofHandles {
		return nil, fmt.Errorf(
			"encrypt takes 1 to %d values, got %d",
			maxProofHandles,
			len(values),
		)
	}
	for _, v := range values {
		if err := v.Type.Validate(); err != nil {
			return nil, err
		}
		if !v.Type.Fits(v.Value) {
			return nil, fmt.Errorf(
				"%w: %d as %s",
				fhe.ErrValueOutOfRange,
				v.Value,
				v.Type,
			)
		}
	}
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	seed := crypto.Keccak256(
		contract.Bytes(),
		user.Bytes(),
		binary.BigEndian.AppendUint64(nil, c.chainId),
		nonce,
	)
	handles := make([]handle.Handle, len(values))
	for i, v := range values {
		digest := crypto.Keccak256(seed, []byte{byte(i)})
		handles[i] = handle.Build(digest, uint8(i), c.chainId, v.Type) //nolint:gosec
	}
	proof, err := buildProof(c.key, contract, user, handles)
	if err != nil {
		return nil, err
	}
	txn := database.NewBlobOnlyTxn(c.db, true)
	err = txn.Do(func(txn *database.Txn) error {
		for i, v := range values {
			rec := ciphertextRecord{
				Contract: contract.Bytes(),
				User:     user.Bytes(),
				Value:    v.Value,
				Type:     uint8(v.Type),
			}
			if err := c.storeRecord(handles[i], rec, txn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store ciphertexts: %w", err)
	}
	return &fhe.EncryptedInput{
		Handles: handles,
		Proof:   proof,
	}, nil
}

// VerifyInput checks that proof was issued by this coprocessor for contract
// and user, that it covers h, and that h has the expected type
func (c *Coprocessor) VerifyInput(
	_ context.Context,
	h handle.Handle,
	proof []byte,
	contract common.Address,
	user common.Address,
	expectedType handle.Type,
) error {
	parsed, err := parseProof(proof)
	if err != nil {
		return &fhe.ProofError{Handle: h, Reason: err.Error()}
	}
	if !parsed.contains(h) {
		return &fhe.ProofError{Handle: h, Reason: "handle is not covered by the proof"}
	}
	signer, err := parsed.signer(contract, user)
	if err != nil || signer != c.address {
		return &fhe.ProofError{
			Handle: h,
			Reason: "proof was not issued for this contract and sender",
		}
	}
	if h.Type() != expectedType {
		return &fhe.ProofError{
			Handle: h,
			Reason: fmt.Sprintf(
				"handle type %s, expected %s",
				h.Type(),
				expectedType,
			),
		}
	}
	if h.ChainId() != c.chainId {
		return &fhe.ProofError{
			Handle: h,
			Reason: fmt.Sprintf("handle chain id %d, expected %d", h.ChainId(), c.chainId),
		}
	}
	return nil
}

// GenerateKeypair returns an ephemeral secp256k1 key pair for ECIES
// re-encryption
func (c *Coprocessor) GenerateKeypair() (*fhe.KeyPair, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &fhe.KeyPair{
		PublicKey:  crypto.FromECDSAPub(&key.PublicKey),
		PrivateKey: crypto.FromECDSA(key),
	}, nil
}

// CreateEIP712 builds the grant payload under this coprocessor's domain
func (c *Coprocessor) CreateEIP712(
	req fhe.GrantRequest,
) (apitypes.TypedData, error) {
	return fhe.NewGrantTypedData(c.chainId, c.verifyingContract, req)
}

// UserDecrypt checks the grant and the permissions of every handle, then
// returns the plaintexts. The first handle that isn't covered fails the
// whole batch with an *fhe.AuthorizationMismatchError.
func (c *Coprocessor) UserDecrypt(
	ctx context.Context,
	req fhe.UserDecryptRequest,
) (map[handle.Handle]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acl := c.getACL()
	if acl == nil {
		return nil, errors.New("coprocessor has no ACL configured")
	}
	typedData, err := c.CreateEIP712(fhe.GrantRequest{
		PublicKey:         req.PublicKey,
		ContractAddresses: req.ContractAddresses,
		StartTimestamp:    req.StartTimestamp,
		DurationDays:      req.DurationDays,
	})
	if err != nil {
		return nil, err
	}
	signer, err := fhe.RecoverTypedDataSigner(typedData, req.Signature)
	if err != nil {
		return nil, err
	}
	if signer != req.UserAddress {
		return nil, fmt.Errorf(
			"%w: signed by %s, not %s",
			fhe.ErrInvalidGrantSignature,
			signer.Hex(),
			req.UserAddress.Hex(),
		)
	}
	now := c.clock().Unix()
	end := req.StartTimestamp + int64(req.DurationDays)*fhe.SecondsPerDay
	if now < req.StartTimestamp || now >= end {
		return nil, fhe.ErrGrantWindowClosed
	}
	ephemeralPub, err := crypto.UnmarshalPubkey(req.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("grant public key: %w", err)
	}
	ephemeralKey, err := crypto.ToECDSA(req.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("grant private key: %w", err)
	}
	if !bytes.Equal(crypto.FromECDSAPub(&ephemeralKey.PublicKey), req.PublicKey) {
		return nil, errors.New("grant private key does not match public key")
	}
	ret := make(map[handle.Handle]uint64, len(req.Pairs))
	for _, pair := range req.Pairs {
		ciphertext, err := c.reencrypt(ctx, acl, pair, req, ephemeralPub)
		if err != nil {
			return nil, err
		}
		plaintext, err := ecies.ImportECDSA(ephemeralKey).Decrypt(ciphertext, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("decrypt handle %s: %w", pair.Handle, err)
		}
		if len(plaintext) != 8 {
			return nil, fmt.Errorf("decrypt handle %s: malformed plaintext", pair.Handle)
		}
		ret[pair.Handle] = binary.BigEndian.Uint64(plaintext)
	}
	return ret, nil
}

// reencrypt is the gateway side of a decrypt: it checks one pair against the
// grant and ACL and seals the plaintext to the ephemeral key
func (c *Coprocessor) reencrypt(
	ctx context.Context,
	acl fhe.ACL,
	pair fhe.HandleContractPair,
	req fhe.UserDecryptRequest,
	ephemeralPub *ecdsa.PublicKey,
) ([]byte, error) {
	mismatch := func(reason string) error {
		return &fhe.AuthorizationMismatchError{
			Handle:          pair.Handle,
			ContractAddress: pair.ContractAddress,
			Reason:          reason,
		}
	}
	if !slices.Contains(req.ContractAddresses, pair.ContractAddress) {
		return nil, mismatch("contract is not covered by the grant")
	}
	rec, err := c.loadRecord(pair.Handle)
	if err != nil {
		if errors.Is(err, errUnknownHandle) {
			return nil, mismatch(err.Error())
		}
		return nil, err
	}
	if rec.contract() != pair.ContractAddress {
		return nil, mismatch("handle is bound to another contract")
	}
	for _, account := range []common.Address{req.UserAddress, pair.ContractAddress} {
		allowed, err := acl.IsAllowed(ctx, pair.Handle, account)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, mismatch(
				fmt.Sprintf("%s may not decrypt this handle", account.Hex()),
			)
		}
	}
	ciphertext, err := ecies.Encrypt(
		rand.Reader,
		ecies.ImportECDSAPublic(ephemeralPub),
		binary.BigEndian.AppendUint64(nil, rec.Value),
		nil,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("re-encrypt handle %s: %w", pair.Handle, err)
	}
	return ciphertext, nil
}
