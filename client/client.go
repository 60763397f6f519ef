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

// Package client is a session facade over the ledger. It encrypts inputs for
// the session's signer before each write and decrypts handles through a
// cached grant.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/langjourney/decrypt"
	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of handles per decrypt call in DecryptMany
const DefaultBatchSize = 16

// Backend is the set of ledger entry points the client calls
type Backend interface {
	Owner() common.Address
	ContractAddress() common.Address
	CreatePath(ctx context.Context, from common.Address, contentRef string, encryptedTaskCount handle.Handle, proof []byte) (uint64, error)
	SetPathActive(ctx context.Context, from common.Address, id uint64, active bool) error
	SubmitTask(ctx context.Context, from common.Address, pathID uint64, taskID uint64, contentRef string, encryptedScore handle.Handle, proof []byte) (uint64, error)
	VerifySubmission(ctx context.Context, from common.Address, id uint64, decision ledger.Status, revisedScore handle.Handle, proof []byte) error
	MintCertificate(ctx context.Context, from common.Address, pathID uint64, contentRef string, encryptedFinalScore handle.Handle, proof []byte) (uint64, error)
	SetTeacherAuthorization(ctx context.Context, from common.Address, teacher common.Address, authorized bool) error
	IsAuthorizedTeacher(ctx context.Context, addr common.Address) (bool, error)
	GetSubmission(ctx context.Context, id uint64) (*ledger.Submission, error)
}

var _ Backend = (*ledger.Ledger)(nil)

type Client struct {
	backend   Backend
	instance  fhe.Instance
	signer    decrypt.Signer
	cache     *decrypt.Cache
	logger    *slog.Logger
	batchSize int
}

type ClientOptionFunc func(*Client)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBatchSize specifies how many handles DecryptMany sends per call
func WithBatchSize(size int) ClientOptionFunc {
	return func(c *Client) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// New creates a client acting as signer. A nil cache gets a fresh in-memory
// one.
func New(
	backend Backend,
	instance fhe.Instance,
	signer decrypt.Signer,
	cache *decrypt.Cache,
	opts ...ClientOptionFunc,
) *Client {
	c := &Client{
		backend:   backend,
		instance:  instance,
		signer:    signer,
		cache:     cache,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = decrypt.NewCache()
	}
	if c.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c
}

// Address returns the account the client acts as
func (c *Client) Address() common.Address {
	return c.signer.Address()
}

// encrypt commits value to the backend contract and the signer, which is the
// identity that will submit it
func (c *Client) encrypt(
	ctx context.Context,
	value fhe.Value,
) (handle.Handle, []byte, error) {
	input, err := c.instance.Encrypt(
		ctx,
		c.backend.ContractAddress(),
		c.signer.Address(),
		value,
	)
	if err != nil {
		return handle.Handle{}, nil, fmt.Errorf("encrypt input: %w", err)
	}
	if len(input.Handles) != 1 {
		return handle.Handle{}, nil, fmt.Errorf(
			"encrypt input: expected 1 handle, got %d",
			len(input.Handles),
		)
	}
	return input.Handles[0], input.Proof, nil
}

func (c *Client) CreatePath(
	ctx context.Context,
	contentRef string,
	taskCount uint32,
) (uint64, error) {
	h, proof, err := c.encrypt(ctx, fhe.Uint32(taskCount))
	if err != nil {
		return 0, err
	}
	return c.backend.CreatePath(ctx, c.signer.Address(), contentRef, h, proof)
}

func (c *Client) SetPathActive(ctx context.Context, id uint64, active bool) error {
	return c.backend.SetPathActive(ctx, c.signer.Address(), id, active)
}

func (c *Client) SubmitTask(
	ctx context.Context,
	pathID uint64,
	taskID uint64,
	contentRef string,
	score uint32,
) (uint64, error) {
	h, proof, err := c.encrypt(ctx, fhe.Uint32(score))
	if err != nil {
		return 0, err
	}
	return c.backend.SubmitTask(
		ctx,
		c.signer.Address(),
		pathID,
		taskID,
		contentRef,
		h,
		proof,
	)
}

// VerifySubmission reviews a submission with a new score. A submission that
// is already reviewed is reported without encrypting anything. The ledger
// repeats the check, so a review racing with this one still fails cleanly.
func (c *Client) VerifySubmission(
	ctx context.Context,
	id uint64,
	decision ledger.Status,
	score uint32,
) error {
	sub, err := c.backend.GetSubmission(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status != ledger.StatusPending {
		return fmt.Errorf(
			"%w: submission %d is %s",
			ledger.ErrAlreadyReviewed,
			id,
			sub.Status,
		)
	}
	h, proof, err := c.encrypt(ctx, fhe.Uint32(score))
	if err != nil {
		return err
	}
	return c.backend.VerifySubmission(ctx, c.signer.Address(), id, decision, h, proof)
}

func (c *Client) MintCertificate(
	ctx context.Context,
	pathID uint64,
	contentRef string,
	finalScore uint64,
) (uint64, error) {
	h, proof, err := c.encrypt(ctx, fhe.Uint64(finalScore))
	if err != nil {
		return 0, err
	}
	return c.backend.MintCertificate(
		ctx,
		c.signer.Address(),
		pathID,
		contentRef,
		h,
		proof,
	)
}

// SetTeacherAuthorization grants or revokes the teacher capability. When the
// owner asks for the state the teacher already has, nothing is written.
func (c *Client) SetTeacherAuthorization(
	ctx context.Context,
	teacher common.Address,
	authorized bool,
) error {
	if c.signer.Address() == c.backend.Owner() {
		current, err := c.backend.IsAuthorizedTeacher(ctx, teacher)
		if err != nil {
			return err
		}
		if current == authorized {
			c.logger.Debug(
				"teacher authorization unchanged",
				"component", "client",
				"teacher", teacher.Hex(),
				"authorized", authorized,
			)
			return nil
		}
	}
	return c.backend.SetTeacherAuthorization(
		ctx,
		c.signer.Address(),
		teacher,
		authorized,
	)
}

func (c *Client) IsAuthorizedTeacher(
	ctx context.Context,
	addr common.Address,
) (bool, error) {
	return c.backend.IsAuthorizedTeacher(ctx, addr)
}

// Grant returns the session's grant for the backend contract, asking the
// signer if there is none yet
func (c *Client) Grant(ctx context.Context) (*decrypt.Grant, error) {
	return c.cache.LoadOrSign(
		ctx,
		c.instance,
		[]common.Address{c.backend.ContractAddress()},
		c.signer,
	)
}

// DecryptScore decrypts a single handle. The handle may be given in any form
// handle.New accepts.
func (c *Client) DecryptScore(ctx context.Context, handleSrc any) (uint64, error) {
	h, err := handle.New(handleSrc)
	if err != nil {
		return 0, err
	}
	values, err := c.DecryptMany(ctx, []handle.Handle{h})
	if err != nil {
		return 0, err
	}
	value, ok := values[h]
	if !ok {
		return 0, fmt.Errorf("no plaintext returned for handle %s", h)
	}
	return value, nil
}

// DecryptMany decrypts handles of the backend contract under one grant. The
// handles are split into batches that are decrypted in parallel. Any
// failure, including a handle the signer may not see, fails the whole call.
func (c *Client) DecryptMany(
	ctx context.Context,
	handles []handle.Handle,
) (map[handle.Handle]uint64, error) {
	if len(handles) == 0 {
		return map[handle.Handle]uint64{}, nil
	}
	grant, err := c.Grant(ctx)
	if err != nil {
		return nil, err
	}
	contract := c.backend.ContractAddress()
	var batches [][]fhe.HandleContractPair
	for start := 0; start < len(handles); start += c.batchSize {
		end := min(start+c.batchSize, len(handles))
		batch := make([]fhe.HandleContractPair, 0, end-start)
		for _, h := range handles[start:end] {
			batch = append(batch, fhe.HandleContractPair{
				Handle:          h,
				ContractAddress: contract,
			})
		}
		batches = append(batches, batch)
	}
	results := make([]map[handle.Handle]uint64, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			ret, err := c.cache.UserDecrypt(gctx, c.instance, grant, batch)
			if err != nil {
				return err
			}
			results[i] = ret
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, fhe.ErrAuthorizationMismatch) {
			c.logger.Debug(
				"decrypt refused",
				"component", "client",
				"user", c.signer.Address().Hex(),
				"error", err,
			)
		}
		return nil, err
	}
	ret := make(map[handle.Handle]uint64, len(handles))
	for _, batch := range results {
		for h, v := range batch {
			ret[h] = v
		}
	}
	return ret, nil
}
