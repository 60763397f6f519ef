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

package indexer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/event"
	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/blinklabs-io/langjourney/fhe/mock"
	"github.com/blinklabs-io/langjourney/indexer"
	"github.com/blinklabs-io/langjourney/internal/test/testutil"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type testEnv struct {
	ledger      *ledger.Ledger
	coprocessor *mock.Coprocessor
	bus         *event.EventBus
	owner       common.Address
	clock       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	env := &testEnv{
		bus:   event.NewEventBus(nil, nil),
		owner: newAddress(t),
		clock: time.Unix(1760000000, 0).UTC(),
	}
	t.Cleanup(env.bus.Stop)
	// Every write advances the clock so ordering by time is deterministic
	clock := func() time.Time {
		env.clock = env.clock.Add(time.Second)
		return env.clock
	}
	env.coprocessor, err = mock.New(db)
	require.NoError(t, err)
	env.ledger, err = ledger.New(
		db,
		env.coprocessor,
		ledger.WithOwner(env.owner),
		ledger.WithEventBus(env.bus),
		ledger.WithClock(clock),
	)
	require.NoError(t, err)
	env.coprocessor.SetACL(env.ledger)
	return env
}

func newAddress(t *testing.T) common.Address {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return crypto.PubkeyToAddress(key.PublicKey)
}

func (e *testEnv) createPath(t *testing.T, creator common.Address) uint64 {
	t.Helper()
	ctx := context.Background()
	input, err := e.coprocessor.Encrypt(ctx, e.ledger.ContractAddress(), creator, fhe.Uint32(3))
	require.NoError(t, err)
	id, err := e.ledger.CreatePath(ctx, creator, "QmPath", input.Handles[0], input.Proof)
	require.NoError(t, err)
	return id
}

func (e *testEnv) submit(t *testing.T, learner common.Address, pathID uint64) uint64 {
	t.Helper()
	ctx := context.Background()
	input, err := e.coprocessor.Encrypt(ctx, e.ledger.ContractAddress(), learner, fhe.Uint32(70))
	require.NoError(t, err)
	id, err := e.ledger.SubmitTask(ctx, learner, pathID, 1, "QmSub", input.Handles[0], input.Proof)
	require.NoError(t, err)
	return id
}

func (e *testEnv) review(t *testing.T, teacher common.Address, id uint64, decision ledger.Status) {
	t.Helper()
	ctx := context.Background()
	input, err := e.coprocessor.Encrypt(ctx, e.ledger.ContractAddress(), teacher, fhe.Uint32(80))
	require.NoError(t, err)
	require.NoError(t, e.ledger.VerifySubmission(ctx, teacher, id, decision, input.Handles[0], input.Proof))
}

func (e *testEnv) mint(t *testing.T, learner common.Address, pathID uint64) uint64 {
	t.Helper()
	ctx := context.Background()
	input, err := e.coprocessor.Encrypt(ctx, e.ledger.ContractAddress(), learner, fhe.Uint64(80))
	require.NoError(t, err)
	id, err := e.ledger.MintCertificate(ctx, learner, pathID, "QmCert", input.Handles[0], input.Proof)
	require.NoError(t, err)
	return id
}

func (e *testEnv) start(t *testing.T, opts ...indexer.IndexerOptionFunc) *indexer.Indexer {
	t.Helper()
	idx, err := indexer.New(e.ledger, e.bus, opts...)
	require.NoError(t, err)
	require.NoError(t, idx.Start(context.Background()))
	t.Cleanup(idx.Stop)
	return idx
}

func ids[T any](records []T, id func(T) uint64) []uint64 {
	ret := make([]uint64, 0, len(records))
	for _, r := range records {
		ret = append(ret, id(r))
	}
	return ret
}

func submissionID(s ledger.Submission) uint64 { return s.ID }

func TestNewValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := indexer.New(nil, env.bus)
	require.Error(t, err)
	_, err = indexer.New(env.ledger, nil)
	require.Error(t, err)
}

func TestStartLoadsExistingRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := newAddress(t)
	learner := newAddress(t)
	require.NoError(t, env.ledger.SetTeacherAuthorization(ctx, env.owner, teacher, true))
	pathID := env.createPath(t, newAddress(t))
	first := env.submit(t, learner, pathID)
	second := env.submit(t, learner, pathID)
	third := env.submit(t, newAddress(t), pathID)
	env.review(t, teacher, first, ledger.StatusApproved)
	env.mint(t, learner, pathID)

	idx := env.start(t)
	stats := idx.Stats()
	assert.Equal(t, indexer.Stats{
		Paths:               1,
		PendingSubmissions:  2,
		ReviewedSubmissions: 1,
		Certificates:        1,
		Teachers:            1,
	}, stats)
	assert.Equal(t, []uint64{third, second}, ids(idx.PendingSubmissions(), submissionID))
	assert.Equal(t, []uint64{first}, ids(idx.ReviewedSubmissions(), submissionID))
	assert.Equal(t, []uint64{first, second}, ids(idx.LearnerSubmissions(learner), submissionID))
	assert.Len(t, idx.Certificates(learner), 1)
	assert.Equal(t, []common.Address{teacher}, idx.Teachers())

	path, ok := idx.Path(pathID)
	require.True(t, ok)
	assert.True(t, path.Active)
	_, ok = idx.Path(pathID + 1)
	assert.False(t, ok)
}

func TestFollowsEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	idx := env.start(t, indexer.WithPromRegistry(registry))
	assert.Equal(t, indexer.Stats{}, idx.Stats())

	creator := newAddress(t)
	teacher := newAddress(t)
	learner := newAddress(t)
	pathID := env.createPath(t, creator)
	subID := env.submit(t, learner, pathID)
	testutil.WaitFor(t, func() bool {
		return len(idx.PendingSubmissions()) == 1
	}, "indexer caught up")

	require.NoError(t, env.ledger.SetTeacherAuthorization(ctx, env.owner, teacher, true))
	env.review(t, teacher, subID, ledger.StatusRejected)
	testutil.WaitFor(t, func() bool {
		return len(idx.ReviewedSubmissions()) == 1
	}, "indexer caught up")
	assert.Empty(t, idx.PendingSubmissions())
	sub, ok := idx.Submission(subID)
	require.True(t, ok)
	assert.Equal(t, ledger.StatusRejected, sub.Status)
	assert.Equal(t, teacher, sub.Verifier)

	require.NoError(t, env.ledger.SetPathActive(ctx, creator, pathID, false))
	require.NoError(t, env.ledger.SetTeacherAuthorization(ctx, env.owner, teacher, false))
	env.mint(t, learner, pathID)
	testutil.WaitFor(t, func() bool {
		return len(idx.Certificates(common.Address{})) == 1
	}, "indexer caught up")
	path, ok := idx.Path(pathID)
	require.True(t, ok)
	assert.False(t, path.Active)
	assert.Empty(t, idx.Teachers())
	assert.Empty(t, idx.Certificates(newAddress(t)))

	expected := `
# HELP indexer_reviewed_submissions indexed submissions that were approved or rejected
# TYPE indexer_reviewed_submissions gauge
indexer_reviewed_submissions 1
`
	require.NoError(t, promtestutil.GatherAndCompare(
		registry,
		strings.NewReader(expected),
		"indexer_reviewed_submissions",
	))
}

func TestStartTwice(t *testing.T) {
	env := newTestEnv(t)
	idx := env.start(t)
	require.ErrorIs(t, idx.Start(context.Background()), indexer.ErrAlreadyStarted)
}

func TestStartCanceled(t *testing.T) {
	env := newTestEnv(t)
	env.createPath(t, newAddress(t))
	idx, err := indexer.New(env.ledger, env.bus)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, idx.Start(ctx), context.Canceled)
	// A failed start leaves nothing subscribed
	env.createPath(t, newAddress(t))
	assert.Equal(t, indexer.Stats{}, idx.Stats())
}

func TestStopReleasesWorker(t *testing.T) {
	env := newTestEnv(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	idx, err := indexer.New(env.ledger, env.bus, indexer.WithQueueSize(1))
	require.NoError(t, err)
	require.NoError(t, idx.Start(context.Background()))
	pathID := env.createPath(t, newAddress(t))
	for range 5 {
		env.submit(t, newAddress(t), pathID)
	}
	idx.Stop()
	idx.Stop()
	// Writes after Stop don't block on the old queue
	env.createPath(t, newAddress(t))
}
