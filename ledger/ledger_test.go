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

package ledger_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/event"
	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/blinklabs-io/langjourney/fhe/mock"
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testNow = time.Unix(1760000000, 0).UTC()

type account struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newAccount(t *testing.T) account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

type testEnv struct {
	ledger      *ledger.Ledger
	coprocessor *mock.Coprocessor
	bus         *event.EventBus
	registry    *prometheus.Registry
	owner       account
}

func newTestEnv(t *testing.T, opts ...ledger.LedgerOptionFunc) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	clock := func() time.Time { return testNow }
	coprocessor, err := mock.New(db, mock.WithClock(clock))
	require.NoError(t, err)
	env := &testEnv{
		coprocessor: coprocessor,
		bus:         event.NewEventBus(nil, nil),
		registry:    prometheus.NewRegistry(),
		owner:       newAccount(t),
	}
	t.Cleanup(env.bus.Stop)
	allOpts := append(
		[]ledger.LedgerOptionFunc{
			ledger.WithOwner(env.owner.addr),
			ledger.WithEventBus(env.bus),
			ledger.WithPromRegistry(env.registry),
			ledger.WithClock(clock),
		},
		opts...,
	)
	env.ledger, err = ledger.New(db, coprocessor, allOpts...)
	require.NoError(t, err)
	coprocessor.SetACL(env.ledger)
	return env
}

// encrypt returns a handle and proof for value bound to the ledger contract
// and from
func (e *testEnv) encrypt(
	t *testing.T,
	from common.Address,
	value fhe.Value,
) (handle.Handle, []byte) {
	t.Helper()
	input, err := e.coprocessor.Encrypt(
		context.Background(),
		e.ledger.ContractAddress(),
		from,
		value,
	)
	require.NoError(t, err)
	require.Len(t, input.Handles, 1)
	return input.Handles[0], input.Proof
}

// decrypt recovers the plaintext of h as seen by user
func (e *testEnv) decrypt(t *testing.T, user account, h handle.Handle) (uint64, error) {
	t.Helper()
	keyPair, err := e.coprocessor.GenerateKeypair()
	require.NoError(t, err)
	contracts := []common.Address{e.ledger.ContractAddress()}
	start := testNow.Unix()
	typedData, err := e.coprocessor.CreateEIP712(fhe.GrantRequest{
		PublicKey:         keyPair.PublicKey,
		ContractAddresses: contracts,
		StartTimestamp:    start,
		DurationDays:      1,
	})
	require.NoError(t, err)
	hash, err := fhe.TypedDataHash(typedData)
	require.NoError(t, err)
	sig, err := crypto.Sign(hash, user.key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	ret, err := e.coprocessor.UserDecrypt(context.Background(), fhe.UserDecryptRequest{
		Pairs: []fhe.HandleContractPair{
			{Handle: h, ContractAddress: e.ledger.ContractAddress()},
		},
		PrivateKey:        keyPair.PrivateKey,
		PublicKey:         keyPair.PublicKey,
		Signature:         sig,
		ContractAddresses: contracts,
		UserAddress:       user.addr,
		StartTimestamp:    start,
		DurationDays:      1,
	})
	if err != nil {
		return 0, err
	}
	return ret[h], nil
}

func (e *testEnv) createPath(t *testing.T, creator account, contentRef string, tasks uint32) uint64 {
	t.Helper()
	h, proof := e.encrypt(t, creator.addr, fhe.Uint32(tasks))
	id, err := e.ledger.CreatePath(context.Background(), creator.addr, contentRef, h, proof)
	require.NoError(t, err)
	return id
}

func (e *testEnv) submit(t *testing.T, learner account, pathID uint64, taskID uint64, score uint32) uint64 {
	t.Helper()
	h, proof := e.encrypt(t, learner.addr, fhe.Uint32(score))
	id, err := e.ledger.SubmitTask(
		context.Background(),
		learner.addr,
		pathID,
		taskID,
		"QmSub",
		h,
		proof,
	)
	require.NoError(t, err)
	return id
}

func (e *testEnv) authorize(t *testing.T, teacher account) {
	t.Helper()
	require.NoError(t, e.ledger.SetTeacherAuthorization(
		context.Background(),
		e.owner.addr,
		teacher.addr,
		true,
	))
}

func TestNewRequiresOwner(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close()
	coprocessor, err := mock.New(db)
	require.NoError(t, err)
	_, err = ledger.New(db, coprocessor)
	require.Error(t, err)
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	l, err := ledger.New(db, coprocessor, ledger.WithOwner(owner))
	require.NoError(t, err)
	assert.Equal(t, owner, l.Owner())
	assert.Equal(t, crypto.CreateAddress(owner, 0), l.ContractAddress())
}

func TestReviewScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := newAccount(t)
	learner := newAccount(t)
	teacher := newAccount(t)

	pathID := env.createPath(t, creator, "QmPath1", 5)
	assert.Equal(t, uint64(1), pathID)
	path, err := env.ledger.GetPath(ctx, pathID)
	require.NoError(t, err)
	assert.Equal(t, creator.addr, path.Creator)
	assert.Equal(t, "QmPath1", path.ContentRef)
	assert.True(t, path.Active)
	assert.Equal(t, testNow, path.CreatedAt)

	taskCount, err := env.ledger.GetEncryptedTaskCount(ctx, pathID)
	require.NoError(t, err)
	tasks, err := env.decrypt(t, creator, taskCount)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), tasks)

	selfScore, proof := env.encrypt(t, learner.addr, fhe.Uint32(85))
	subID, err := env.ledger.SubmitTask(ctx, learner.addr, pathID, 1, "QmSub1", selfScore, proof)
	require.NoError(t, err)
	sub, err := env.ledger.GetSubmission(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, sub.Status)
	assert.Equal(t, learner.addr, sub.Learner)
	assert.Equal(t, common.Address{}, sub.Verifier)
	assert.True(t, sub.ReviewedAt.IsZero())
	assert.Equal(t, selfScore, sub.EncryptedScore)

	env.authorize(t, teacher)
	revised, proof := env.encrypt(t, teacher.addr, fhe.Uint32(90))
	require.NoError(t, env.ledger.VerifySubmission(
		ctx,
		teacher.addr,
		subID,
		ledger.StatusApproved,
		revised,
		proof,
	))

	sub, err = env.ledger.GetSubmission(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusApproved, sub.Status)
	assert.Equal(t, teacher.addr, sub.Verifier)
	assert.Equal(t, revised, sub.EncryptedScore)
	assert.Equal(t, testNow, sub.ReviewedAt)

	score, err := env.ledger.GetSubmissionEncryptedScore(ctx, subID)
	require.NoError(t, err)
	for _, viewer := range []account{learner, teacher} {
		plain, err := env.decrypt(t, viewer, score)
		require.NoError(t, err)
		assert.Equal(t, uint64(90), plain)
	}
	// Nobody else holds a grant for the revised score
	_, err = env.decrypt(t, newAccount(t), score)
	require.ErrorIs(t, err, fhe.ErrAuthorizationMismatch)
}

func TestVerifySubmissionUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	learner := newAccount(t)
	stranger := newAccount(t)
	pathID := env.createPath(t, newAccount(t), "QmPath", 3)
	subID := env.submit(t, learner, pathID, 1, 70)

	h, proof := env.encrypt(t, stranger.addr, fhe.Uint32(10))
	err := env.ledger.VerifySubmission(ctx, stranger.addr, subID, ledger.StatusRejected, h, proof)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	sub, err := env.ledger.GetSubmission(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, sub.Status)
	assert.Equal(t, common.Address{}, sub.Verifier)
}

func TestVerifySubmissionAlreadyReviewed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := newAccount(t)
	env.authorize(t, teacher)
	pathID := env.createPath(t, newAccount(t), "QmPath", 3)
	subID := env.submit(t, newAccount(t), pathID, 1, 70)

	h, proof := env.encrypt(t, teacher.addr, fhe.Uint32(75))
	require.NoError(t, env.ledger.VerifySubmission(ctx, teacher.addr, subID, ledger.StatusRejected, h, proof))
	h2, proof2 := env.encrypt(t, teacher.addr, fhe.Uint32(95))
	err := env.ledger.VerifySubmission(ctx, teacher.addr, subID, ledger.StatusApproved, h2, proof2)
	require.ErrorIs(t, err, ledger.ErrAlreadyReviewed)

	sub, err := env.ledger.GetSubmission(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusRejected, sub.Status)
	assert.Equal(t, h, sub.EncryptedScore)
}

func TestVerifySubmissionChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := newAccount(t)
	env.authorize(t, teacher)
	pathID := env.createPath(t, newAccount(t), "QmPath", 3)
	learner := newAccount(t)
	subID := env.submit(t, learner, pathID, 1, 70)
	h, proof := env.encrypt(t, teacher.addr, fhe.Uint32(80))

	err := env.ledger.VerifySubmission(ctx, teacher.addr, 99, ledger.StatusApproved, h, proof)
	require.ErrorIs(t, err, ledger.ErrNotFound)
	var nf *ledger.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, ledger.KindSubmission, nf.Kind)
	assert.Equal(t, uint64(99), nf.ID)

	err = env.ledger.VerifySubmission(ctx, teacher.addr, subID, ledger.StatusPending, h, proof)
	require.ErrorIs(t, err, ledger.ErrInvalidStatus)
	err = env.ledger.VerifySubmission(ctx, teacher.addr, subID, ledger.Status(7), h, proof)
	require.ErrorIs(t, err, ledger.ErrInvalidStatus)

	// A proof issued to the learner can't be replayed by the teacher
	learnerHandle, learnerProof := env.encrypt(t, learner.addr, fhe.Uint32(100))
	err = env.ledger.VerifySubmission(ctx, teacher.addr, subID, ledger.StatusApproved, learnerHandle, learnerProof)
	require.ErrorIs(t, err, fhe.ErrInvalidProof)
	assert.False(t, errors.Is(err, ledger.ErrUnauthorized))

	sub, err := env.ledger.GetSubmission(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, sub.Status)
}

func TestConcurrentVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teachers := []account{newAccount(t), newAccount(t)}
	for _, teacher := range teachers {
		env.authorize(t, teacher)
	}
	pathID := env.createPath(t, newAccount(t), "QmPath", 3)
	subID := env.submit(t, newAccount(t), pathID, 1, 60)

	handles := make([]handle.Handle, len(teachers))
	proofs := make([][]byte, len(teachers))
	for i, teacher := range teachers {
		handles[i], proofs[i] = env.encrypt(t, teacher.addr, fhe.Uint32(uint32(70+i)))
	}
	var winner atomic.Int64
	winner.Store(-1)
	var alreadyReviewed atomic.Int32
	var g errgroup.Group
	for i, teacher := range teachers {
		g.Go(func() error {
			err := env.ledger.VerifySubmission(ctx, teacher.addr, subID, ledger.StatusApproved, handles[i], proofs[i])
			switch {
			case err == nil:
				winner.Store(int64(i))
				return nil
			case errors.Is(err, ledger.ErrAlreadyReviewed):
				alreadyReviewed.Add(1)
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), alreadyReviewed.Load())
	w := winner.Load()
	require.GreaterOrEqual(t, w, int64(0))

	sub, err := env.ledger.GetSubmission(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, teachers[w].addr, sub.Verifier)
	assert.Equal(t, handles[w], sub.EncryptedScore)
}

func TestSubmitTask(t *testing.T) {
	env := newTestEnv(t, ledger.WithMaxTaskID(5))
	ctx := context.Background()
	creator := newAccount(t)
	learner := newAccount(t)
	pathID := env.createPath(t, creator, "QmPath", 5)

	h, proof := env.encrypt(t, learner.addr, fhe.Uint32(50))
	_, err := env.ledger.SubmitTask(ctx, learner.addr, 42, 1, "QmSub", h, proof)
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = env.ledger.SubmitTask(ctx, learner.addr, pathID, 0, "QmSub", h, proof)
	require.ErrorIs(t, err, ledger.ErrTaskOutOfRange)
	_, err = env.ledger.SubmitTask(ctx, learner.addr, pathID, 6, "QmSub", h, proof)
	require.ErrorIs(t, err, ledger.ErrTaskOutOfRange)

	// Score must be a euint32
	wide, wideProof := env.encrypt(t, learner.addr, fhe.Uint64(50))
	_, err = env.ledger.SubmitTask(ctx, learner.addr, pathID, 1, "QmSub", wide, wideProof)
	require.ErrorIs(t, err, fhe.ErrInvalidProof)

	// Proof bound to a different sender
	_, err = env.ledger.SubmitTask(ctx, creator.addr, pathID, 1, "QmSub", h, proof)
	require.ErrorIs(t, err, fhe.ErrInvalidProof)

	next, err := env.ledger.NextSubmissionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)

	id, err := env.ledger.SubmitTask(ctx, learner.addr, pathID, 5, "QmSub", h, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	require.NoError(t, env.ledger.SetPathActive(ctx, creator.addr, pathID, false))
	h2, proof2 := env.encrypt(t, learner.addr, fhe.Uint32(60))
	_, err = env.ledger.SubmitTask(ctx, learner.addr, pathID, 2, "QmSub", h2, proof2)
	require.ErrorIs(t, err, ledger.ErrInactivePath)
}

func TestCreatePathIds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := newAccount(t)
	var last uint64
	for i := range 3 {
		id := env.createPath(t, creator, "QmPath", uint32(i+1))
		assert.Greater(t, id, last)
		last = id
	}
	next, err := env.ledger.NextPathID(ctx)
	require.NoError(t, err)
	assert.Equal(t, last+1, next)

	// A rejected create does not consume an id
	h, proof := env.encrypt(t, creator.addr, fhe.Uint32(1))
	_, err = env.ledger.CreatePath(ctx, newAccount(t).addr, "QmPath", h, proof)
	require.ErrorIs(t, err, fhe.ErrInvalidProof)
	next, err = env.ledger.NextPathID(ctx)
	require.NoError(t, err)
	assert.Equal(t, last+1, next)

	paths, err := env.ledger.ListPaths(ctx)
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	_, err = env.ledger.GetPath(ctx, 0)
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = env.ledger.GetEncryptedTaskCount(ctx, 99)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSetPathActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := newAccount(t)
	pathID := env.createPath(t, creator, "QmPath", 2)
	_, ch := env.bus.Subscribe(event.PathStatusChangedEventType)

	err := env.ledger.SetPathActive(ctx, newAccount(t).addr, pathID, false)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)
	err = env.ledger.SetPathActive(ctx, creator.addr, 9, false)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	require.NoError(t, env.ledger.SetPathActive(ctx, creator.addr, pathID, false))
	// No change, no event
	require.NoError(t, env.ledger.SetPathActive(ctx, creator.addr, pathID, false))
	require.NoError(t, env.ledger.SetPathActive(ctx, env.owner.addr, pathID, true))

	for _, expected := range []bool{false, true} {
		select {
		case evt := <-ch:
			data, ok := evt.Data.(event.PathStatusChangedEvent)
			require.True(t, ok)
			assert.Equal(t, pathID, data.PathID)
			assert.Equal(t, expected, data.Active)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event: %+v", evt)
	default:
	}
}

func TestSlowSubscriberDoesNotBlockWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := newAccount(t)
	pathID := env.createPath(t, creator, "QmPath", 2)
	// Left unread until every write has returned
	_, ch := env.bus.Subscribe(event.PathStatusChangedEventType)

	writes := event.EventQueueSize * 2
	done := make(chan error, 1)
	go func() {
		for i := range writes {
			if err := env.ledger.SetPathActive(ctx, creator.addr, pathID, i%2 == 1); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("writes stalled behind a full subscriber")
	}
	path, err := env.ledger.GetPath(ctx, pathID)
	require.NoError(t, err)
	assert.True(t, path.Active)

	for i := range writes {
		select {
		case evt := <-ch:
			data, ok := evt.Data.(event.PathStatusChangedEvent)
			require.True(t, ok)
			assert.Equal(t, i%2 == 1, data.Active, "event %d out of order", i)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestMintCertificate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	learner := newAccount(t)
	pathID := env.createPath(t, newAccount(t), "QmPath", 2)

	h, proof := env.encrypt(t, learner.addr, fhe.Uint64(180))
	_, err := env.ledger.MintCertificate(ctx, learner.addr, 5, "QmCert", h, proof)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	narrow, narrowProof := env.encrypt(t, learner.addr, fhe.Uint32(180))
	_, err = env.ledger.MintCertificate(ctx, learner.addr, pathID, "QmCert", narrow, narrowProof)
	require.ErrorIs(t, err, fhe.ErrInvalidProof)

	// Minting is ungated by default
	certID, err := env.ledger.MintCertificate(ctx, learner.addr, pathID, "QmCert", h, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), certID)

	cert, err := env.ledger.GetCertificate(ctx, certID)
	require.NoError(t, err)
	assert.Equal(t, learner.addr, cert.Learner)
	assert.Equal(t, pathID, cert.PathID)
	assert.Equal(t, testNow, cert.MintedAt)
	score, err := env.ledger.GetCertificateEncryptedScore(ctx, certID)
	require.NoError(t, err)
	plain, err := env.decrypt(t, learner, score)
	require.NoError(t, err)
	assert.Equal(t, uint64(180), plain)

	certs, err := env.ledger.ListCertificates(ctx, learner.addr)
	require.NoError(t, err)
	assert.Len(t, certs, 1)
	certs, err = env.ledger.ListCertificates(ctx, newAccount(t).addr)
	require.NoError(t, err)
	assert.Empty(t, certs)

	_, err = env.ledger.GetCertificate(ctx, 2)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMintCertificateRequiresApproved(t *testing.T) {
	env := newTestEnv(t, ledger.WithRequireApprovedSubmissions(true))
	ctx := context.Background()
	learner := newAccount(t)
	teacher := newAccount(t)
	env.authorize(t, teacher)
	pathID := env.createPath(t, newAccount(t), "QmPath", 2)

	mint := func() error {
		h, proof := env.encrypt(t, learner.addr, fhe.Uint64(150))
		_, err := env.ledger.MintCertificate(ctx, learner.addr, pathID, "QmCert", h, proof)
		return err
	}
	require.ErrorIs(t, mint(), ledger.ErrIncompleteSubmissions)

	first := env.submit(t, learner, pathID, 1, 70)
	second := env.submit(t, learner, pathID, 2, 80)
	review := func(id uint64) {
		h, proof := env.encrypt(t, teacher.addr, fhe.Uint32(85))
		require.NoError(t, env.ledger.VerifySubmission(ctx, teacher.addr, id, ledger.StatusApproved, h, proof))
	}
	review(first)
	require.ErrorIs(t, mint(), ledger.ErrIncompleteSubmissions)
	review(second)
	require.NoError(t, mint())
}

func TestTeacherAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := newAccount(t)
	_, ch := env.bus.Subscribe(event.TeacherAuthorizationChangedEventType)

	ok, err := env.ledger.IsAuthorizedTeacher(ctx, teacher.addr)
	require.NoError(t, err)
	assert.False(t, ok)

	err = env.ledger.SetTeacherAuthorization(ctx, teacher.addr, teacher.addr, true)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	env.authorize(t, teacher)
	env.authorize(t, teacher)
	ok, err = env.ledger.IsAuthorizedTeacher(ctx, teacher.addr)
	require.NoError(t, err)
	assert.True(t, ok)

	teachers, err := env.ledger.ListTeachers(ctx)
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, teacher.addr, teachers[0].Address)

	require.NoError(t, env.ledger.SetTeacherAuthorization(ctx, env.owner.addr, teacher.addr, false))
	ok, err = env.ledger.IsAuthorizedTeacher(ctx, teacher.addr)
	require.NoError(t, err)
	assert.False(t, ok)

	// Two changes, the repeated grant emitted nothing
	for _, expected := range []bool{true, false} {
		select {
		case evt := <-ch:
			data, ok := evt.Data.(event.TeacherAuthorizationChangedEvent)
			require.True(t, ok)
			assert.Equal(t, teacher.addr, data.Teacher)
			assert.Equal(t, expected, data.Authorized)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event: %+v", evt)
	default:
	}
}

func TestListSubmissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := newAccount(t)
	env.authorize(t, teacher)
	learnerA := newAccount(t)
	learnerB := newAccount(t)
	pathOne := env.createPath(t, newAccount(t), "QmOne", 2)
	pathTwo := env.createPath(t, newAccount(t), "QmTwo", 2)
	env.submit(t, learnerA, pathOne, 1, 50)
	second := env.submit(t, learnerB, pathOne, 1, 60)
	env.submit(t, learnerA, pathTwo, 1, 70)
	h, proof := env.encrypt(t, teacher.addr, fhe.Uint32(65))
	require.NoError(t, env.ledger.VerifySubmission(ctx, teacher.addr, second, ledger.StatusApproved, h, proof))

	subs, err := env.ledger.ListSubmissions(ctx, ledger.SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, subs, 3)

	subs, err = env.ledger.ListSubmissions(ctx, ledger.SubmissionFilter{Learner: &learnerA.addr})
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	subs, err = env.ledger.ListSubmissions(ctx, ledger.SubmissionFilter{
		PathID:   pathOne,
		Statuses: []ledger.Status{ledger.StatusPending},
	})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, learnerA.addr, subs[0].Learner)
}

func TestEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, pathCh := env.bus.Subscribe(event.PathCreatedEventType)
	_, subCh := env.bus.Subscribe(event.SubmissionCreatedEventType)
	_, verifiedCh := env.bus.Subscribe(event.SubmissionVerifiedEventType)
	_, certCh := env.bus.Subscribe(event.CertificateMintedEventType)
	creator := newAccount(t)
	learner := newAccount(t)
	teacher := newAccount(t)
	env.authorize(t, teacher)

	pathID := env.createPath(t, creator, "QmPath", 1)
	subID := env.submit(t, learner, pathID, 1, 40)
	h, proof := env.encrypt(t, teacher.addr, fhe.Uint32(45))
	require.NoError(t, env.ledger.VerifySubmission(ctx, teacher.addr, subID, ledger.StatusRejected, h, proof))
	fh, fproof := env.encrypt(t, learner.addr, fhe.Uint64(45))
	certID, err := env.ledger.MintCertificate(ctx, learner.addr, pathID, "QmCert", fh, fproof)
	require.NoError(t, err)

	receive := func(ch <-chan event.Event) event.Event {
		select {
		case evt := <-ch:
			return evt
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
		return event.Event{}
	}
	pathEvt, ok := receive(pathCh).Data.(event.PathCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, pathID, pathEvt.PathID)
	assert.Equal(t, creator.addr, pathEvt.Creator)

	subEvt, ok := receive(subCh).Data.(event.SubmissionCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, subID, subEvt.SubmissionID)
	assert.Equal(t, learner.addr, subEvt.Learner)

	verifiedEvt, ok := receive(verifiedCh).Data.(event.SubmissionVerifiedEvent)
	require.True(t, ok)
	assert.Equal(t, subID, verifiedEvt.SubmissionID)
	assert.Equal(t, teacher.addr, verifiedEvt.Verifier)
	assert.Equal(t, learner.addr, verifiedEvt.Learner)
	assert.Equal(t, uint8(ledger.StatusRejected), verifiedEvt.Status)

	certEvt, ok := receive(certCh).Data.(event.CertificateMintedEvent)
	require.True(t, ok)
	assert.Equal(t, certID, certEvt.CertificateID)
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := newAccount(t)
	env.createPath(t, creator, "QmPath", 1)
	_, err := env.ledger.GetPath(ctx, 1)
	require.NoError(t, err)
	err = env.ledger.SetTeacherAuthorization(ctx, creator.addr, creator.addr, true)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	expected := `
# HELP ledger_paths_created_total total paths created
# TYPE ledger_paths_created_total counter
ledger_paths_created_total 1
# HELP ledger_rejections_total state-changing calls rejected, by reason
# TYPE ledger_rejections_total counter
ledger_rejections_total{reason="unauthorized"} 1
`
	require.NoError(t, testutil.GatherAndCompare(
		env.registry,
		strings.NewReader(expected),
		"ledger_paths_created_total",
		"ledger_rejections_total",
	))
}

func TestCanceledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	creator := newAccount(t)
	h, proof := env.encrypt(t, creator.addr, fhe.Uint32(1))
	_, err := env.ledger.CreatePath(ctx, creator.addr, "QmPath", h, proof)
	require.ErrorIs(t, err, context.Canceled)
	next, err := env.ledger.NextPathID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
}
