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

// Package indexer keeps a read-side view of the ledger that is updated from
// ledger events. It answers the list queries a dashboard needs without
// scanning the database.
package indexer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/blinklabs-io/langjourney/event"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultQueueSize is the number of events buffered between the bus and the
// indexer worker
const DefaultQueueSize = 256

var ErrAlreadyStarted = errors.New("indexer already started")

// Source is the ledger read surface the indexer loads records from
type Source interface {
	GetPath(ctx context.Context, id uint64) (*ledger.Path, error)
	GetSubmission(ctx context.Context, id uint64) (*ledger.Submission, error)
	GetCertificate(ctx context.Context, id uint64) (*ledger.Certificate, error)
	NextPathID(ctx context.Context) (uint64, error)
	NextSubmissionID(ctx context.Context) (uint64, error)
	NextCertificateID(ctx context.Context) (uint64, error)
	ListTeachers(ctx context.Context) ([]*ledger.Teacher, error)
}

var _ Source = (*ledger.Ledger)(nil)

type Indexer struct {
	source       Source
	eventBus     *event.EventBus
	logger       *slog.Logger
	metrics      *indexerMetrics
	queue        chan event.Event
	doneCh       chan struct{}
	paths        map[uint64]ledger.Path
	submissions  map[uint64]ledger.Submission
	certificates map[uint64]ledger.Certificate
	teachers     map[common.Address]struct{}
	subIds       map[event.EventType]event.EventSubscriberId
	workerWg     sync.WaitGroup
	mutex        sync.RWMutex
	lifeMutex    sync.Mutex
	promRegistry prometheus.Registerer
	queueSize    int
	started      bool
}

// New creates an indexer. Nothing is loaded until Start is called.
func New(
	source Source,
	eventBus *event.EventBus,
	opts ...IndexerOptionFunc,
) (*Indexer, error) {
	if source == nil {
		return nil, errors.New("indexer requires a source")
	}
	if eventBus == nil {
		return nil, errors.New("indexer requires an event bus")
	}
	i := &Indexer{
		source:    source,
		eventBus:  eventBus,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		i.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	i.metrics = newIndexerMetrics(i.promRegistry)
	i.reset()
	return i, nil
}

func (i *Indexer) reset() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.paths = make(map[uint64]ledger.Path)
	i.submissions = make(map[uint64]ledger.Submission)
	i.certificates = make(map[uint64]ledger.Certificate)
	i.teachers = make(map[common.Address]struct{})
}

// Start subscribes to ledger events and loads every existing record. Events
// that arrive during the load are held and applied afterwards. Applying an
// event reloads the record it names, so overlap with the load is harmless.
func (i *Indexer) Start(ctx context.Context) error {
	i.lifeMutex.Lock()
	defer i.lifeMutex.Unlock()
	if i.started {
		return ErrAlreadyStarted
	}
	i.reset()
	i.queue = make(chan event.Event, i.queueSize)
	i.doneCh = make(chan struct{})
	i.subIds = make(map[event.EventType]event.EventSubscriberId)
	sub := &queueSubscriber{queue: i.queue, doneCh: i.doneCh}
	for _, evtType := range event.LedgerEventTypes {
		i.subIds[evtType] = i.eventBus.RegisterSubscriber(evtType, sub)
	}
	if err := i.scan(ctx); err != nil {
		i.unsubscribe()
		close(i.doneCh)
		return fmt.Errorf("initial scan: %w", err)
	}
	stats := i.Stats()
	i.logger.Info(
		"indexer started",
		"component", "indexer",
		"paths", stats.Paths,
		"pending_submissions", stats.PendingSubmissions,
		"reviewed_submissions", stats.ReviewedSubmissions,
		"certificates", stats.Certificates,
	)
	i.workerWg.Add(1)
	go i.worker()
	i.started = true
	return nil
}

// Stop unsubscribes from the event bus and waits for the worker to exit.
// Events not yet applied are dropped.
func (i *Indexer) Stop() {
	i.lifeMutex.Lock()
	defer i.lifeMutex.Unlock()
	if !i.started {
		return
	}
	i.unsubscribe()
	close(i.doneCh)
	i.workerWg.Wait()
	i.started = false
	i.logger.Debug("indexer stopped", "component", "indexer")
}

func (i *Indexer) unsubscribe() {
	for evtType, subId := range i.subIds {
		i.eventBus.Unsubscribe(evtType, subId)
	}
	i.subIds = nil
}

// scan walks every assigned id through the source
func (i *Indexer) scan(ctx context.Context) error {
	nextPath, err := i.source.NextPathID(ctx)
	if err != nil {
		return err
	}
	for id := uint64(1); id < nextPath; id++ {
		if err := i.loadPath(ctx, id); err != nil {
			return err
		}
	}
	nextSub, err := i.source.NextSubmissionID(ctx)
	if err != nil {
		return err
	}
	for id := uint64(1); id < nextSub; id++ {
		if err := i.loadSubmission(ctx, id); err != nil {
			return err
		}
	}
	nextCert, err := i.source.NextCertificateID(ctx)
	if err != nil {
		return err
	}
	for id := uint64(1); id < nextCert; id++ {
		if err := i.loadCertificate(ctx, id); err != nil {
			return err
		}
	}
	teachers, err := i.source.ListTeachers(ctx)
	if err != nil {
		return err
	}
	i.mutex.Lock()
	for _, t := range teachers {
		if t.Authorized {
			i.teachers[t.Address] = struct{}{}
		}
	}
	i.mutex.Unlock()
	i.updateMetrics()
	return nil
}

func (i *Indexer) worker() {
	defer i.workerWg.Done()
	// Loads run until Stop, independent of the context given to Start
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-i.doneCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	for {
		select {
		case <-i.doneCh:
			return
		case evt := <-i.queue:
			if err := i.apply(ctx, evt); err != nil {
				if ctx.Err() != nil {
					return
				}
				i.metrics.applyErrors.Inc()
				i.logger.Error(
					"failed to apply ledger event",
					"component", "indexer",
					"type", evt.Type,
					"error", err,
				)
			}
		}
	}
}

func (i *Indexer) apply(ctx context.Context, evt event.Event) error {
	var err error
	switch e := evt.Data.(type) {
	case event.PathCreatedEvent:
		err = i.loadPath(ctx, e.PathID)
	case event.PathStatusChangedEvent:
		err = i.loadPath(ctx, e.PathID)
	case event.SubmissionCreatedEvent:
		err = i.loadSubmission(ctx, e.SubmissionID)
	case event.SubmissionVerifiedEvent:
		err = i.loadSubmission(ctx, e.SubmissionID)
	case event.CertificateMintedEvent:
		err = i.loadCertificate(ctx, e.CertificateID)
	case event.TeacherAuthorizationChangedEvent:
		i.mutex.Lock()
		if e.Authorized {
			i.teachers[e.Teacher] = struct{}{}
		} else {
			delete(i.teachers, e.Teacher)
		}
		i.mutex.Unlock()
	default:
		return fmt.Errorf("unexpected event data %T", evt.Data)
	}
	if err != nil {
		return err
	}
	i.metrics.eventsApplied.WithLabelValues(string(evt.Type)).Inc()
	i.updateMetrics()
	return nil
}

func (i *Indexer) loadPath(ctx context.Context, id uint64) error {
	path, err := i.source.GetPath(ctx, id)
	if err != nil {
		return err
	}
	i.mutex.Lock()
	i.paths[id] = *path
	i.mutex.Unlock()
	return nil
}

func (i *Indexer) loadSubmission(ctx context.Context, id uint64) error {
	sub, err := i.source.GetSubmission(ctx, id)
	if err != nil {
		return err
	}
	i.mutex.Lock()
	i.submissions[id] = *sub
	i.mutex.Unlock()
	return nil
}

func (i *Indexer) loadCertificate(ctx context.Context, id uint64) error {
	cert, err := i.source.GetCertificate(ctx, id)
	if err != nil {
		return err
	}
	i.mutex.Lock()
	i.certificates[id] = *cert
	i.mutex.Unlock()
	return nil
}

func (i *Indexer) updateMetrics() {
	stats := i.Stats()
	i.metrics.paths.Set(float64(stats.Paths))
	i.metrics.pendingSubmissions.Set(float64(stats.PendingSubmissions))
	i.metrics.reviewedSubmissions.Set(float64(stats.ReviewedSubmissions))
	i.metrics.certificates.Set(float64(stats.Certificates))
}

// queueSubscriber feeds every ledger event type into the indexer queue
type queueSubscriber struct {
	queue  chan<- event.Event
	doneCh <-chan struct{}
}

func (q *queueSubscriber) Deliver(evt event.Event) error {
	select {
	case q.queue <- evt:
	case <-q.doneCh:
	}
	return nil
}

func (q *queueSubscriber) Close() {}

// Stats is a snapshot of the indexed record counts
type Stats struct {
	Paths               int
	PendingSubmissions  int
	ReviewedSubmissions int
	Certificates        int
	Teachers            int
}

func (i *Indexer) Stats() Stats {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	ret := Stats{
		Paths:        len(i.paths),
		Certificates: len(i.certificates),
		Teachers:     len(i.teachers),
	}
	for _, sub := range i.submissions {
		if sub.Status == ledger.StatusPending {
			ret.PendingSubmissions++
		} else {
			ret.ReviewedSubmissions++
		}
	}
	return ret
}

// Paths returns every path in id order
func (i *Indexer) Paths() []ledger.Path {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	ret := make([]ledger.Path, 0, len(i.paths))
	for _, path := range i.paths {
		ret = append(ret, path)
	}
	slices.SortFunc(ret, func(a, b ledger.Path) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return ret
}

func (i *Indexer) Path(id uint64) (ledger.Path, bool) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	path, ok := i.paths[id]
	return path, ok
}

func (i *Indexer) Submission(id uint64) (ledger.Submission, bool) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	sub, ok := i.submissions[id]
	return sub, ok
}

// PendingSubmissions returns the submissions awaiting review, newest first
func (i *Indexer) PendingSubmissions() []ledger.Submission {
	ret := i.filterSubmissions(func(s *ledger.Submission) bool {
		return s.Status == ledger.StatusPending
	})
	slices.SortFunc(ret, func(a, b ledger.Submission) int {
		if c := b.SubmittedAt.Compare(a.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return ret
}

// ReviewedSubmissions returns approved and rejected submissions, most
// recently reviewed first
func (i *Indexer) ReviewedSubmissions() []ledger.Submission {
	ret := i.filterSubmissions(func(s *ledger.Submission) bool {
		return s.Status.IsTerminal()
	})
	slices.SortFunc(ret, func(a, b ledger.Submission) int {
		if c := b.ReviewedAt.Compare(a.ReviewedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return ret
}

// LearnerSubmissions returns the submissions of learner in id order
func (i *Indexer) LearnerSubmissions(learner common.Address) []ledger.Submission {
	ret := i.filterSubmissions(func(s *ledger.Submission) bool {
		return s.Learner == learner
	})
	slices.SortFunc(ret, func(a, b ledger.Submission) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return ret
}

func (i *Indexer) filterSubmissions(
	match func(*ledger.Submission) bool,
) []ledger.Submission {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	var ret []ledger.Submission
	for _, sub := range i.submissions {
		if match(&sub) {
			ret = append(ret, sub)
		}
	}
	return ret
}

// Certificates returns the certificates held by learner in id order. The
// zero address returns every certificate.
func (i *Indexer) Certificates(learner common.Address) []ledger.Certificate {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	var ret []ledger.Certificate
	for _, cert := range i.certificates {
		if learner != (common.Address{}) && cert.Learner != learner {
			continue
		}
		ret = append(ret, cert)
	}
	slices.SortFunc(ret, func(a, b ledger.Certificate) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return ret
}

// Teachers returns the authorized teachers in address order
func (i *Indexer) Teachers() []common.Address {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	ret := make([]common.Address, 0, len(i.teachers))
	for addr := range i.teachers {
		ret = append(ret, addr)
	}
	slices.SortFunc(ret, func(a, b common.Address) int {
		return a.Cmp(b)
	})
	return ret
}
