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

// Package ledger holds the path, submission, certificate and teacher
// authorization registries. Every state change is serialized and committed
// in a single database transaction before its event is published.
package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/langjourney/database"
	"github.com/blinklabs-io/langjourney/event"
	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
)

type Ledger struct {
	db                         *database.Database
	verifier                   fhe.InputVerifier
	logger                     *slog.Logger
	eventBus                   *event.EventBus
	promRegistry               prometheus.Registerer
	clock                      func() time.Time
	metrics                    ledgerMetrics
	maxTaskID                  uint64
	writeMutex                 sync.Mutex
	pendingMutex               sync.Mutex
	pendingEvents              []event.Event
	publishing                 bool
	owner                      common.Address
	contractAddress            common.Address
	requireApprovedSubmissions bool
}

var _ fhe.ACL = (*Ledger)(nil)

// New creates a ledger over db. Input proofs are checked with verifier.
func New(
	db *database.Database,
	verifier fhe.InputVerifier,
	opts ...LedgerOptionFunc,
) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("ledger requires a database")
	}
	if verifier == nil {
		return nil, errors.New("ledger requires an input verifier")
	}
	l := &Ledger{
		db:       db,
		verifier: verifier,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.owner == (common.Address{}) {
		return nil, errors.New("ledger requires an owner")
	}
	if l.contractAddress == (common.Address{}) {
		l.contractAddress = crypto.CreateAddress(l.owner, 0)
	}
	if l.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	l.metrics.init(l.promRegistry)
	return l, nil
}

// Owner returns the account allowed to manage teacher authorization
func (l *Ledger) Owner() common.Address {
	return l.owner
}

// ContractAddress returns the address encrypted inputs must be bound to
func (l *Ledger) ContractAddress() common.Address {
	return l.contractAddress
}

func (l *Ledger) now() time.Time {
	return l.clock().UTC().Truncate(time.Second)
}

// write runs fn in a serialized read-write transaction. Events returned by fn
// are queued in commit order and published once the write lock is released,
// so a slow subscriber delays delivery but never the next write.
func (l *Ledger) write(
	ctx context.Context,
	op string,
	fn func(*database.Txn) ([]event.Event, error),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.writeMutex.Lock()
	var evts []event.Event
	err := l.db.Transaction(true).Do(func(txn *database.Txn) error {
		var err error
		evts, err = fn(txn)
		return err
	})
	if err != nil {
		l.writeMutex.Unlock()
		reason := rejectionReason(err)
		l.metrics.rejections.WithLabelValues(reason).Inc()
		l.logger.Debug(
			"rejected "+op,
			"component", "ledger",
			"reason", reason,
			"error", err,
		)
		return err
	}
	if l.eventBus != nil && len(evts) > 0 {
		// Enqueue before unlocking so the queue follows commit order
		l.pendingMutex.Lock()
		l.pendingEvents = append(l.pendingEvents, evts...)
		if !l.publishing {
			l.publishing = true
			go l.publishPending()
		}
		l.pendingMutex.Unlock()
	}
	l.writeMutex.Unlock()
	return nil
}

// publishPending drains the event queue in order and exits once it is empty
func (l *Ledger) publishPending() {
	l.pendingMutex.Lock()
	for len(l.pendingEvents) > 0 {
		batch := l.pendingEvents
		l.pendingEvents = nil
		l.pendingMutex.Unlock()
		for _, evt := range batch {
			l.eventBus.Publish(evt.Type, evt)
		}
		l.pendingMutex.Lock()
	}
	l.publishing = false
	l.pendingMutex.Unlock()
}
