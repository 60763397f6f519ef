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

package ledger

import (
	"log/slog"
	"time"

	"github.com/blinklabs-io/langjourney/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

type LedgerOptionFunc func(*Ledger)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) LedgerOptionFunc {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) LedgerOptionFunc {
	return func(l *Ledger) {
		l.promRegistry = registry
	}
}

// WithEventBus specifies the bus that receives ledger events
func WithEventBus(eventBus *event.EventBus) LedgerOptionFunc {
	return func(l *Ledger) {
		l.eventBus = eventBus
	}
}

// WithOwner specifies the privileged account that manages teacher
// authorization
func WithOwner(owner common.Address) LedgerOptionFunc {
	return func(l *Ledger) {
		l.owner = owner
	}
}

// WithContractAddress specifies the address that encrypted inputs are bound
// to. It defaults to the first contract address derived from the owner.
func WithContractAddress(addr common.Address) LedgerOptionFunc {
	return func(l *Ledger) {
		l.contractAddress = addr
	}
}

// WithClock specifies the time source for record timestamps
func WithClock(clock func() time.Time) LedgerOptionFunc {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// WithMaxTaskID rejects submissions with a task id above maxTaskID. Zero
// leaves task ids unchecked apart from requiring them to be positive.
func WithMaxTaskID(maxTaskID uint64) LedgerOptionFunc {
	return func(l *Ledger) {
		l.maxTaskID = maxTaskID
	}
}

// WithRequireApprovedSubmissions makes minting a certificate require that
// the caller has at least one submission on the path and that all of them
// are approved
func WithRequireApprovedSubmissions(require bool) LedgerOptionFunc {
	return func(l *Ledger) {
		l.requireApprovedSubmissions = require
	}
}
