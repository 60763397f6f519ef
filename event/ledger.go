// Copyright 2024 Blink Labs Software
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

package event

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger event types. Each is published once, after the change it
// describes has been committed.
const (
	PathCreatedEventType                 = EventType("ledger.path_created")
	PathStatusChangedEventType           = EventType("ledger.path_status_changed")
	SubmissionCreatedEventType           = EventType("ledger.submission_created")
	SubmissionVerifiedEventType          = EventType("ledger.submission_verified")
	CertificateMintedEventType           = EventType("ledger.certificate_minted")
	TeacherAuthorizationChangedEventType = EventType("ledger.teacher_authorization_changed")
)

// LedgerEventTypes lists every ledger event type in declaration order
var LedgerEventTypes = []EventType{
	PathCreatedEventType,
	PathStatusChangedEventType,
	SubmissionCreatedEventType,
	SubmissionVerifiedEventType,
	CertificateMintedEventType,
	TeacherAuthorizationChangedEventType,
}

type PathCreatedEvent struct {
	CreatedAt  time.Time
	ContentRef string
	PathID     uint64
	Creator    common.Address
}

type PathStatusChangedEvent struct {
	PathID uint64
	Active bool
}

type SubmissionCreatedEvent struct {
	SubmittedAt  time.Time
	ContentRef   string
	SubmissionID uint64
	PathID       uint64
	TaskID       uint64
	Learner      common.Address
}

// SubmissionVerifiedEvent carries the outcome of a review. Status holds the
// numeric submission status.
type SubmissionVerifiedEvent struct {
	ReviewedAt   time.Time
	SubmissionID uint64
	PathID       uint64
	Learner      common.Address
	Verifier     common.Address
	Status       uint8
}

type CertificateMintedEvent struct {
	MintedAt      time.Time
	ContentRef    string
	CertificateID uint64
	PathID        uint64
	Learner       common.Address
}

type TeacherAuthorizationChangedEvent struct {
	Teacher    common.Address
	Authorized bool
}
