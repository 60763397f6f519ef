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
	"time"

	"github.com/blinklabs-io/langjourney/database/models"
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/ethereum/go-ethereum/common"
)

// Status is the review state of a submission. Pending is the only
// non-terminal state.
type Status = models.SubmissionStatus

const (
	StatusPending  = models.SubmissionStatusPending
	StatusApproved = models.SubmissionStatusApproved
	StatusRejected = models.SubmissionStatusRejected
)

// Path is the public view of a path. The encrypted task count is only
// available through GetEncryptedTaskCount.
type Path struct {
	CreatedAt  time.Time
	ContentRef string
	ID         uint64
	Creator    common.Address
	Active     bool
}

type Submission struct {
	SubmittedAt time.Time
	// ReviewedAt is zero until the submission is reviewed
	ReviewedAt     time.Time
	ContentRef     string
	ID             uint64
	PathID         uint64
	TaskID         uint64
	EncryptedScore handle.Handle
	Learner        common.Address
	// Verifier is the zero address until the submission is reviewed
	Verifier common.Address
	Status   Status
}

type Certificate struct {
	MintedAt            time.Time
	ContentRef          string
	ID                  uint64
	PathID              uint64
	EncryptedFinalScore handle.Handle
	Learner             common.Address
}

type Teacher struct {
	UpdatedAt  time.Time
	Address    common.Address
	Authorized bool
}

// SubmissionFilter selects submissions. Zero values match everything.
type SubmissionFilter struct {
	Learner  *common.Address
	Statuses []Status
	PathID   uint64
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func handleFromBytes(b []byte) handle.Handle {
	var h handle.Handle
	copy(h[:], b)
	return h
}

func pathFromModel(m *models.Path) *Path {
	return &Path{
		ID:         m.ID,
		Creator:    common.BytesToAddress(m.Creator),
		ContentRef: m.ContentRef,
		Active:     m.Active,
		CreatedAt:  unixTime(m.CreatedAt),
	}
}

func submissionFromModel(m *models.Submission) *Submission {
	return &Submission{
		ID:             m.ID,
		PathID:         m.PathID,
		TaskID:         m.TaskID,
		Learner:        common.BytesToAddress(m.Learner),
		ContentRef:     m.ContentRef,
		Status:         m.Status,
		Verifier:       common.BytesToAddress(m.Verifier),
		EncryptedScore: handleFromBytes(m.EncryptedScore),
		SubmittedAt:    unixTime(m.SubmittedAt),
		ReviewedAt:     unixTime(m.ReviewedAt),
	}
}

func certificateFromModel(m *models.Certificate) *Certificate {
	return &Certificate{
		ID:                  m.ID,
		PathID:              m.PathID,
		Learner:             common.BytesToAddress(m.Learner),
		ContentRef:          m.ContentRef,
		EncryptedFinalScore: handleFromBytes(m.EncryptedFinalScore),
		MintedAt:            unixTime(m.MintedAt),
	}
}

func teacherFromModel(m *models.Teacher) *Teacher {
	return &Teacher{
		Address:    common.BytesToAddress(m.Address),
		Authorized: m.Authorized,
		UpdatedAt:  unixTime(m.ChangedAt),
	}
}
