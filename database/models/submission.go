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

package models

import "fmt"

// SubmissionStatus is the review state of a submission
type SubmissionStatus uint8

const (
	SubmissionStatusPending  SubmissionStatus = 0
	SubmissionStatusApproved SubmissionStatus = 1
	SubmissionStatusRejected SubmissionStatus = 2
)

func (s SubmissionStatus) String() string {
	switch s {
	case SubmissionStatusPending:
		return "pending"
	case SubmissionStatusApproved:
		return "approved"
	case SubmissionStatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// IsTerminal reports whether no further transition is possible
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusRejected
}

type Submission struct {
	ContentRef     string           `gorm:"not null"`
	Learner        []byte           `gorm:"index;not null;size:20"`
	Verifier       []byte           `gorm:"size:20"`
	EncryptedScore []byte           `gorm:"not null;size:32"`
	ID             uint64           `gorm:"primarykey;autoIncrement:false"`
	PathID         uint64           `gorm:"index;not null"`
	TaskID         uint64           `gorm:"not null"`
	SubmittedAt    int64            `gorm:"not null"`
	ReviewedAt     int64            `gorm:"not null;default:0"`
	Status         SubmissionStatus `gorm:"index;not null;default:0"`
}

func (Submission) TableName() string {
	return "submission"
}

// SubmissionFilter narrows a submission query. Zero values match everything.
type SubmissionFilter struct {
	Learner  []byte
	Statuses []SubmissionStatus
	PathID   uint64
}
