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
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidStatus is returned for a review decision other than Approved
	// or Rejected
	ErrInvalidStatus = errors.New("invalid review decision")
	// ErrAlreadyReviewed is returned when a submission has left the pending
	// state
	ErrAlreadyReviewed       = errors.New("submission already reviewed")
	ErrInactivePath          = errors.New("path is not active")
	ErrTaskOutOfRange        = errors.New("task id out of range")
	ErrIncompleteSubmissions = errors.New("path submissions are not all approved")
)

// Record kinds used in NotFoundError
const (
	KindPath        = "path"
	KindSubmission  = "submission"
	KindCertificate = "certificate"
)

// NotFoundError reports a reference to an identifier that was never assigned
type NotFoundError struct {
	Kind string
	ID   uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func notFound(kind string, id uint64) error {
	return &NotFoundError{Kind: kind, ID: id}
}
