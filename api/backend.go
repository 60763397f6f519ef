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

package api

import (
	"context"

	"github.com/blinklabs-io/langjourney/handle"
	"github.com/blinklabs-io/langjourney/indexer"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// LedgerReader is the ledger query surface used for point lookups
type LedgerReader interface {
	Owner() common.Address
	ContractAddress() common.Address
	GetPath(ctx context.Context, id uint64) (*ledger.Path, error)
	GetEncryptedTaskCount(ctx context.Context, id uint64) (handle.Handle, error)
	GetSubmission(ctx context.Context, id uint64) (*ledger.Submission, error)
	GetSubmissionEncryptedScore(ctx context.Context, id uint64) (handle.Handle, error)
	GetCertificate(ctx context.Context, id uint64) (*ledger.Certificate, error)
	GetCertificateEncryptedScore(ctx context.Context, id uint64) (handle.Handle, error)
	NextPathID(ctx context.Context) (uint64, error)
	NextSubmissionID(ctx context.Context) (uint64, error)
	NextCertificateID(ctx context.Context) (uint64, error)
	IsAuthorizedTeacher(ctx context.Context, addr common.Address) (bool, error)
}

// Index serves the list endpoints
type Index interface {
	Stats() indexer.Stats
	Paths() []ledger.Path
	PendingSubmissions() []ledger.Submission
	ReviewedSubmissions() []ledger.Submission
	LearnerSubmissions(learner common.Address) []ledger.Submission
	Certificates(learner common.Address) []ledger.Certificate
	Teachers() []common.Address
}

var (
	_ LedgerReader = (*ledger.Ledger)(nil)
	_ Index        = (*indexer.Indexer)(nil)
)
