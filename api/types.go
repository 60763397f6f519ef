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
	"github.com/blinklabs-io/langjourney/handle"
	"github.com/blinklabs-io/langjourney/indexer"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type InfoResponse struct {
	Version           string       `json:"version"`
	Owner             string       `json:"owner"`
	ContractAddress   string       `json:"contract_address"`
	NextPathID        uint64       `json:"next_path_id"`
	NextSubmissionID  uint64       `json:"next_submission_id"`
	NextCertificateID uint64       `json:"next_certificate_id"`
	Indexed           IndexedStats `json:"indexed"`
}

type IndexedStats struct {
	Paths               int `json:"paths"`
	PendingSubmissions  int `json:"pending_submissions"`
	ReviewedSubmissions int `json:"reviewed_submissions"`
	Certificates        int `json:"certificates"`
	Teachers            int `json:"teachers"`
}

type PathResponse struct {
	ID         uint64 `json:"id"`
	Creator    string `json:"creator"`
	ContentRef string `json:"content_ref"`
	Active     bool   `json:"active"`
	CreatedAt  int64  `json:"created_at"`
}

// SubmissionResponse describes a submission. Verifier and ReviewedAt are
// null until the submission is reviewed.
type SubmissionResponse struct {
	ID          uint64  `json:"id"`
	PathID      uint64  `json:"path_id"`
	TaskID      uint64  `json:"task_id"`
	Learner     string  `json:"learner"`
	ContentRef  string  `json:"content_ref"`
	Status      string  `json:"status"`
	Verifier    *string `json:"verifier"`
	SubmittedAt int64   `json:"submitted_at"`
	ReviewedAt  *int64  `json:"reviewed_at"`
}

type CertificateResponse struct {
	ID         uint64 `json:"id"`
	PathID     uint64 `json:"path_id"`
	Learner    string `json:"learner"`
	ContentRef string `json:"content_ref"`
	MintedAt   int64  `json:"minted_at"`
}

// HandleResponse carries an encrypted value handle. The plaintext is only
// available through a user decrypt.
type HandleResponse struct {
	Handle string `json:"handle"`
	Type   string `json:"type"`
}

type TeacherResponse struct {
	Address    string `json:"address"`
	Authorized bool   `json:"authorized"`
}

func statsResponse(stats indexer.Stats) IndexedStats {
	return IndexedStats{
		Paths:               stats.Paths,
		PendingSubmissions:  stats.PendingSubmissions,
		ReviewedSubmissions: stats.ReviewedSubmissions,
		Certificates:        stats.Certificates,
		Teachers:            stats.Teachers,
	}
}

func NewPathResponse(p *ledger.Path) PathResponse {
	return PathResponse{
		ID:         p.ID,
		Creator:    p.Creator.Hex(),
		ContentRef: p.ContentRef,
		Active:     p.Active,
		CreatedAt:  p.CreatedAt.Unix(),
	}
}

func NewSubmissionResponse(s *ledger.Submission) SubmissionResponse {
	ret := SubmissionResponse{
		ID:          s.ID,
		PathID:      s.PathID,
		TaskID:      s.TaskID,
		Learner:     s.Learner.Hex(),
		ContentRef:  s.ContentRef,
		Status:      s.Status.String(),
		SubmittedAt: s.SubmittedAt.Unix(),
	}
	if s.Verifier != (common.Address{}) {
		verifier := s.Verifier.Hex()
		ret.Verifier = &verifier
	}
	if !s.ReviewedAt.IsZero() {
		reviewedAt := s.ReviewedAt.Unix()
		ret.ReviewedAt = &reviewedAt
	}
	return ret
}

func NewCertificateResponse(c *ledger.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:         c.ID,
		PathID:     c.PathID,
		Learner:    c.Learner.Hex(),
		ContentRef: c.ContentRef,
		MintedAt:   c.MintedAt.Unix(),
	}
}

func NewHandleResponse(h handle.Handle) HandleResponse {
	return HandleResponse{
		Handle: h.Hex(),
		Type:   h.Type().String(),
	}
}
