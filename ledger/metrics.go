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

	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	pathsCreated                prometheus.Counter
	submissionsCreated          prometheus.Counter
	submissionsReviewed         *prometheus.CounterVec
	certificatesMinted          prometheus.Counter
	teacherAuthorizationChanges prometheus.Counter
	rejections                  *prometheus.CounterVec
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.pathsCreated = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ledger_paths_created_total",
		Help: "total paths created",
	})
	m.submissionsCreated = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ledger_submissions_created_total",
		Help: "total task submissions",
	})
	m.submissionsReviewed = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_submissions_reviewed_total",
			Help: "total submission reviews by outcome",
		},
		[]string{"status"},
	)
	m.certificatesMinted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "ledger_certificates_minted_total",
		Help: "total certificates minted",
	})
	m.teacherAuthorizationChanges = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_teacher_authorization_changes_total",
			Help: "total changes to teacher authorization",
		},
	)
	m.rejections = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_rejections_total",
			Help: "state-changing calls rejected, by reason",
		},
		[]string{"reason"},
	)
}

// rejectionReason maps an error to its metric label
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrAlreadyReviewed):
		return "already_reviewed"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, ErrInactivePath):
		return "inactive_path"
	case errors.Is(err, ErrTaskOutOfRange):
		return "task_out_of_range"
	case errors.Is(err, ErrIncompleteSubmissions):
		return "incomplete_submissions"
	case errors.Is(err, fhe.ErrInvalidProof):
		return "invalid_proof"
	default:
		return "error"
	}
}
