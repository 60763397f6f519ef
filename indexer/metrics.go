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

package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type indexerMetrics struct {
	paths               prometheus.Gauge
	pendingSubmissions  prometheus.Gauge
	reviewedSubmissions prometheus.Gauge
	certificates        prometheus.Gauge
	eventsApplied       *prometheus.CounterVec
	applyErrors         prometheus.Counter
}

func newIndexerMetrics(promRegistry prometheus.Registerer) *indexerMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &indexerMetrics{
		paths: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_paths",
			Help: "indexed paths",
		}),
		pendingSubmissions: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_pending_submissions",
			Help: "indexed submissions awaiting review",
		}),
		reviewedSubmissions: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_reviewed_submissions",
			Help: "indexed submissions that were approved or rejected",
		}),
		certificates: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_certificates",
			Help: "indexed certificates",
		}),
		eventsApplied: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexer_events_applied_total",
				Help: "ledger events applied to the index",
			},
			[]string{"type"},
		),
		applyErrors: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_apply_errors_total",
			Help: "ledger events that could not be applied",
		}),
	}
}
