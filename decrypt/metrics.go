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

package decrypt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type cacheMetrics struct {
	grantCacheHits   prometheus.Counter
	grantCacheMisses prometheus.Counter
	decryptRequests  prometheus.Counter
	decryptFailures  prometheus.Counter
}

func (m *cacheMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.grantCacheHits = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "decrypt_grant_cache_hits_total",
		Help: "grant lookups served from storage",
	})
	m.grantCacheMisses = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "decrypt_grant_cache_misses_total",
		Help: "grant lookups that required a new signature",
	})
	m.decryptRequests = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "decrypt_requests_total",
		Help: "batched decrypt calls",
	})
	m.decryptFailures = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "decrypt_request_failures_total",
		Help: "batched decrypt calls that failed",
	})
}
