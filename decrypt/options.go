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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type CacheOptionFunc func(*Cache)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) CacheOptionFunc {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) CacheOptionFunc {
	return func(c *Cache) {
		c.promRegistry = registry
	}
}

// WithStorage specifies where grants are kept. The default is in memory.
func WithStorage(storage Storage) CacheOptionFunc {
	return func(c *Cache) {
		c.storage = storage
	}
}

// WithDurationDays specifies the lifetime of new grants
func WithDurationDays(days uint32) CacheOptionFunc {
	return func(c *Cache) {
		if days > 0 {
			c.durationDays = days
		}
	}
}

// WithClock specifies the time source used for grant expiry
func WithClock(clock func() time.Time) CacheOptionFunc {
	return func(c *Cache) {
		c.clock = clock
	}
}
