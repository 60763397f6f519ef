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


// Package testutil holds synchronization helpers for tests that wait on
// background goroutines.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds every wait that doesn't pass its own
const DefaultTimeout = 5 * time.Second

// WaitFor polls condition until it returns true or DefaultTimeout expires
func WaitFor(t testing.TB, condition func() bool, msg string) {
	t.Helper()
	require.Eventually(t, condition, DefaultTimeout, 10*time.Millisecond, msg)
}

// RequireReceive waits for a value on ch or fails the test after timeout
func RequireReceive[T any](
	t testing.TB,
	ch <-chan T,
	timeout time.Duration,
	msg string,
) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for channel receive: %s", msg)
		var zero T
		return zero
	}
}

// RequireClosed fails the test unless ch is closed within timeout
func RequireClosed(
	t testing.TB,
	ch <-chan struct{},
	timeout time.Duration,
	msg string,
) {
	t.Helper()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("value received on channel expected to close: %s", msg)
		}
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for channel close: %s", msg)
	}
}

// RequireNoReceive fails the test if ch yields a value within duration
func RequireNoReceive[T any](
	t testing.TB,
	ch <-chan T,
	duration time.Duration,
	msg string,
) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value received on channel: %v: %s", v, msg)
	case <-time.After(duration):
	}
}
