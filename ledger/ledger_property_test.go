//go:build property

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

package ledger_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/langjourney/fhe"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: path ids returned by CreatePath are strictly increasing and
// contiguous from 1, regardless of interleaved rejected calls
func TestPathIdMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("path ids increase by one per successful create", prop.ForAll(
		func(attempts []bool) bool {
			env := newTestEnv(t)
			ctx := context.Background()
			creator := newAccount(t)
			intruder := newAccount(t)
			var last uint64
			for _, valid := range attempts {
				h, proof := env.encrypt(t, creator.addr, fhe.Uint32(3))
				from := creator.addr
				if !valid {
					from = intruder.addr
				}
				id, err := env.ledger.CreatePath(ctx, from, "QmPath", h, proof)
				if !valid {
					if err == nil {
						return false
					}
					continue
				}
				if err != nil || id != last+1 {
					return false
				}
				last = id
			}
			next, err := env.ledger.NextPathID(ctx)
			return err == nil && next == last+1
		},
		gen.SliceOfN(6, gen.Bool()),
	))

	properties.TestingRun(t)
}

// Property: once a submission leaves Pending, no sequence of review attempts
// changes its status again
func TestSubmissionStatusMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("status never returns to pending", prop.ForAll(
		func(decisions []uint8) bool {
			env := newTestEnv(t)
			ctx := context.Background()
			teacher := newAccount(t)
			env.authorize(t, teacher)
			pathID := env.createPath(t, newAccount(t), "QmPath", 2)
			subID := env.submit(t, newAccount(t), pathID, 1, 50)
			settled := ledger.StatusPending
			for _, d := range decisions {
				h, proof := env.encrypt(t, teacher.addr, fhe.Uint32(60))
				_ = env.ledger.VerifySubmission(ctx, teacher.addr, subID, ledger.Status(d), h, proof)
				sub, err := env.ledger.GetSubmission(ctx, subID)
				if err != nil {
					return false
				}
				if settled != ledger.StatusPending && sub.Status != settled {
					return false
				}
				if settled == ledger.StatusPending && sub.Status.IsTerminal() {
					settled = sub.Status
				}
				if settled == ledger.StatusPending && sub.Status != ledger.StatusPending {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, gen.UInt8Range(0, 3)),
	))

	properties.TestingRun(t)
}
