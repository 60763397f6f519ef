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


package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/blinklabs-io/langjourney/api"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/spf13/cobra"
)

type submissionDetail struct {
	api.SubmissionResponse
	Score api.HandleResponse `json:"score"`
}

func submissionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submission",
		Aliases: []string{"sub"},
		Short:   "Inspect and review submissions",
	}
	cmd.AddCommand(
		submissionGetCommand(),
		submissionVerifyCommand(),
		submissionListCommand(),
	)
	return cmd
}

func parseDecision(value string) (ledger.Status, error) {
	switch strings.ToLower(value) {
	case "approve", "approved", "1":
		return ledger.StatusApproved, nil
	case "reject", "rejected", "2":
		return ledger.StatusRejected, nil
	default:
		return ledger.StatusPending, fmt.Errorf(
			"invalid decision %q: expected approve or reject",
			value,
		)
	}
}

func submissionGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "get <submission-id>",
		Short:        "Show a submission",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: runSession(false, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID("submission id", args[0])
			if err != nil {
				return err
			}
			sub, err := s.node.Ledger().GetSubmission(ctx, id)
			if err != nil {
				return err
			}
			h, err := s.node.Ledger().GetSubmissionEncryptedScore(ctx, id)
			if err != nil {
				return err
			}
			return s.print(submissionDetail{
				SubmissionResponse: api.NewSubmissionResponse(sub),
				Score:              api.NewHandleResponse(h),
			})
		}),
	}
}

func submissionVerifyCommand() *cobra.Command {
	var decision string
	var score uint32
	cmd := &cobra.Command{
		Use:          "verify <submission-id>",
		Short:        "Review a pending submission as an authorized teacher",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: runSession(true, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID("submission id", args[0])
			if err != nil {
				return err
			}
			status, err := parseDecision(decision)
			if err != nil {
				return err
			}
			if err := s.client.VerifySubmission(ctx, id, status, score); err != nil {
				return err
			}
			sub, err := s.node.Ledger().GetSubmission(ctx, id)
			if err != nil {
				return err
			}
			return s.print(api.NewSubmissionResponse(sub))
		}),
	}
	cmd.Flags().StringVar(&decision, "decision", "approve", "approve or reject")
	cmd.Flags().Uint32Var(&score, "score", 0, "reviewed score to encrypt")
	return cmd
}

func submissionListCommand() *cobra.Command {
	var status, learner string
	var pathID uint64
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List submissions",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: runSession(false, func(ctx context.Context, s *session, _ []string) error {
			filter := ledger.SubmissionFilter{PathID: pathID}
			switch status {
			case "":
			case "pending":
				filter.Statuses = []ledger.Status{ledger.StatusPending}
			case "reviewed":
				filter.Statuses = []ledger.Status{
					ledger.StatusApproved,
					ledger.StatusRejected,
				}
			default:
				return fmt.Errorf(
					"invalid status %q: expected pending or reviewed",
					status,
				)
			}
			if learner != "" {
				addr, err := parseAddress(learner)
				if err != nil {
					return err
				}
				filter.Learner = &addr
			}
			subs, err := s.node.Ledger().ListSubmissions(ctx, filter)
			if err != nil {
				return err
			}
			ret := make([]api.SubmissionResponse, 0, len(subs))
			for _, sub := range subs {
				ret = append(ret, api.NewSubmissionResponse(sub))
			}
			return s.print(ret)
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "pending or reviewed")
	cmd.Flags().StringVar(&learner, "learner", "", "only submissions by this address")
	cmd.Flags().Uint64Var(&pathID, "path", 0, "only submissions on this path")
	return cmd
}
