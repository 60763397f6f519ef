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

	"github.com/spf13/cobra"
)

func taskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Submit task work",
	}
	cmd.AddCommand(taskSubmitCommand())
	return cmd
}

func taskSubmitCommand() *cobra.Command {
	var score uint32
	cmd := &cobra.Command{
		Use:          "submit <path-id> <task-id> <content-ref>",
		Short:        "Submit work for a task with an encrypted self score",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: runSession(true, func(ctx context.Context, s *session, args []string) error {
			pathID, err := parseID("path id", args[0])
			if err != nil {
				return err
			}
			taskID, err := parseID("task id", args[1])
			if err != nil {
				return err
			}
			id, err := s.client.SubmitTask(ctx, pathID, taskID, args[2], score)
			if err != nil {
				return err
			}
			return s.print(idResult{ID: id})
		}),
	}
	cmd.Flags().Uint32Var(&score, "score", 0, "score to encrypt with the submission")
	return cmd
}
