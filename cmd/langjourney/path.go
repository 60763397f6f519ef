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

	"github.com/blinklabs-io/langjourney/api"
	"github.com/spf13/cobra"
)

type pathDetail struct {
	api.PathResponse
	TaskCount api.HandleResponse `json:"task_count"`
}

func pathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Create and inspect learning paths",
	}
	cmd.AddCommand(
		pathCreateCommand(),
		pathGetCommand(),
		pathStatusCommand("activate", true),
		pathStatusCommand("deactivate", false),
		pathListCommand(),
	)
	return cmd
}

func pathCreateCommand() *cobra.Command {
	var taskCount uint32
	cmd := &cobra.Command{
		Use:          "create <content-ref>",
		Short:        "Create a path with an encrypted task count",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: runSession(true, func(ctx context.Context, s *session, args []string) error {
			id, err := s.client.CreatePath(ctx, args[0], taskCount)
			if err != nil {
				return err
			}
			return s.print(idResult{ID: id})
		}),
	}
	cmd.Flags().Uint32Var(&taskCount, "tasks", 0, "number of tasks on the path")
	return cmd
}

func pathGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "get <path-id>",
		Short:        "Show a path",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: runSession(false, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID("path id", args[0])
			if err != nil {
				return err
			}
			path, err := s.node.Ledger().GetPath(ctx, id)
			if err != nil {
				return err
			}
			h, err := s.node.Ledger().GetEncryptedTaskCount(ctx, id)
			if err != nil {
				return err
			}
			return s.print(pathDetail{
				PathResponse: api.NewPathResponse(path),
				TaskCount:    api.NewHandleResponse(h),
			})
		}),
	}
}

func pathStatusCommand(use string, active bool) *cobra.Command {
	short := "Reopen a path to submissions"
	if !active {
		short = "Close a path to new submissions"
	}
	return &cobra.Command{
		Use:          use + " <path-id>",
		Short:        short,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: runSession(true, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID("path id", args[0])
			if err != nil {
				return err
			}
			if err := s.client.SetPathActive(ctx, id, active); err != nil {
				return err
			}
			path, err := s.node.Ledger().GetPath(ctx, id)
			if err != nil {
				return err
			}
			return s.print(api.NewPathResponse(path))
		}),
	}
}

func pathListCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List every path",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: runSession(false, func(ctx context.Context, s *session, _ []string) error {
			paths, err := s.node.Ledger().ListPaths(ctx)
			if err != nil {
				return err
			}
			ret := make([]api.PathResponse, 0, len(paths))
			for _, p := range paths {
				ret = append(ret, api.NewPathResponse(p))
			}
			return s.print(ret)
		}),
	}
}
