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

func teacherCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teacher",
		Short: "Manage teacher authorization",
	}
	cmd.AddCommand(
		teacherSetCommand("authorize", true),
		teacherSetCommand("revoke", false),
		teacherCheckCommand(),
		teacherListCommand(),
	)
	return cmd
}

func teacherSetCommand(use string, authorized bool) *cobra.Command {
	short := "Authorize a teacher to review submissions (owner only)"
	if !authorized {
		short = "Revoke a teacher's authorization (owner only)"
	}
	return &cobra.Command{
		Use:          use + " <address>",
		Short:        short,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: runSession(true, func(ctx context.Context, s *session, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			if err := s.client.SetTeacherAuthorization(ctx, addr, authorized); err != nil {
				return err
			}
			return s.print(api.TeacherResponse{
				Address:    addr.Hex(),
				Authorized: authorized,
			})
		}),
	}
}

func teacherCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "check <address>",
		Short:        "Show whether an address is an authorized teacher",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: runSession(false, func(ctx context.Context, s *session, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			authorized, err := s.node.Ledger().IsAuthorizedTeacher(ctx, addr)
			if err != nil {
				return err
			}
			return s.print(api.TeacherResponse{
				Address:    addr.Hex(),
				Authorized: authorized,
			})
		}),
	}
}

func teacherListCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List authorized teachers",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: runSession(false, func(ctx context.Context, s *session, _ []string) error {
			teachers, err := s.node.Ledger().ListTeachers(ctx)
			if err != nil {
				return err
			}
			ret := make([]api.TeacherResponse, 0, len(teachers))
			for _, t := range teachers {
				ret = append(ret, api.TeacherResponse{
					Address:    t.Address.Hex(),
					Authorized: t.Authorized,
				})
			}
			return s.print(ret)
		}),
	}
}
