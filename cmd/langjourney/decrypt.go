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

	"github.com/blinklabs-io/langjourney/handle"
	"github.com/spf13/cobra"
)

type decryptResult struct {
	Handle string `json:"handle"`
	Type   string `json:"type"`
	Value  uint64 `json:"value"`
}

func decryptCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "decrypt <handle>...",
		Short:        "Decrypt encrypted values the key's account may see",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: runSession(true, func(ctx context.Context, s *session, args []string) error {
			handles := make([]handle.Handle, 0, len(args))
			for _, arg := range args {
				h, err := handle.New(arg)
				if err != nil {
					return err
				}
				handles = append(handles, h)
			}
			values, err := s.client.DecryptMany(ctx, handles)
			if err != nil {
				return err
			}
			ret := make([]decryptResult, 0, len(handles))
			for _, h := range handles {
				ret = append(ret, decryptResult{
					Handle: h.Hex(),
					Type:   h.Type().String(),
					Value:  values[h],
				})
			}
			return s.print(ret)
		}),
	}
}
