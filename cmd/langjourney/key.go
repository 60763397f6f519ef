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
	"errors"
	"fmt"

	"github.com/blinklabs-io/langjourney/internal/config"
	"github.com/blinklabs-io/langjourney/keystore"
	"github.com/spf13/cobra"
)

const defaultKeyFile = "langjourney.key"

type keyResult struct {
	Address string `json:"address"`
	KeyFile string `json:"key_file"`
}

func keyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage account key files",
	}
	cmd.AddCommand(keyGenerateCommand(), keyShowCommand())
	return cmd
}

func keyPath(cmd *cobra.Command) (string, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return "", errors.New("no config found in context")
	}
	if cfg.KeyFile == "" {
		return defaultKeyFile, nil
	}
	return cfg.KeyFile, nil
}

func keyGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "generate",
		Short:        "Create a new key file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := keyPath(cmd)
			if err != nil {
				return err
			}
			key, err := keystore.GenerateKey()
			if err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}
			if err := keystore.SaveKeyFile(path, key); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), keyResult{
				Address: key.Address().Hex(),
				KeyFile: path,
			})
		},
	}
}

func keyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "show",
		Short:        "Show the address of a key file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := keyPath(cmd)
			if err != nil {
				return err
			}
			key, err := keystore.LoadKeyFile(path)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), keyResult{
				Address: key.Address().Hex(),
				KeyFile: path,
			})
		},
	}
}
