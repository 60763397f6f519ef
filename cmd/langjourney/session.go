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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/blinklabs-io/langjourney"
	"github.com/blinklabs-io/langjourney/client"
	"github.com/blinklabs-io/langjourney/decrypt"
	"github.com/blinklabs-io/langjourney/internal/config"
	"github.com/blinklabs-io/langjourney/internal/node"
	"github.com/blinklabs-io/langjourney/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var errNoKeyFile = errors.New(
	"no key file configured: pass --key or set keyFile",
)

// session is an in-process node opened on the data dir, plus a client when
// the command acts as an account
type session struct {
	cfg    *config.Config
	node   *langjourney.Node
	key    *keystore.Key
	client *client.Client
	out    io.Writer
}

type sessionFunc func(ctx context.Context, s *session, args []string) error

// runSession opens the data dir for the duration of fn. With withKey the key
// file is loaded and a client acting as it is attached.
func runSession(withKey bool, fn sessionFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if cfg == nil {
			return errors.New("no config found in context")
		}
		ctx := cmd.Context()
		logger := newLogger(os.Stderr, slog.LevelWarn)
		s := &session{
			cfg: cfg,
			out: cmd.OutOrStdout(),
		}
		if withKey {
			if cfg.KeyFile == "" {
				return errNoKeyFile
			}
			key, err := keystore.LoadKeyFile(cfg.KeyFile)
			if err != nil {
				return err
			}
			s.key = key
		}
		n, err := node.Open(ctx, cfg, logger)
		if err != nil {
			return err
		}
		s.node = n
		if s.key != nil {
			// Grants are kept in the data dir between invocations
			cache := decrypt.NewCache(
				decrypt.WithLogger(logger),
				decrypt.WithStorage(decrypt.NewBadgerStorage(n.Database())),
				decrypt.WithDurationDays(cfg.GrantDurationDays),
			)
			s.client = client.New(
				n.Ledger(),
				n.Coprocessor(),
				s.key,
				cache,
				client.WithLogger(logger),
			)
		}
		err = fn(ctx, s, args)
		return errors.Join(err, n.Stop())
	}
}

func (s *session) print(v any) error {
	return printJSON(s.out, v)
}

func printJSON(w io.Writer, v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(buf))
	return err
}

func parseID(name, value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, value)
	}
	return id, nil
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address: %q", value)
	}
	return common.HexToAddress(value), nil
}

type idResult struct {
	ID uint64 `json:"id"`
}
