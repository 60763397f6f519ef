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
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type certificateDetail struct {
	api.CertificateResponse
	FinalScore api.HandleResponse `json:"final_score"`
}

func certCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cert",
		Aliases: []string{"certificate"},
		Short:   "Mint and inspect certificates",
	}
	cmd.AddCommand(
		certMintCommand(),
		certGetCommand(),
		certListCommand(),
	)
	return cmd
}

func certMintCommand() *cobra.Command {
	var score uint64
	cmd := &cobra.Command{
		Use:          "mint <path-id> <content-ref>",
		Short:        "Mint a certificate with an encrypted final score",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: runSession(true, func(ctx context.Context, s *session, args []string) error {
			pathID, err := parseID("path id", args[0])
			if err != nil {
				return err
			}
			id, err := s.client.MintCertificate(ctx, pathID, args[1], score)
			if err != nil {
				return err
			}
			return s.print(idResult{ID: id})
		}),
	}
	cmd.Flags().Uint64Var(&score, "score", 0, "final score to encrypt")
	return cmd
}

func certGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "get <certificate-id>",
		Short:        "Show a certificate",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: runSession(false, func(ctx context.Context, s *session, args []string) error {
			id, err := parseID("certificate id", args[0])
			if err != nil {
				return err
			}
			cert, err := s.node.Ledger().GetCertificate(ctx, id)
			if err != nil {
				return err
			}
			return s.print(certificateDetail{
				CertificateResponse: api.NewCertificateResponse(cert),
				FinalScore:          api.NewHandleResponse(cert.EncryptedFinalScore),
			})
		}),
	}
}

func certListCommand() *cobra.Command {
	var learner string
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List certificates",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: runSession(false, func(ctx context.Context, s *session, _ []string) error {
			var addr common.Address
			if learner != "" {
				var err error
				addr, err = parseAddress(learner)
				if err != nil {
					return err
				}
			}
			certs, err := s.node.Ledger().ListCertificates(ctx, addr)
			if err != nil {
				return err
			}
			ret := make([]api.CertificateResponse, 0, len(certs))
			for _, cert := range certs {
				ret = append(ret, api.NewCertificateResponse(cert))
			}
			return s.print(ret)
		}),
	}
	cmd.Flags().StringVar(&learner, "learner", "", "only certificates held by this address")
	return cmd
}
