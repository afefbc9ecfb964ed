// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-dkg.
//
// go-dkg is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"github.com/spf13/cobra"
)

func newSessionCmd(cfg *Config) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect DKG sessions",
	}
	sessionCmd.AddCommand(&cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session and its participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			s, err := rt.DKG.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			participants, err := rt.DKG.ListParticipants(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintSession(s, participants)
		},
	})
	return sessionCmd
}

func newRecoveryCmd(cfg *Config) *cobra.Command {
	recoveryCmd := &cobra.Command{
		Use:   "recovery",
		Short: "Inspect recovery sessions",
	}
	recoveryCmd.AddCommand(&cobra.Command{
		Use:   "show <recovery-id>",
		Short: "Show a recovery session and its receipts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			s, err := rt.Recovery.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			receipts, err := rt.Recovery.ListReceipts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintRecovery(s, receipts)
		},
	})
	return recoveryCmd
}
