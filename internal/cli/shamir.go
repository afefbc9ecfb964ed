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
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-dkg/pkg/threshold/shamir"
)

func newShamirCmd(cfg *Config) *cobra.Command {
	shamirCmd := &cobra.Command{
		Use:   "shamir",
		Short: "Split and combine secrets with Shamir's scheme",
	}

	var threshold, total int
	splitCmd := &cobra.Command{
		Use:   "split <hex-secret>",
		Short: "Split a hex secret into shares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("secret is not hex: %w", err)
			}
			shares, err := shamir.Split(secret, threshold, total)
			if err != nil {
				return err
			}
			printVerbose(cmd, cfg, "split %d bytes into %d shares, threshold %d", len(secret), total, threshold)
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintShares(shares)
		},
	}
	splitCmd.Flags().IntVarP(&threshold, "threshold", "t", 2, "shares required to recombine")
	splitCmd.Flags().IntVarP(&total, "total", "n", 3, "shares to create")

	combineCmd := &cobra.Command{
		Use:   "combine <share>...",
		Short: "Recombine shares printed by split",
		Long: `Recombine shares into the original secret. Each argument is one share
in the JSON form printed by "shamir split".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shares := make([]*shamir.Share, len(args))
			for i, arg := range args {
				var s shamir.Share
				if err := json.Unmarshal([]byte(arg), &s); err != nil {
					return fmt.Errorf("share %d: %w", i+1, err)
				}
				shares[i] = &s
			}
			secret, err := shamir.Combine(shares)
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintSecret(hex.EncodeToString(secret))
		},
	}

	shamirCmd.AddCommand(splitCmd, combineCmd)
	return shamirCmd
}
