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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-dkg/pkg/health"
)

func newHealthCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the configured store accepts reads and writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			checker := health.NewChecker()
			checker.RegisterCheck("store", health.StoreCheck(rt.Store, rt.Config.Storage.Timeout))
			results := checker.Run(cmd.Context())
			status := health.AggregateStatus(results)

			if err := NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintHealth(status, results); err != nil {
				return err
			}
			if status == health.StatusUnhealthy {
				return fmt.Errorf("store is %s", status)
			}
			return nil
		},
	}
}
