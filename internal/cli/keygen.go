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
	"crypto/rand"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
)

func newKeygenCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a GOST R 34.10-2012 key pair",
		Long: `Generate a participant key pair on the CryptoPro-A curve. The public key
is what a participant registers when joining a session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := gost.Default().GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintKeyPair(key.Hex(), key.Public().Hex())
		},
	}
}
