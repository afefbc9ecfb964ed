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

// Package cli implements the dkgctl command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the dkgctl command tree. Command output goes to out,
// logs and verbose messages to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	cfg := NewConfig()

	rootCmd := &cobra.Command{
		Use:   "dkgctl",
		Short: "go-dkg CLI - GOST threshold key generation and recovery",
		Long: `dkgctl drives the go-dkg threshold protocol from the command line.

It generates GOST R 34.10-2012 key pairs, splits and combines secrets with
Shamir's scheme, runs complete distributed key generation ceremonies in
process and inspects the sessions they leave in the store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigFile, "config", "", "config file (YAML)")
	flags.StringVarP(&cfg.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "verbose output")
	cfg.bindFlags(flags)

	rootCmd.AddCommand(newVersionCmd(cfg))
	rootCmd.AddCommand(newKeygenCmd(cfg))
	rootCmd.AddCommand(newShamirCmd(cfg))
	rootCmd.AddCommand(newSimulateCmd(cfg))
	rootCmd.AddCommand(newSessionCmd(cfg))
	rootCmd.AddCommand(newRecoveryCmd(cfg))
	rootCmd.AddCommand(newHealthCmd(cfg))

	return rootCmd
}

// Execute runs the root command against the process streams and reports
// a failure on stderr.
func Execute() error {
	rootCmd := NewRootCmd(os.Stdout, os.Stderr)
	err := rootCmd.Execute()
	if err != nil {
		format, _ := rootCmd.PersistentFlags().GetString("output")
		_ = NewPrinter(format, os.Stderr).PrintError(err) // best-effort
	}
	return err
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(cmd *cobra.Command, cfg *Config, format string, args ...interface{}) {
	if cfg.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "[VERBOSE] "+format+"\n", args...)
	}
}

// openRuntime loads configuration and wires the managers for one command.
func openRuntime(cmd *cobra.Command, cfg *Config) (*Runtime, error) {
	loaded, err := cfg.Load()
	if err != nil {
		return nil, err
	}
	printVerbose(cmd, cfg, "storage backend %s, hash %s", loaded.Storage.Backend, loaded.Protocol.Hash)
	return NewRuntime(loaded, cmd.ErrOrStderr())
}
