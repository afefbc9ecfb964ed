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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-dkg/pkg/adapters/logger"
	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/recovery"
)

type simulateOptions struct {
	n         int
	t         int
	recover   int
	sessionID string
	requester string
}

func newSimulateCmd(cfg *Config) *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a complete ceremony and recovery in process",
		Long: `Run a full distributed key generation against the configured store.

Every simulated participant generates a polynomial, commits to it, sends
ECIES-encrypted shares to every other participant, verifies what it
receives and reports readiness. The coordinator then marks the session
ready and finalizes it. With --recover k, a recovery session is opened and
the first k participants submit their shares encrypted to a fresh
requester key; the requester reconstructs the group private key and checks
it against the group public key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, cfg, opts)
		},
	}
	cmd.Flags().IntVar(&opts.n, "n", 5, "number of participants")
	cmd.Flags().IntVar(&opts.t, "t", 3, "threshold")
	cmd.Flags().IntVar(&opts.recover, "recover", 0, "receipts to submit to a recovery (0 skips recovery)")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "session id (generated when empty)")
	cmd.Flags().StringVar(&opts.requester, "requester", "operator", "recovery requester id")
	return cmd
}

func participantName(i int) string {
	return fmt.Sprintf("participant-%d", i)
}

func runSimulate(cmd *cobra.Command, cfg *Config, opts *simulateOptions) error {
	if opts.recover < 0 || opts.recover > opts.n {
		return fmt.Errorf("%w: --recover must be between 0 and n=%d", dkg.ErrInvalidInput, opts.n)
	}

	rt, err := openRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	ceremony, err := dkg.NewCeremony(rt.DKG, opts.n, participantName, rand.Reader)
	if err != nil {
		return err
	}
	s, err := ceremony.Run(ctx, dkg.CreateSessionRequest{ID: opts.sessionID, N: opts.n, T: opts.t})
	if err != nil {
		return err
	}
	printVerbose(cmd, cfg, "session %s finalized with %d participants", s.ID, opts.n)

	result := &SimulationResult{
		SessionID: s.ID,
		Status:    string(s.Status),
		N:         s.N,
		T:         s.T,
		PublicKey: s.PublicKey,
	}

	if opts.recover > 0 {
		if err := simulateRecovery(cmd, rt, ceremony, s, opts, result); err != nil {
			return err
		}
	}

	events, err := rt.Audit.GetEvents(ctx, nil)
	if err != nil {
		return err
	}
	result.AuditEvents = len(events)

	if err := NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintSimulation(result); err != nil {
		return err
	}
	if opts.recover > 0 && result.RecoveryStatus == string(recovery.StatusDone) && !result.Recovered {
		return fmt.Errorf("%w: recovered key does not match the group public key", dkg.ErrCommitmentMismatch)
	}
	return nil
}

func simulateRecovery(cmd *cobra.Command, rt *Runtime, ceremony *dkg.Ceremony, s *dkg.Session, opts *simulateOptions, result *SimulationResult) error {
	ctx := cmd.Context()
	requester, err := rt.DKG.Curve().GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	rs, err := rt.Recovery.Create(ctx, recovery.CreateRequest{
		Source:             recovery.Source{Kind: recovery.SourceDKG, ID: s.ID},
		Requester:          opts.requester,
		RequesterPublicKey: requester.Public().Hex(),
	})
	if err != nil {
		return err
	}
	result.RecoveryID = rs.ID

	for _, p := range ceremony.Parties[:opts.recover] {
		share, err := p.SecretShare(s.N)
		if err != nil {
			return err
		}
		ct, err := recovery.SealShare(rand.Reader, requester.Public(), rs.ID, p.ID(), share)
		if err != nil {
			return err
		}
		res, err := rt.Recovery.SubmitReceipt(ctx, rs.ID, recovery.ReceiptRequest{Shareholder: p.ID(), Ciphertext: ct})
		if err != nil {
			return err
		}
		result.Receipts = res.Count
		result.RecoveryStatus = string(res.Status)
		if res.Completed {
			rt.Logger.Info("recovery threshold reached",
				logger.String("recovery_id", rs.ID),
				logger.Int("receipts", res.Count))
		}
	}

	if result.RecoveryStatus != string(recovery.StatusDone) {
		return nil
	}
	pairs, err := rt.Recovery.GetReconstructableShares(ctx, rs.ID)
	if err != nil {
		return err
	}
	secret, err := recovery.Recover(requester, rs, pairs)
	if err != nil {
		return err
	}
	q, err := rt.DKG.GroupPublicKey(ctx, s.ID)
	if err != nil {
		return err
	}
	result.Recovered = rt.DKG.Curve().ScalarBaseMult(secret).Equal(q.Point())
	return nil
}
