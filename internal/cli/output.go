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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/health"
	"github.com/jeremyhahn/go-dkg/pkg/recovery"
	"github.com/jeremyhahn/go-dkg/pkg/threshold/shamir"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message with its error kind
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"kind":   dkg.KindOf(err).String(),
			"error":  err.Error(),
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeyPair prints a GOST key pair in hex
func (p *Printer) PrintKeyPair(private, public string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"private_key": private,
			"public_key":  public,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Private key: %s\n", private)
		fmt.Fprintf(p.writer, "Public key:  %s\n", public)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintShares prints Shamir shares, one JSON document per line in text mode
// so that each line can be passed back to "shamir combine".
func (p *Printer) PrintShares(shares []*shamir.Share) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"shares": shares,
		})
	case OutputFormatTable:
		fmt.Fprintf(p.writer, "%-6s %-10s %-6s %s\n", "INDEX", "THRESHOLD", "TOTAL", "VALUE")
		fmt.Fprintln(p.writer, strings.Repeat("-", 72))
		for _, s := range shares {
			fmt.Fprintf(p.writer, "%-6d %-10d %-6d %s\n", s.Index, s.Threshold, s.Total, s.Value)
		}
		return nil
	case OutputFormatText:
		for _, s := range shares {
			line, err := json.Marshal(s)
			if err != nil {
				return err
			}
			fmt.Fprintln(p.writer, string(line))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSecret prints a recombined secret in hex
func (p *Printer) PrintSecret(secret string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"secret": secret,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintln(p.writer, secret)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSession prints a DKG session and its participants
func (p *Printer) PrintSession(s *dkg.Session, participants []dkg.Participant) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"session":      s,
			"participants": participants,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Session:    %s\n", s.ID)
		fmt.Fprintf(p.writer, "Status:     %s\n", s.Status)
		fmt.Fprintf(p.writer, "Threshold:  %d of %d\n", s.T, s.N)
		fmt.Fprintf(p.writer, "Epoch:      %d\n", s.Epoch)
		fmt.Fprintf(p.writer, "Hash:       %s\n", s.Hash)
		if s.Host != "" {
			fmt.Fprintf(p.writer, "Host:       %s\n", s.Host)
		}
		if s.PublicKey != "" {
			fmt.Fprintf(p.writer, "Public key: %s\n", s.PublicKey)
		}
		if s.FailReason != "" {
			fmt.Fprintf(p.writer, "Failure:    %s\n", s.FailReason)
		}
		if len(participants) == 0 {
			return nil
		}
		fmt.Fprintln(p.writer)
		fmt.Fprintf(p.writer, "%-6s %-24s %-6s %-8s %s\n", "INDEX", "PARTICIPANT", "HOST", "ACTIVE", "JOINED")
		fmt.Fprintln(p.writer, strings.Repeat("-", 72))
		for _, pt := range participants {
			fmt.Fprintf(p.writer, "%-6d %-24s %-6t %-8t %s\n",
				pt.Index, pt.ID, pt.Host, pt.Active(), pt.JoinedAt.Format(time.RFC3339))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintRecovery prints a recovery session and its receipts
func (p *Printer) PrintRecovery(s *recovery.Session, receipts []recovery.Receipt) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"recovery": s,
			"receipts": receipts,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Recovery:   %s\n", s.ID)
		fmt.Fprintf(p.writer, "Source:     %s/%s\n", s.Source.Kind, s.Source.ID)
		fmt.Fprintf(p.writer, "Status:     %s\n", s.Status)
		fmt.Fprintf(p.writer, "Requester:  %s\n", s.Requester)
		fmt.Fprintf(p.writer, "Receipts:   %d of %d required\n", len(receipts), s.Threshold)
		if s.FailReason != "" {
			fmt.Fprintf(p.writer, "Failure:    %s\n", s.FailReason)
		}
		for _, r := range receipts {
			fmt.Fprintf(p.writer, "  - %s at %s\n", r.Shareholder, r.ReceivedAt.Format(time.RFC3339))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// SimulationResult summarizes an in-process ceremony and recovery.
type SimulationResult struct {
	SessionID      string `json:"session_id"`
	Status         string `json:"status"`
	N              int    `json:"n"`
	T              int    `json:"t"`
	PublicKey      string `json:"public_key"`
	RecoveryID     string `json:"recovery_id,omitempty"`
	RecoveryStatus string `json:"recovery_status,omitempty"`
	Receipts       int    `json:"receipts,omitempty"`
	Recovered      bool   `json:"recovered"`
	AuditEvents    int    `json:"audit_events"`
}

// PrintSimulation prints the outcome of "simulate"
func (p *Printer) PrintSimulation(r *SimulationResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(r)
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Session:      %s (%s, %d of %d)\n", r.SessionID, r.Status, r.T, r.N)
		fmt.Fprintf(p.writer, "Public key:   %s\n", r.PublicKey)
		if r.RecoveryID != "" {
			fmt.Fprintf(p.writer, "Recovery:     %s (%s, %d receipts)\n", r.RecoveryID, r.RecoveryStatus, r.Receipts)
			fmt.Fprintf(p.writer, "Key matches:  %t\n", r.Recovered)
		}
		fmt.Fprintf(p.writer, "Audit events: %d\n", r.AuditEvents)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintHealth prints the aggregate status and each check result
func (p *Printer) PrintHealth(status health.Status, results []health.CheckResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": status,
			"checks": results,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "Status: %s\n", status)
		for _, r := range results {
			fmt.Fprintf(p.writer, "  %-8s %-10s %-10s %s%s\n", r.Name, r.Status, r.Latency.Round(time.Microsecond), r.Message, errSuffix(r.Error))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

func errSuffix(msg string) string {
	if msg == "" {
		return ""
	}
	return ": " + msg
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
