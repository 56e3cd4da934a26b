package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"stellarsplit/internal/domain"
)

func printBill(w io.Writer, b domain.Bill) {
	fmt.Fprintf(w, "%s (%s)\n", b.Title, b.Status)
	if b.Description != "" {
		fmt.Fprintf(w, "  %s\n", b.Description)
	}
	fmt.Fprintf(w, "  Total:     %s XLM\n", b.TotalAmount)
	fmt.Fprintf(w, "  Creator:   %s\n", b.CreatorAddress)
	fmt.Fprintf(w, "  Recipient: %s\n", b.RecipientAddress)
	fmt.Fprintf(w, "  Created:   %s\n", time.UnixMilli(b.CreatedAt).Format(time.RFC3339))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tADDRESS\tOWED\tPAID\tTX")
	for _, p := range b.Participants {
		paid := "no"
		if p.Paid {
			paid = "yes"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", p.Name, p.Address.Short(), p.AmountOwed, paid, p.TxHash)
	}
	_ = tw.Flush()
}

func printSnapshot(w io.Writer, s domain.SessionSnapshot) {
	line := s.State.String()
	if s.Identity != nil {
		line += fmt.Sprintf("  %s (%s)", s.Identity.PublicKey, s.Identity.Network)
		switch s.BalanceState {
		case domain.BalanceKnown:
			line += fmt.Sprintf("  %s XLM", s.Balance)
		case domain.BalanceFailed:
			line += "  balance unavailable"
		default:
			line += "  account not funded"
		}
	}
	if s.LastError != nil {
		line += "  error: " + s.LastError.Error()
	}
	fmt.Fprintln(w, line)
}
