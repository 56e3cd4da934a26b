package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stellarsplit/internal/domain"
)

func billCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Create, inspect and delete bills",
	}
	cmd.AddCommand(billCreateCmd(), billListCmd(), billShowCmd(), billDeleteCmd())
	return cmd
}

// bill create --title T --total N --participant "Name=G..." [...]
func billCreateCmd() *cobra.Command {
	var (
		in           domain.CreateBillInput
		creator      string
		recipient    string
		participants []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Split a total equally between participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for _, p := range participants {
				pi, err := parseParticipant(p)
				if err != nil {
					return err
				}
				in.Participants = append(in.Participants, pi)
			}
			in.CreatorAddress = domain.Address(creator)
			in.RecipientAddress = domain.Address(recipient)

			if creator == "" {
				// The creator defaults to the connected wallet.
				if _, err := appCtx.Session.Connect(ctx); err != nil {
					return fmt.Errorf("connect wallet (or pass --creator): %w", err)
				}
			}
			b, err := appCtx.Settlement.CreateBill(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bill %s created.\n", b.ID)
			printBill(cmd.OutOrStdout(), b)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "bill title")
	f.StringVar(&in.Description, "description", "", "optional description")
	f.StringVar(&in.TotalAmount, "total", "", "total amount in XLM")
	f.StringVar(&creator, "creator", "", "creator address (default: connected wallet)")
	f.StringVar(&recipient, "recipient", "", "address receiving payments (default: creator)")
	f.StringArrayVar(&participants, "participant", nil, `participant as "Name=ADDRESS" (repeatable)`)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("participant")
	return cmd
}

func parseParticipant(s string) (domain.ParticipantInput, error) {
	name, addr, ok := strings.Cut(s, "=")
	if !ok {
		return domain.ParticipantInput{}, fmt.Errorf("participant %q: want Name=ADDRESS", s)
	}
	return domain.ParticipantInput{Name: name, Address: domain.Address(addr)}, nil
}

func billListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bills, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bills, err := appCtx.Bills.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(bills) == 0 {
				fmt.Fprintln(out, "No bills.")
				return nil
			}
			for _, b := range bills {
				paid := 0
				for _, p := range b.Participants {
					if p.Paid {
						paid++
					}
				}
				fmt.Fprintf(out, "%s  %-8s %10s XLM  %d/%d paid  %s\n",
					b.ID, b.Status, b.TotalAmount, paid, len(b.Participants), b.Title)
			}
			return nil
		},
	}
}

func billShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <bill-id>",
		Short: "Show a bill and its participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := appCtx.Bills.Get(cmd.Context(), domain.BillID(args[0]))
			if err != nil {
				return err
			}
			printBill(cmd.OutOrStdout(), b)
			return nil
		},
	}
}

func billDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bill-id>",
		Short: "Delete a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := appCtx.Bills.Delete(cmd.Context(), domain.BillID(args[0]))
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no bill %s", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}
