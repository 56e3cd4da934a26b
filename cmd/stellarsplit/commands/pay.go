package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stellarsplit/internal/domain"
)

// pay <bill-id> [participant]: pay a share from the connected wallet.
func payCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <bill-id> [participant-address]",
		Short: "Pay a participant's share from the connected wallet",
		Long: "Pay a participant's share to the bill's recipient. The participant " +
			"defaults to the connected wallet's address.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := domain.BillID(args[0])

			var participant domain.Address
			if len(args) == 2 {
				participant = domain.Address(args[1])
			} else {
				ident, err := appCtx.Session.Connect(ctx)
				if err != nil {
					return err
				}
				participant = ident.PublicKey
			}

			res, err := appCtx.Settlement.PayShare(ctx, id, participant)
			if err != nil {
				if res.TxHash != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "payment %s reached the ledger but was not recorded\n", res.TxHash)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Paid. Transaction %s (ledger %d)\n", res.TxHash, res.Ledger)
			if u := appCtx.Config.TxURL(res.TxHash.String()); u != "" {
				fmt.Fprintln(out, u)
			}
			return nil
		},
	}
}
