package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stellarsplit/internal/domain"
)

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Inspect the signing agent connection",
	}
	cmd.AddCommand(walletConnectCmd(), walletBalanceCmd(), walletWatchCmd(), walletFundCmd())
	return cmd
}

func walletConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect to the signing agent and print the wallet identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ident, err := appCtx.Session.Connect(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected: %s on %s\n", ident.PublicKey, ident.Network)
			return nil
		},
	}
}

func walletBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print the connected wallet's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := appCtx.Session.Connect(cmd.Context()); err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), appCtx.Session.Snapshot())
			return nil
		},
	}
}

// wallet watch prints a line per session change until interrupted.
func walletWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream session and balance updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			updates, cancel := appCtx.Session.Subscribe()
			defer cancel()

			if _, err := appCtx.Session.Connect(ctx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					return nil
				case s, ok := <-updates:
					if !ok {
						return fmt.Errorf("session updates closed")
					}
					printSnapshot(out, s)
				}
			}
		},
	}
}

func walletFundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fund [address]",
		Short: "Fund an address from the ledger's friendbot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var addr domain.Address
			if len(args) == 1 {
				addr = domain.Address(args[0])
			} else {
				ident, err := appCtx.Session.Connect(ctx)
				if err != nil {
					return err
				}
				addr = ident.PublicKey
			}
			if err := appCtx.Ledger.Friendbot(ctx, addr); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Funded %s\n", addr)
			return nil
		},
	}
}
