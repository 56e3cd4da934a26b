package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stellarsplit/internal/app"
)

var (
	home       string
	configPath string
	horizonURL string
	agentURL   string
	storage    string
	logLevel   string
	appCtx     *app.Wire
)

// Execute runs the CLI with ctx as the base context for every command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stellarsplit",
		Short:         "Split bills and settle shares on a Stellar-style ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".stellarsplit")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			cfg, err := app.Load(home, configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg)

			log, err := app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			appCtx, err = app.NewWire(cfg, log, nil)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			return appCtx.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&home, "home", "", "data dir (default ~/.stellarsplit)")
	pf.StringVar(&configPath, "config", "", "config file (default <home>/config.yaml)")
	pf.StringVar(&horizonURL, "horizon", "", "ledger API base URL")
	pf.StringVar(&agentURL, "agent", "", "signing agent base URL")
	pf.StringVar(&storage, "storage", "", "bill storage driver (file|sqlite)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")

	root.AddCommand(billCmd(), payCmd(), walletCmd())
	return root
}

// applyFlags overlays flags the user actually set.
func applyFlags(cmd *cobra.Command, cfg *app.Config) {
	fs := cmd.Flags()
	if fs.Changed("horizon") {
		cfg.HorizonURL = horizonURL
	}
	if fs.Changed("agent") {
		cfg.AgentURL = agentURL
	}
	if fs.Changed("storage") {
		cfg.Storage.Driver = storage
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
}
