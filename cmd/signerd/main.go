package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"

	"stellarsplit/internal/app"
	"stellarsplit/internal/crypto"
	"stellarsplit/internal/metrics"
	"stellarsplit/internal/platform/httpserve"
	"stellarsplit/internal/signer"
	"stellarsplit/internal/store"
)

const passphraseEnv = "STELLARSPLIT_SIGNER_PASSPHRASE"

var (
	home       string
	passphrase string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "signerd",
		Short:         "Local signing agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".stellarsplit", "signer")
			}
			if passphrase == "" {
				passphrase = os.Getenv(passphraseEnv)
			}
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p or %s)", passphraseEnv)
			}
			return os.MkdirAll(home, 0o700)
		},
	}
	root.PersistentFlags().StringVar(&home, "home", "", "key dir (default ~/.stellarsplit/signer)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the key")
	root.AddCommand(initCmd(), serveCmd())
	return root
}

func initCmd() *cobra.Command {
	var (
		mnemonic string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or import the signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks := store.NewKeyFileStore(home)
			if ks.Exists() && !force {
				return errors.New("a key already exists; pass --force to replace it")
			}
			generated := mnemonic == ""
			if generated {
				entropy, err := bip39.NewEntropy(256)
				if err != nil {
					return err
				}
				if mnemonic, err = bip39.NewMnemonic(entropy); err != nil {
					return err
				}
			}
			kp, err := keyFromMnemonic(mnemonic)
			if err != nil {
				return err
			}
			defer kp.Wipe()
			if err := ks.SaveSeed(passphrase, kp.Seed()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if generated {
				fmt.Fprintf(out, "Recovery phrase (write it down, it is not shown again):\n\n  %s\n\n", mnemonic)
			}
			fmt.Fprintf(out, "Address: %s\n", kp.Address())
			return nil
		},
	}
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "import this BIP-39 phrase instead of generating one")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing key")
	return cmd
}

func keyFromMnemonic(mnemonic string) (*crypto.KeyPair, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")
	defer crypto.Wipe(seed)
	account, err := crypto.DeriveAccountSeed(seed, 0)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(account)
	return crypto.KeyPairFromSeed(account)
}

func serveCmd() *cobra.Command {
	var (
		addr              string
		network           string
		networkPassphrase string
		approve           string
		origins           []string
		logLevel          string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := app.NewLogger(os.Stderr, logLevel, "text")
			if err != nil {
				return err
			}
			approver, err := newApprover(approve, cmd)
			if err != nil {
				return err
			}
			kp, err := store.NewKeyFileStore(home).LoadKeyPair(passphrase)
			if err != nil {
				return fmt.Errorf("unlock key: %w", err)
			}

			reg := prometheus.NewRegistry()
			agent := signer.New(signer.Config{
				Network:           network,
				NetworkPassphrase: networkPassphrase,
				Approver:          approver,
				AllowedOrigins:    origins,
				Logger:            log,
				Metrics:           metrics.New(reg),
			}, kp)
			defer agent.Lock()

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			mux.Handle("/", agent.Handler())

			log.Info("agent unlocked", "address", agent.Address(), "network", network)
			return httpserve.Run(cmd.Context(), addr, mux, log.With("component", "signerd"))
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:8100", "listen address")
	f.StringVar(&network, "network", app.TestnetName, "network name reported to clients")
	f.StringVar(&networkPassphrase, "network-passphrase", app.TestnetPassphrase, "network passphrase to sign for")
	f.StringVar(&approve, "approve", "prompt", "approval mode (prompt|auto|deny)")
	f.StringSliceVar(&origins, "origin", nil, "allowed CORS origins (default any)")
	f.StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}

func newApprover(mode string, cmd *cobra.Command) (signer.Approver, error) {
	switch mode {
	case "prompt":
		return signer.NewPromptApprover(cmd.InOrStdin(), cmd.ErrOrStderr()), nil
	case "auto":
		return signer.AutoApprover{}, nil
	case "deny":
		return signer.DenyApprover{}, nil
	}
	return nil, fmt.Errorf("unknown approval mode %q", mode)
}
