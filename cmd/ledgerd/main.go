package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"stellarsplit/internal/app"
	"stellarsplit/internal/ledgersim"
	"stellarsplit/internal/metrics"
	"stellarsplit/internal/platform/httpserve"
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
	var (
		addr       string
		passphrase string
		baseFee    int64
		fundAmount string
		logLevel   string
		logFormat  string
	)
	cmd := &cobra.Command{
		Use:           "ledgerd",
		Short:         "In-memory development ledger",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := app.NewLogger(os.Stderr, logLevel, logFormat)
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			l, err := ledgersim.New(ledgersim.Options{
				Passphrase:      passphrase,
				BaseFee:         baseFee,
				FriendbotAmount: fundAmount,
				Logger:          log,
				Metrics:         metrics.New(reg),
			})
			if err != nil {
				return err
			}
			return httpserve.Run(cmd.Context(), addr, newMux(l, reg), log.With("component", "ledgerd"))
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	f.StringVar(&passphrase, "passphrase", app.TestnetPassphrase, "network passphrase")
	f.Int64Var(&baseFee, "base-fee", 100, "minimum fee per operation in stroops")
	f.StringVar(&fundAmount, "friendbot-amount", ledgersim.DefaultFriendbotAmount, "XLM granted per friendbot call")
	f.StringVar(&logLevel, "log-level", "info", "log level")
	f.StringVar(&logFormat, "log-format", "text", "log format (text|json)")
	return cmd
}

func newMux(l *ledgersim.Ledger, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", l.Handler())
	return mux
}
