package app

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"stellarsplit/internal/agent"
	"stellarsplit/internal/domain"
	"stellarsplit/internal/ledger"
	"stellarsplit/internal/metrics"
	billsvc "stellarsplit/internal/services/bill"
	paymentsvc "stellarsplit/internal/services/payment"
	sessionsvc "stellarsplit/internal/services/session"
	settlementsvc "stellarsplit/internal/services/settlement"
	"stellarsplit/internal/store"
)

// Wire bundles all repositories, services, and clients for the CLI.
type Wire struct {
	Config     Config
	Log        *slog.Logger
	Metrics    *metrics.Metrics
	Ledger     *ledger.Client
	Agent      *agent.Bridge
	Session    *sessionsvc.Service
	Payments   *paymentsvc.Service
	Bills      *billsvc.Service
	Settlement *settlementsvc.Service

	closers []func() error
}

// NewWire constructs the dependency graph from cfg. Metrics are registered
// on reg when it is non-nil.
func NewWire(cfg Config, log *slog.Logger, reg prometheus.Registerer) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	m := metrics.New(reg)

	w := &Wire{Config: cfg, Log: log, Metrics: m}

	repo, err := w.openRepository()
	if err != nil {
		return nil, err
	}

	w.Ledger = ledger.New(ledger.Config{
		BaseURL:           cfg.HorizonURL,
		NetworkPassphrase: cfg.NetworkPassphrase,
		BaseFee:           cfg.BaseFee,
		Memo:              cfg.Memo,
		TxTimeout:         cfg.TxTimeout,
		RPS:               cfg.LedgerRPS,
		HTTP:              httpClient,
		Logger:            log,
		Metrics:           m,
	})
	w.Agent = agent.New(agent.Config{BaseURL: cfg.AgentURL, HTTP: httpClient, Logger: log})

	// High-level services
	w.Session = sessionsvc.New(w.Agent, w.Ledger, sessionsvc.Config{
		Network:           domain.NetworkID(cfg.Network),
		NetworkPassphrase: cfg.NetworkPassphrase,
		ConnectTimeout:    cfg.ConnectTimeout,
		RefreshInterval:   cfg.RefreshInterval,
		Logger:            log,
		Metrics:           m,
	})
	w.closers = append(w.closers, func() error { w.Session.Disconnect(); return nil })
	w.Payments = paymentsvc.New(w.Ledger, w.Agent, cfg.NetworkPassphrase, log, m)
	w.Bills = billsvc.New(repo, log, m)
	w.Settlement = settlementsvc.New(w.Bills, w.Session, w.Payments, log)
	return w, nil
}

func (w *Wire) openRepository() (domain.BillRepository, error) {
	cfg := w.Config
	switch cfg.Storage.Driver {
	case StorageSQLite:
		path := cfg.Storage.Path
		if path == "" {
			path = filepath.Join(cfg.Home, "stellarsplit.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		r, err := store.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, r.Close)
		return r, nil
	default:
		dir := cfg.Storage.Path
		if dir == "" {
			dir = cfg.Home
		}
		return store.NewFileBillRepository(dir), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (w *Wire) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}
