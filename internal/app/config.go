package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stellarsplit/internal/ledger"
	"stellarsplit/internal/services/session"
)

// Network defaults.
const (
	TestnetName       = "TESTNET"
	TestnetPassphrase = "Test SDF Network ; September 2015"
)

// Storage drivers.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

const envPrefix = "STELLARSPLIT_"

// StorageConfig selects the bill repository.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Path is a directory for the file driver and a database file for
	// sqlite. Empty means inside Home.
	Path string `yaml:"path"`
}

// Config holds runtime wiring options for building the app.
type Config struct {
	Home              string        `yaml:"-"`
	Network           string        `yaml:"network"`
	NetworkPassphrase string        `yaml:"network_passphrase"`
	HorizonURL        string        `yaml:"horizon_url"`
	AgentURL          string        `yaml:"agent_url"`
	Storage           StorageConfig `yaml:"storage"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	RefreshInterval   time.Duration `yaml:"refresh_interval"`
	TxTimeout         time.Duration `yaml:"tx_timeout"`
	BaseFee           int64         `yaml:"base_fee"`
	Memo              string        `yaml:"memo"`
	LedgerRPS         float64       `yaml:"ledger_rps"`
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
	ExplorerURL       string        `yaml:"explorer_url"`

	HTTP *http.Client `yaml:"-"` // optional; defaults to http.DefaultClient
}

// Defaults returns the built-in configuration rooted at home.
func Defaults(home string) Config {
	return Config{
		Home:              home,
		Network:           TestnetName,
		NetworkPassphrase: TestnetPassphrase,
		HorizonURL:        "http://127.0.0.1:8000",
		AgentURL:          "http://127.0.0.1:8100",
		Storage:           StorageConfig{Driver: StorageFile},
		ConnectTimeout:    session.DefaultConnectTimeout,
		RefreshInterval:   session.DefaultRefreshInterval,
		TxTimeout:         ledger.DefaultTxTimeout,
		BaseFee:           ledger.DefaultBaseFee,
		Memo:              ledger.DefaultMemo,
		LedgerRPS:         ledger.DefaultRPS,
		LogLevel:          "info",
		LogFormat:         "text",
		ExplorerURL:       "https://stellar.expert/explorer/testnet/tx/",
	}
}

// Load builds a Config for home. path names a YAML file; when empty,
// <home>/config.yaml is used if it exists.
func Load(home, path string) (Config, error) {
	cfg := Defaults(home)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(home, "config.yaml")
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, err
	}

	// .env files never override variables already set in the environment.
	_ = godotenv.Load(filepath.Join(home, ".env"))
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"NETWORK":            &c.Network,
		"NETWORK_PASSPHRASE": &c.NetworkPassphrase,
		"HORIZON_URL":        &c.HorizonURL,
		"AGENT_URL":          &c.AgentURL,
		"STORAGE_DRIVER":     &c.Storage.Driver,
		"STORAGE_PATH":       &c.Storage.Path,
		"MEMO":               &c.Memo,
		"LOG_LEVEL":          &c.LogLevel,
		"LOG_FORMAT":         &c.LogFormat,
		"EXPLORER_URL":       &c.ExplorerURL,
	}
	for k, p := range str {
		if v, ok := os.LookupEnv(envPrefix + k); ok {
			*p = v
		}
	}

	dur := map[string]*time.Duration{
		"CONNECT_TIMEOUT":  &c.ConnectTimeout,
		"REFRESH_INTERVAL": &c.RefreshInterval,
		"TX_TIMEOUT":       &c.TxTimeout,
	}
	for k, p := range dur {
		if v, ok := os.LookupEnv(envPrefix + k); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, k, err)
			}
			*p = d
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "BASE_FEE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sBASE_FEE: %w", envPrefix, err)
		}
		c.BaseFee = n
	}
	if v, ok := os.LookupEnv(envPrefix + "LEDGER_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sLEDGER_RPS: %w", envPrefix, err)
		}
		c.LedgerRPS = f
	}
	return nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.Home == "":
		return errors.New("config: home directory required")
	case c.NetworkPassphrase == "":
		return errors.New("config: network_passphrase required")
	case c.HorizonURL == "":
		return errors.New("config: horizon_url required")
	case c.AgentURL == "":
		return errors.New("config: agent_url required")
	case c.Storage.Driver != StorageFile && c.Storage.Driver != StorageSQLite:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	case c.ConnectTimeout <= 0 || c.RefreshInterval <= 0 || c.TxTimeout <= 0:
		return errors.New("config: timeouts must be positive")
	case c.BaseFee <= 0:
		return errors.New("config: base_fee must be positive")
	}
	return nil
}

// TxURL returns the explorer link for hash, or "" if no explorer is set.
func (c Config) TxURL(hash string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return c.ExplorerURL + hash
}
