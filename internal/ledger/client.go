package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"stellarsplit/internal/domain"
	"stellarsplit/internal/metrics"
	"stellarsplit/internal/protocol/txenvelope"
)

const opLoadAccount = "load account"

// Defaults applied by New.
const (
	DefaultBaseFee   = 100
	DefaultMemo      = "StellarSplit"
	DefaultTxTimeout = 180 * time.Second
	DefaultRPS       = 10
)

// Config configures a Client.
type Config struct {
	BaseURL           string
	NetworkPassphrase string
	BaseFee           int64
	Memo              string
	TxTimeout         time.Duration
	RPS               float64
	HTTP              *http.Client
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	Now               func() time.Time
}

// Client talks to the ledger service.
type Client struct {
	cfg     Config
	base    string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

var _ domain.LedgerClient = (*Client)(nil)

// New returns a client for cfg.BaseURL.
func New(cfg Config) *Client {
	if cfg.BaseFee <= 0 {
		cfg.BaseFee = DefaultBaseFee
	}
	if cfg.Memo == "" {
		cfg.Memo = DefaultMemo
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = DefaultTxTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = DefaultRPS
	}
	if cfg.HTTP == nil {
		cfg.HTTP = http.DefaultClient
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		cfg:     cfg,
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTP,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), int(cfg.RPS)+1),
		log:     log.With("component", "ledger"),
	}
}

// NetworkPassphrase returns the passphrase transactions are bound to.
func (c *Client) NetworkPassphrase() string { return c.cfg.NetworkPassphrase }

// AccountBalance is one balance line of an account.
type AccountBalance struct {
	AssetType string `json:"asset_type"`
	Balance   string `json:"balance"`
}

// Account is the ledger's view of an account.
type Account struct {
	ID       string           `json:"id"`
	Sequence int64            `json:"sequence,string"`
	Balances []AccountBalance `json:"balances"`
}

// NativeBalance returns the native balance line, or zero if absent.
func (a Account) NativeBalance() (decimal.Decimal, error) {
	for _, b := range a.Balances {
		if b.AssetType == txenvelope.AssetNative {
			return domain.ParseAmount(b.Balance)
		}
	}
	return decimal.Zero, nil
}

// LoadAccount fetches address's sequence number and balances.
func (c *Client) LoadAccount(ctx context.Context, address domain.Address) (Account, error) {
	var acc Account
	err := c.getJSON(ctx, opLoadAccount, "/accounts/"+url.PathEscape(address.String()), &acc)
	c.cfg.Metrics.ObserveLedgerRequest("load_account", err)
	return acc, err
}

// LoadBalance returns the native balance of address. An unknown account
// yields an Unknown balance and any other failure a Failed one; both report
// a zero Amount.
func (c *Client) LoadBalance(ctx context.Context, address domain.Address) domain.Balance {
	acc, err := c.LoadAccount(ctx, address)
	if err != nil {
		if isNotFound(err) {
			return domain.UnknownBalance()
		}
		c.log.Warn("balance lookup failed", "account", address.Short(), "err", err)
		return domain.FailedBalance(err)
	}
	amt, err := acc.NativeBalance()
	if err != nil {
		return domain.FailedBalance(err)
	}
	return domain.KnownBalance(amt)
}

// BuildAndSubmitPayment sends amount of the native asset from sender to
// destination. The envelope is built against the sender's current sequence
// number, signed through signer and submitted once.
func (c *Client) BuildAndSubmitPayment(
	ctx context.Context,
	sender domain.Address,
	destination domain.Address,
	amount decimal.Decimal,
	signer domain.Signer,
) (domain.SubmitResult, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(domain.AmountPrecision)) {
		return domain.SubmitResult{}, &LedgerError{Op: "build payment", Err: fmt.Errorf("%w: amount %s", domain.ErrInvalidInput, amount)}
	}
	acc, err := c.LoadAccount(ctx, sender)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	env, err := txenvelope.NewPayment(txenvelope.PaymentParams{
		Source:      sender.String(),
		SeqNum:      acc.Sequence + 1,
		Fee:         c.cfg.BaseFee,
		Memo:        c.cfg.Memo,
		Destination: destination.String(),
		Amount:      domain.FormatAmount(amount),
		Timeout:     c.cfg.TxTimeout,
	}, c.cfg.Now())
	if err != nil {
		return domain.SubmitResult{}, &LedgerError{Op: "build payment", Err: err}
	}
	unsigned, err := txenvelope.Encode(env)
	if err != nil {
		return domain.SubmitResult{}, &LedgerError{Op: "build payment", Err: err}
	}

	signed, err := signer(ctx, unsigned)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("sign payment: %w", err)
	}

	res, err := c.submit(ctx, signed)
	c.cfg.Metrics.ObserveLedgerRequest("submit", err)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	c.log.Info("payment submitted",
		"from", sender.Short(), "to", destination.Short(),
		"amount", domain.FormatAmount(amount), "hash", res.Hash, "ledger", res.Ledger)
	return res, nil
}

// Friendbot asks the ledger's development faucet to fund address.
func (c *Client) Friendbot(ctx context.Context, address domain.Address) error {
	var out domain.SubmitResult
	err := c.getJSON(ctx, "friendbot", "/friendbot?addr="+url.QueryEscape(address.String()), &out)
	c.cfg.Metrics.ObserveLedgerRequest("friendbot", err)
	return err
}

func (c *Client) submit(ctx context.Context, envelope string) (domain.SubmitResult, error) {
	const op = "submit transaction"
	form := url.Values{"tx": {envelope}}
	var out domain.SubmitResult
	if err := c.do(ctx, op, http.MethodPost, "/transactions",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &out); err != nil {
		return domain.SubmitResult{}, err
	}
	if !out.Success {
		return domain.SubmitResult{}, &LedgerError{Op: op, Status: http.StatusOK, Detail: "transaction not successful"}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, "", nil, out)
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &LedgerError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &LedgerError{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return &LedgerError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return problemError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &LedgerError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Extras struct {
		ResultCodes struct {
			Transaction string   `json:"transaction"`
			Operations  []string `json:"operations"`
		} `json:"result_codes"`
	} `json:"extras"`
}

func problemError(op string, resp *http.Response) error {
	e := &LedgerError{Op: op, Status: resp.StatusCode}
	if op == opLoadAccount && resp.StatusCode == http.StatusNotFound {
		e.Err = ErrAccountNotFound
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var p problem
	if json.Unmarshal(raw, &p) == nil {
		e.TxCode = p.Extras.ResultCodes.Transaction
		e.OpCodes = p.Extras.ResultCodes.Operations
		e.Detail = p.Detail
		if e.Detail == "" {
			e.Detail = p.Title
		}
	} else if len(raw) > 0 {
		e.Detail = strconv.Quote(strings.TrimSpace(string(raw)))
	}
	return e
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
