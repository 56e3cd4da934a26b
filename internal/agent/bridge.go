package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
	"stellarsplit/internal/protocol/txenvelope"
)

// API routes served by a signing agent.
const (
	PathConnected = "/v1/connected"
	PathAllowed   = "/v1/allowed"
	PathAccess    = "/v1/access"
	PathAddress   = "/v1/address"
	PathNetwork   = "/v1/network"
	PathSign      = "/v1/sign"
)

// State is the bridge's view of agent availability.
type State int

const (
	StateUnknown State = iota
	StateProbing
	StateAvailable
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Config configures a Bridge.
type Config struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// Bridge talks to a signing agent over HTTP.
type Bridge struct {
	base string
	http *http.Client
	log  *slog.Logger

	mu    sync.Mutex
	state State
}

var _ domain.SigningAgent = (*Bridge)(nil)

// New returns a bridge for cfg.BaseURL.
func New(cfg Config) *Bridge {
	if cfg.HTTP == nil {
		cfg.HTTP = http.DefaultClient
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bridge{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: cfg.HTTP,
		log:  log.With("component", "agent"),
	}
}

// State returns the result of the last probe.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// Probe reports whether a signing agent is present.
func (b *Bridge) Probe(ctx context.Context) bool {
	b.setState(StateProbing)
	var c struct {
		IsConnected bool `json:"isConnected"`
	}
	if err := b.call(ctx, http.MethodGet, PathConnected, nil, &c); err == nil {
		b.setState(StateAvailable)
		return true
	}
	var a struct {
		IsAllowed bool `json:"isAllowed"`
	}
	err := b.call(ctx, http.MethodGet, PathAllowed, nil, &a)
	if err == nil {
		b.setState(StateAvailable)
		return true
	}
	if unavailable(err) {
		b.log.Debug("agent unavailable", "err", err)
		b.setState(StateUnavailable)
		return false
	}
	b.setState(StateAvailable)
	return true
}

func unavailable(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not installed") || strings.Contains(msg, "extension")
}

// IsAllowed reports whether the user has authorised this application.
func (b *Bridge) IsAllowed(ctx context.Context) (bool, error) {
	var out struct {
		IsAllowed bool `json:"isAllowed"`
	}
	if err := b.call(ctx, http.MethodGet, PathAllowed, nil, &out); err != nil {
		return false, err
	}
	return out.IsAllowed, nil
}

// RequestAccess asks the user to authorise this application.
func (b *Bridge) RequestAccess(ctx context.Context) error {
	var out struct {
		Address string `json:"address"`
	}
	if err := b.call(ctx, http.MethodPost, PathAccess, struct{}{}, &out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAccessDenied, err)
	}
	if out.Address == "" {
		return fmt.Errorf("%w: no address granted", domain.ErrAccessDenied)
	}
	return nil
}

// Identity returns the agent's active address together with the network
// name and passphrase it is configured for.
func (b *Bridge) Identity(ctx context.Context) (domain.WalletIdentity, error) {
	var addr struct {
		Address string `json:"address"`
	}
	if err := b.call(ctx, http.MethodGet, PathAddress, nil, &addr); err != nil {
		return domain.WalletIdentity{}, fmt.Errorf("%w: %v", domain.ErrIdentityUnavailable, err)
	}
	if !crypto.ValidAddress(addr.Address) {
		return domain.WalletIdentity{}, fmt.Errorf("%w: agent returned no usable address", domain.ErrIdentityUnavailable)
	}
	var nw struct {
		Network           string `json:"network"`
		NetworkPassphrase string `json:"networkPassphrase"`
	}
	if err := b.call(ctx, http.MethodGet, PathNetwork, nil, &nw); err != nil {
		return domain.WalletIdentity{}, fmt.Errorf("%w: %v", domain.ErrIdentityUnavailable, err)
	}
	return domain.WalletIdentity{
		PublicKey:         domain.Address(addr.Address),
		Network:           domain.NetworkID(nw.Network),
		NetworkPassphrase: nw.NetworkPassphrase,
	}, nil
}

type signRequest struct {
	XDR               string `json:"xdr"`
	NetworkPassphrase string `json:"networkPassphrase"`
	Address           string `json:"address,omitempty"`
}

type signResponse struct {
	SignedTxXDR       string `json:"signedTxXdr"`
	SignerAddress     string `json:"signerAddress"`
	NetworkPassphrase string `json:"networkPassphrase"`
}

// Sign asks the agent to sign envelope for opts.NetworkPassphrase. The
// returned envelope must carry a valid signature by the requested signer
// (or the transaction source) over the hash for that passphrase, whether or
// not the agent echoes the network back.
func (b *Bridge) Sign(ctx context.Context, envelope string, opts domain.SignOptions) (string, error) {
	var out signResponse
	err := b.call(ctx, http.MethodPost, PathSign, signRequest{
		XDR:               envelope,
		NetworkPassphrase: opts.NetworkPassphrase,
		Address:           opts.Address.String(),
	}, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSigningRejected, err)
	}
	if out.SignedTxXDR == "" {
		return "", fmt.Errorf("%w: agent returned no signed transaction", domain.ErrSigningRejected)
	}
	if out.NetworkPassphrase != "" && out.NetworkPassphrase != opts.NetworkPassphrase {
		return "", fmt.Errorf("%w: signed for network %q", domain.ErrSigningRejected, out.NetworkPassphrase)
	}
	if out.SignerAddress != "" && opts.Address != "" && out.SignerAddress != opts.Address.String() {
		return "", fmt.Errorf("%w: signed by %s", domain.ErrSigningRejected, domain.Address(out.SignerAddress).Short())
	}

	env, err := txenvelope.Decode(out.SignedTxXDR)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSigningRejected, err)
	}
	want := opts.Address.String()
	if want == "" {
		want = env.Tx.Source
	}
	if !env.VerifySigner(opts.NetworkPassphrase, want) {
		return "", fmt.Errorf("%w: no signature by %s for the requested network",
			domain.ErrSigningRejected, domain.Address(want).Short())
	}
	return out.SignedTxXDR, nil
}

// call performs one request. The response body is decoded twice: once for
// the error field and once into out.
func (b *Bridge) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, b.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &transportError{err: err}
	}
	var envelope struct {
		Error Error `json:"error"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil && resp.StatusCode/100 == 2 {
			return fmt.Errorf("agent %s %s: decode response: %w", method, path, err)
		}
	}
	if !envelope.Error.empty() {
		return &envelope.Error
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("agent %s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

type transportError struct{ err error }

func (e *transportError) Error() string { return "agent unreachable: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }
