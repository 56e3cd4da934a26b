package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"stellarsplit/internal/domain"
	"stellarsplit/internal/metrics"
)

// Defaults applied by New.
const (
	DefaultConnectTimeout  = 20 * time.Second
	DefaultRefreshInterval = 15 * time.Second
)

// BalanceSource is the part of the ledger client the session needs.
type BalanceSource interface {
	LoadBalance(ctx context.Context, address domain.Address) domain.Balance
}

// Config configures a Service.
type Config struct {
	// Network is the network name the agent must report, e.g. "TESTNET".
	// Empty disables the check.
	Network domain.NetworkID
	// NetworkPassphrase is the passphrase the agent must report. Empty
	// disables the check.
	NetworkPassphrase string
	ConnectTimeout    time.Duration
	RefreshInterval   time.Duration
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
}

// Service is the wallet session.
type Service struct {
	agent   domain.SigningAgent
	ledger  BalanceSource
	cfg     Config
	log     *slog.Logger
	connect singleflight.Group

	mu       sync.Mutex
	gen      uint64
	state    domain.SessionState
	identity *domain.WalletIdentity
	balance  domain.Balance
	lastErr  error
	stop     context.CancelFunc
	loops    sync.WaitGroup

	hub hub
}

var _ domain.WalletSession = (*Service)(nil)

// New constructs a disconnected session.
func New(agent domain.SigningAgent, ledger BalanceSource, cfg Config) *Service {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		agent:  agent,
		ledger: ledger,
		cfg:    cfg,
		log:    log.With("component", "session"),
		hub:    hub{subs: make(map[int]chan domain.SessionSnapshot)},
	}
}

// ConnectTimeout returns the effective connection timeout.
func (s *Service) ConnectTimeout() time.Duration { return s.cfg.ConnectTimeout }

// Connect establishes the session, or returns the current identity if one
// is already connected.
func (s *Service) Connect(ctx context.Context) (domain.WalletIdentity, error) {
	if id, ok := s.Identity(); ok {
		return id, nil
	}
	v, err, _ := s.connect.Do(connectKey, func() (any, error) {
		return s.doConnect(ctx)
	})
	if err != nil {
		return domain.WalletIdentity{}, err
	}
	return v.(domain.WalletIdentity), nil
}

const connectKey = "connect"

type handshakeResult struct {
	id  domain.WalletIdentity
	err error
}

func (s *Service) doConnect(ctx context.Context) (domain.WalletIdentity, error) {
	s.mu.Lock()
	if s.state == domain.SessionConnected && s.identity != nil {
		id := *s.identity
		s.mu.Unlock()
		return id, nil
	}
	s.gen++
	gen := s.gen
	s.state = domain.SessionConnecting
	s.lastErr = nil
	s.mu.Unlock()
	s.publish()

	hctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	done := make(chan handshakeResult, 1)
	go func() {
		id, err := s.handshake(hctx)
		done <- handshakeResult{id: id, err: err}
	}()

	var res handshakeResult
	select {
	case res = <-done:
		if res.err != nil && hctx.Err() != nil {
			res.err = timeoutErr(ctx, hctx)
		}
	case <-hctx.Done():
		res.err = timeoutErr(ctx, hctx)
	}
	s.cfg.Metrics.ObserveConnect(res.err)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug("discarding superseded connection attempt")
		return domain.WalletIdentity{}, fmt.Errorf("%w: connection attempt superseded", domain.ErrNotConnected)
	}
	if res.err != nil {
		s.state = domain.SessionDisconnected
		s.identity = nil
		s.lastErr = res.err
		s.mu.Unlock()
		s.log.Warn("wallet connection failed", "err", res.err)
		s.publish()
		return domain.WalletIdentity{}, res.err
	}
	id := res.id
	s.state = domain.SessionConnected
	s.identity = &id
	s.balance = domain.UnknownBalance()
	loopCtx, stop := context.WithCancel(context.Background())
	s.stop = stop
	s.loops.Add(1)
	s.mu.Unlock()

	go s.refreshLoop(loopCtx)
	s.log.Info("wallet connected", "account", id.PublicKey.Short(), "network", id.Network)
	s.publish()
	s.Refresh(ctx)
	return id, nil
}

func timeoutErr(parent, hctx context.Context) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(hctx.Err(), context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	return hctx.Err()
}

func (s *Service) handshake(ctx context.Context) (domain.WalletIdentity, error) {
	if !s.agent.Probe(ctx) {
		return domain.WalletIdentity{}, domain.ErrNotInstalled
	}
	allowed, err := s.agent.IsAllowed(ctx)
	if err != nil || !allowed {
		if err := s.agent.RequestAccess(ctx); err != nil {
			return domain.WalletIdentity{}, ensureKind(err, domain.ErrAccessDenied)
		}
	}
	id, err := s.agent.Identity(ctx)
	if err != nil {
		return domain.WalletIdentity{}, ensureKind(err, domain.ErrIdentityUnavailable)
	}
	if s.cfg.Network != "" && !strings.EqualFold(id.Network.String(), s.cfg.Network.String()) {
		return domain.WalletIdentity{}, fmt.Errorf("%w: agent is on %q, want %q",
			domain.ErrWrongNetwork, id.Network, s.cfg.Network)
	}
	// The name is only a label; the passphrase decides which ledger a
	// signature is valid on.
	if s.cfg.NetworkPassphrase != "" && id.NetworkPassphrase != s.cfg.NetworkPassphrase {
		return domain.WalletIdentity{}, fmt.Errorf("%w: agent signs for %q",
			domain.ErrWrongNetwork, id.NetworkPassphrase)
	}
	return id, nil
}

func ensureKind(err, kind error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %v", kind, err)
}

// Disconnect clears the identity and balance and stops the refresher. It
// also invalidates any connection attempt still in flight.
func (s *Service) Disconnect() {
	s.mu.Lock()
	s.gen++
	wasConnected := s.state != domain.SessionDisconnected
	s.state = domain.SessionDisconnected
	s.identity = nil
	s.balance = domain.UnknownBalance()
	s.lastErr = nil
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	// Later callers start a fresh attempt instead of joining the stale one.
	s.connect.Forget(connectKey)

	if stop != nil {
		stop()
		s.loops.Wait()
	}
	if wasConnected {
		s.log.Info("wallet disconnected")
	}
	s.publish()
}

// Refresh reloads the cached balance of the connected account. Lookup
// failures leave a zero balance and never change the session state.
func (s *Service) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return
	}
	addr, gen := s.identity.PublicKey, s.gen
	s.mu.Unlock()

	bal := s.ledger.LoadBalance(ctx, addr)
	s.cfg.Metrics.ObserveBalance(bal.State.String())

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.balance = bal
	s.mu.Unlock()
	s.publish()
}

func (s *Service) refreshLoop(ctx context.Context) {
	defer s.loops.Done()
	t := time.NewTicker(s.cfg.RefreshInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Refresh(ctx)
		}
	}
}

// Identity returns the connected identity.
func (s *Service) Identity() (domain.WalletIdentity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SessionConnected || s.identity == nil {
		return domain.WalletIdentity{}, false
	}
	return *s.identity, true
}

// Snapshot returns the current observable state.
func (s *Service) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		State:        s.state,
		Balance:      s.balance.String(),
		BalanceState: s.balance.State,
		LastError:    s.lastErr,
	}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	return snap
}

// Subscribe streams snapshots after every state or balance change. A
// subscriber that falls behind is dropped and its channel closed. Call the
// returned function to unsubscribe.
func (s *Service) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	return s.hub.subscribe()
}

func (s *Service) publish() {
	s.hub.publish(s.Snapshot())
}

type hub struct {
	mu      sync.Mutex
	subs    map[int]chan domain.SessionSnapshot
	nextSub int
}

func (h *hub) subscribe() (<-chan domain.SessionSnapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	ch := make(chan domain.SessionSnapshot, 16)
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			close(sub)
			delete(h.subs, id)
		}
	}
}

func (h *hub) publish(snap domain.SessionSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- snap:
		default:
			close(ch)
			delete(h.subs, id)
		}
	}
}
