package signer

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/metrics"
	"stellarsplit/internal/protocol/txenvelope"
)

// Error codes reported in the "error" object.
const (
	CodeInternal     = -1
	CodeNotAllowed   = -3
	CodeUserDeclined = -4
	CodeLocked       = -5
	CodeBadRequest   = -6
)

// Config configures an Agent.
type Config struct {
	Network           string
	NetworkPassphrase string
	Approver          Approver
	AllowedOrigins    []string
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
}

// Agent is a single-key signing agent.
type Agent struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	key     *crypto.KeyPair
	allowed bool
}

// New returns an agent. key may be nil, leaving the agent locked.
func New(cfg Config, key *crypto.KeyPair) *Agent {
	if cfg.Approver == nil {
		cfg.Approver = DenyApprover{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Agent{cfg: cfg, log: log.With("component", "signer"), key: key}
}

// Unlock installs key.
func (a *Agent) Unlock(key *crypto.KeyPair) {
	a.mu.Lock()
	a.key = key
	a.mu.Unlock()
}

// Lock wipes and forgets the key and any access grant.
func (a *Agent) Lock() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.key != nil {
		a.key.Wipe()
	}
	a.key = nil
	a.allowed = false
}

// Address returns the agent's address, or "" when locked.
func (a *Agent) Address() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.key == nil {
		return ""
	}
	return a.key.Address()
}

// Handler exposes the /v1 API with CORS for browser clients.
func (a *Agent) Handler() http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/connected", a.handleConnected).Methods(http.MethodGet)
	v1.HandleFunc("/allowed", a.handleAllowed).Methods(http.MethodGet)
	v1.HandleFunc("/access", a.handleAccess).Methods(http.MethodPost)
	v1.HandleFunc("/address", a.handleAddress).Methods(http.MethodGet)
	v1.HandleFunc("/network", a.handleNetwork).Methods(http.MethodGet)
	v1.HandleFunc("/sign", a.handleSign).Methods(http.MethodPost)

	origins := a.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, msg string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: msg}})
}

func (a *Agent) handleConnected(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"isConnected": true})
}

func (a *Agent) handleAllowed(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	allowed := a.allowed && a.key != nil
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"isAllowed": allowed})
}

func (a *Agent) handleAccess(w http.ResponseWriter, r *http.Request) {
	addr := a.Address()
	if addr == "" {
		writeError(w, http.StatusOK, CodeLocked, "agent is locked")
		return
	}
	if !a.cfg.Approver.ApproveAccess(r.Context(), r.Header.Get("Origin")) {
		a.log.Info("access declined")
		writeError(w, http.StatusOK, CodeUserDeclined, "user declined access")
		return
	}
	a.mu.Lock()
	a.allowed = true
	a.mu.Unlock()
	a.log.Info("access granted", "origin", r.Header.Get("Origin"))
	writeJSON(w, http.StatusOK, map[string]string{"address": addr})
}

func (a *Agent) handleAddress(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	key, allowed := a.key, a.allowed
	a.mu.Unlock()
	switch {
	case key == nil:
		writeError(w, http.StatusOK, CodeLocked, "agent is locked")
	case !allowed:
		writeError(w, http.StatusOK, CodeNotAllowed, "application is not allowed")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"address": key.Address()})
	}
}

func (a *Agent) handleNetwork(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"network":           a.cfg.Network,
		"networkPassphrase": a.cfg.NetworkPassphrase,
	})
}

type signRequest struct {
	XDR               string `json:"xdr"`
	NetworkPassphrase string `json:"networkPassphrase"`
	Address           string `json:"address"`
}

func (a *Agent) handleSign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}
	outcome := a.sign(w, r, req)
	a.cfg.Metrics.ObserveSignature(outcome)
}

func (a *Agent) sign(w http.ResponseWriter, r *http.Request, req signRequest) string {
	a.mu.Lock()
	key, allowed := a.key, a.allowed
	a.mu.Unlock()
	if key == nil {
		writeError(w, http.StatusOK, CodeLocked, "agent is locked")
		return "locked"
	}
	if !allowed {
		writeError(w, http.StatusOK, CodeNotAllowed, "application is not allowed")
		return "not_allowed"
	}
	if req.NetworkPassphrase != "" && req.NetworkPassphrase != a.cfg.NetworkPassphrase {
		writeError(w, http.StatusOK, CodeInternal, "network passphrase does not match the active network")
		return "wrong_network"
	}
	if req.Address != "" && req.Address != key.Address() {
		writeError(w, http.StatusOK, CodeInternal, "requested signer is not the active account")
		return "wrong_signer"
	}
	env, err := txenvelope.Decode(req.XDR)
	if err != nil {
		writeError(w, http.StatusOK, CodeBadRequest, err.Error())
		return "malformed"
	}
	if env.Tx.Source != key.Address() {
		writeError(w, http.StatusOK, CodeInternal, "transaction source is not the active account")
		return "wrong_signer"
	}
	if !a.cfg.Approver.ApproveSign(r.Context(), summarize(a.cfg.Network, env)) {
		a.log.Info("signature declined")
		writeError(w, http.StatusOK, CodeUserDeclined, "user declined to sign")
		return "declined"
	}
	if err := env.Sign(a.cfg.NetworkPassphrase, key); err != nil {
		writeError(w, http.StatusOK, CodeInternal, err.Error())
		return "error"
	}
	signed, err := txenvelope.Encode(env)
	if err != nil {
		writeError(w, http.StatusOK, CodeInternal, err.Error())
		return "error"
	}
	a.log.Info("transaction signed", "seq", env.Tx.SeqNum)
	writeJSON(w, http.StatusOK, map[string]string{
		"signedTxXdr":       signed,
		"signerAddress":     key.Address(),
		"networkPassphrase": a.cfg.NetworkPassphrase,
	})
	return "approved"
}

func summarize(network string, env txenvelope.Envelope) SignSummary {
	s := SignSummary{Network: network, Source: env.Tx.Source, Memo: env.Tx.Memo}
	for _, op := range env.Tx.Operations {
		if op.Payment != nil {
			s.Destination = op.Payment.Destination
			s.Amount = op.Payment.Amount
			break
		}
	}
	return s
}
