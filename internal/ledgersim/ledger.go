package ledgersim

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
	"stellarsplit/internal/metrics"
	"stellarsplit/internal/protocol/txenvelope"
)

// Transaction and operation result codes.
const (
	CodeSuccess             = "tx_success"
	CodeFailed              = "tx_failed"
	CodeMalformed           = "tx_malformed"
	CodeNoSource            = "tx_no_source_account"
	CodeTooEarly            = "tx_too_early"
	CodeTooLate             = "tx_too_late"
	CodeBadSeq              = "tx_bad_seq"
	CodeBadAuth             = "tx_bad_auth"
	CodeInsufficientFee     = "tx_insufficient_fee"
	CodeInsufficientBalance = "tx_insufficient_balance"

	OpSuccess       = "op_success"
	OpMalformed     = "op_malformed"
	OpUnderfunded   = "op_underfunded"
	OpNoDestination = "op_no_destination"
	OpNotSupported  = "op_not_supported"
)

// DefaultFriendbotAmount is what Fund credits when no amount is configured.
const DefaultFriendbotAmount = "10000"

// Rejection describes why a transaction was not applied.
type Rejection struct {
	Transaction string
	Operations  []string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("transaction rejected: %s %v", r.Transaction, r.Operations)
}

// Result is the outcome of an applied transaction.
type Result struct {
	Hash   string
	Ledger int64
}

// Account is the public view of an account.
type Account struct {
	ID       string
	Sequence int64
	Balance  decimal.Decimal
}

type account struct {
	balance int64 // stroops
	seq     int64
}

// Options configures a Ledger.
type Options struct {
	Passphrase      string
	BaseFee         int64
	FriendbotAmount string
	Now             func() time.Time
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

// Ledger is a goroutine-safe in-memory ledger.
type Ledger struct {
	mu       sync.Mutex
	opts     Options
	fund     int64
	accounts map[string]*account
	applied  map[string]Result
	ledger   int64
}

// New returns an empty ledger.
func New(opts Options) (*Ledger, error) {
	if opts.Passphrase == "" {
		return nil, fmt.Errorf("ledgersim: network passphrase required")
	}
	if opts.BaseFee <= 0 {
		opts.BaseFee = 100
	}
	if opts.FriendbotAmount == "" {
		opts.FriendbotAmount = DefaultFriendbotAmount
	}
	amt, err := domain.ParseAmount(opts.FriendbotAmount)
	if err != nil {
		return nil, fmt.Errorf("ledgersim: friendbot amount: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Ledger{
		opts:     opts,
		fund:     domain.ToStroops(amt),
		accounts: make(map[string]*account),
		applied:  make(map[string]Result),
		ledger:   1,
	}, nil
}

// Passphrase returns the network passphrase the ledger verifies against.
func (l *Ledger) Passphrase() string { return l.opts.Passphrase }

// Fund credits the friendbot amount to addr, creating the account if needed.
func (l *Ledger) Fund(addr string) error {
	return l.Credit(addr, l.fund)
}

// Credit adds stroops to addr, creating the account if needed.
func (l *Ledger) Credit(addr string, stroops int64) error {
	if _, err := crypto.DecodeAddress(addr); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[addr]
	if !ok {
		acc = &account{seq: l.ledger << 32}
		l.accounts[addr] = acc
	}
	acc.balance += stroops
	l.opts.Logger.Info("account funded", "account", addr, "amount", domain.FormatAmount(domain.FromStroops(stroops)))
	return nil
}

// Account returns the current state of addr.
func (l *Ledger) Account(addr string) (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return Account{}, false
	}
	return Account{ID: addr, Sequence: acc.seq, Balance: domain.FromStroops(acc.balance)}, true
}

// Submit validates and applies an encoded envelope.
func (l *Ledger) Submit(encoded string) (Result, error) {
	res, err := l.submit(encoded)
	code := CodeSuccess
	if rej, ok := err.(*Rejection); ok {
		code = rej.Transaction
	}
	l.opts.Metrics.ObserveSubmission(code)
	if err != nil {
		l.opts.Logger.Warn("transaction rejected", "err", err)
	} else {
		l.opts.Logger.Info("transaction applied", "hash", res.Hash, "ledger", res.Ledger)
	}
	return res, err
}

func (l *Ledger) submit(encoded string) (Result, error) {
	env, err := txenvelope.Decode(encoded)
	if err != nil {
		return Result{}, &Rejection{Transaction: CodeMalformed}
	}
	hash, err := env.Tx.HashHex(l.opts.Passphrase)
	if err != nil {
		return Result{}, &Rejection{Transaction: CodeMalformed}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.applied[hash]; ok {
		return prev, nil
	}

	src, ok := l.accounts[env.Tx.Source]
	if !ok {
		return Result{}, &Rejection{Transaction: CodeNoSource}
	}
	now := l.opts.Now().Unix()
	tb := env.Tx.TimeBounds
	if tb.MinTime > 0 && now < tb.MinTime {
		return Result{}, &Rejection{Transaction: CodeTooEarly}
	}
	if tb.MaxTime > 0 && now > tb.MaxTime {
		return Result{}, &Rejection{Transaction: CodeTooLate}
	}
	if env.Tx.SeqNum != src.seq+1 {
		return Result{}, &Rejection{Transaction: CodeBadSeq}
	}
	if !env.VerifySigner(l.opts.Passphrase, env.Tx.Source) {
		return Result{}, &Rejection{Transaction: CodeBadAuth}
	}
	fee := l.opts.BaseFee * int64(len(env.Tx.Operations))
	if env.Tx.Fee < fee {
		return Result{}, &Rejection{Transaction: CodeInsufficientFee}
	}
	if src.balance < env.Tx.Fee {
		return Result{}, &Rejection{Transaction: CodeInsufficientBalance}
	}

	// Fee and sequence are consumed even when an operation fails.
	src.balance -= env.Tx.Fee
	src.seq = env.Tx.SeqNum

	codes, ok := l.applyOps(src, env.Tx.Operations)
	if !ok {
		return Result{}, &Rejection{Transaction: CodeFailed, Operations: codes}
	}
	l.ledger++
	res := Result{Hash: hash, Ledger: l.ledger}
	l.applied[hash] = res
	return res, nil
}

type credit struct {
	to     *account
	amount int64
}

// applyOps applies all operations or none of them.
func (l *Ledger) applyOps(src *account, ops []txenvelope.Operation) ([]string, bool) {
	codes := make([]string, len(ops))
	credits := make([]credit, 0, len(ops))
	failed := false
	remaining := src.balance
	for i, op := range ops {
		codes[i] = OpSuccess
		if op.Type != txenvelope.OpPayment || op.Payment == nil {
			codes[i], failed = OpNotSupported, true
			continue
		}
		p := op.Payment
		amt, err := domain.ParseAmount(p.Amount)
		if err != nil || !amt.IsPositive() || p.Asset != txenvelope.AssetNative {
			codes[i], failed = OpMalformed, true
			continue
		}
		dst, ok := l.accounts[p.Destination]
		if !ok {
			codes[i], failed = OpNoDestination, true
			continue
		}
		stroops := domain.ToStroops(amt)
		if remaining < stroops {
			codes[i], failed = OpUnderfunded, true
			continue
		}
		remaining -= stroops
		credits = append(credits, credit{to: dst, amount: stroops})
	}
	if failed {
		return codes, false
	}
	src.balance = remaining
	for _, c := range credits {
		c.to.balance += c.amount
	}
	return codes, true
}

// RandomHash returns a random hex hash, used for friendbot receipts.
func RandomHash() string {
	var b [32]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
