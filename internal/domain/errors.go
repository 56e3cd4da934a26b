package domain

import "errors"

// Error kinds surfaced by the core. Callers match them with errors.Is;
// producers wrap them with context using fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidInput covers a bad title, amount, address or participant set.
	ErrInvalidInput = errors.New("invalid input")

	// Wallet connection failures.
	ErrNotInstalled        = errors.New("signing agent is not reachable")
	ErrAccessDenied        = errors.New("signing agent denied access")
	ErrWrongNetwork        = errors.New("signing agent is on the wrong network")
	ErrTimeout             = errors.New("wallet connection timed out")
	ErrIdentityUnavailable = errors.New("wallet identity unavailable; unlock the signing agent")
	ErrNotConnected        = errors.New("no wallet connected")

	// ErrIdentityMismatch means the connected wallet does not own the share.
	ErrIdentityMismatch = errors.New("connected wallet does not match participant")

	// ErrSigningRejected means the user declined or the agent failed to sign.
	ErrSigningRejected = errors.New("signing rejected")

	// ErrLedger is the kind of every build/submit failure.
	ErrLedger = errors.New("ledger error")

	ErrNotFound        = errors.New("not found")
	ErrAlreadyPaid     = errors.New("participant already paid")
	ErrPaymentInFlight = errors.New("payment already in progress for participant")
)
