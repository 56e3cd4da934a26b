// Package ledger provides the HTTP client for the Horizon-shaped ledger
// service.
//
// It reads account sequence numbers and native balances, and builds, signs
// (through a caller-supplied domain.Signer) and submits single payment
// transactions. Requests are rate limited client-side and carry the caller's
// context for cancellation.
//
// Every build or submit failure is returned as a *LedgerError, which matches
// domain.ErrLedger under errors.Is and carries the HTTP status and the
// ledger's transaction and operation result codes. Signing failures are
// returned unchanged so callers can tell a declined signature from a ledger
// rejection. Nothing is retried here.
package ledger
