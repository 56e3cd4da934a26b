// Package ledgersim is an in-memory ledger service speaking the
// Horizon-shaped HTTP API consumed by internal/ledger.
//
// # Overview
//
// It holds native balances and sequence numbers for a set of accounts and
// applies single-signature payment transactions. A submission is checked in
// the order a real ledger would: envelope shape, source account, validity
// window, sequence, signature, fee and finally each operation. Rejections
// carry the same transaction and operation result codes the client maps
// into ledger errors.
//
// It exists for development and tests; state is lost on restart.
package ledgersim
