// Package settlement orchestrates bill creation and share payment across the
// wallet session, the payment executor and the bill store.
//
// PayShare is the only path that moves money. It refuses shares that are
// already paid, allows one attempt per (bill, participant) at a time, and
// records a payment in the bill store only after the ledger accepted it.
package settlement
