// Package bill applies bill state transitions and persists them.
//
// It is the only writer of bill records. Every operation reloads the
// collection from the repository, so a List always reflects durable state.
// A participant is marked paid only through ConfirmPayment, which callers
// invoke after the ledger accepted the payment; the bill becomes settled
// exactly when its last participant is confirmed.
package bill
