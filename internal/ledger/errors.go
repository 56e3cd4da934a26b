package ledger

import (
	"errors"
	"fmt"
	"strings"

	"stellarsplit/internal/domain"
)

// ErrAccountNotFound is returned by LoadAccount for unknown accounts.
var ErrAccountNotFound = errors.New("account not found")

// LedgerError is a failed ledger operation.
type LedgerError struct {
	Op      string
	Status  int
	TxCode  string
	OpCodes []string
	Detail  string
	Err     error
}

func (e *LedgerError) Error() string {
	var b strings.Builder
	b.WriteString("ledger ")
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.TxCode != "" {
		fmt.Fprintf(&b, ": %s", e.TxCode)
		if len(e.OpCodes) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(e.OpCodes, ", "))
		}
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes domain.ErrLedger and the underlying cause.
func (e *LedgerError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrLedger}
	}
	return []error{domain.ErrLedger, e.Err}
}

// HasCode reports whether code appears among the transaction or operation
// result codes.
func (e *LedgerError) HasCode(code string) bool {
	if e.TxCode == code {
		return true
	}
	for _, c := range e.OpCodes {
		if c == code {
			return true
		}
	}
	return false
}
