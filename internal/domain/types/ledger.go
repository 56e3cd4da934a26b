package types

import "github.com/shopspring/decimal"

// Balance is the result of a native-asset balance lookup.
type Balance struct {
	State  BalanceState
	amount decimal.Decimal
	Err    error
}

// KnownBalance returns a Balance holding amount.
func KnownBalance(amount decimal.Decimal) Balance {
	return Balance{State: BalanceKnown, amount: amount}
}

// UnknownBalance is returned for accounts the ledger does not know.
func UnknownBalance() Balance { return Balance{State: BalanceUnknown} }

// FailedBalance records a failed lookup.
func FailedBalance(err error) Balance { return Balance{State: BalanceFailed, Err: err} }

// Amount returns the balance, or zero when it is not known.
func (b Balance) Amount() decimal.Decimal {
	if b.State != BalanceKnown {
		return decimal.Zero
	}
	return b.amount
}

// String renders Amount with the native precision.
func (b Balance) String() string { return FormatAmount(b.Amount()) }

// SubmitResult is the ledger's acceptance of a signed transaction.
type SubmitResult struct {
	Hash    TxHash `json:"hash"`
	Success bool   `json:"successful"`
	Ledger  int64  `json:"ledger"`
}

// SignOptions binds a signature request to a network and signer.
type SignOptions struct {
	NetworkPassphrase string  `json:"networkPassphrase"`
	Address           Address `json:"address"`
}
