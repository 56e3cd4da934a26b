package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	domaintypes "stellarsplit/internal/domain/types"
)

// Signer turns an unsigned transaction envelope into a signed one.
type Signer func(ctx context.Context, envelope string) (string, error)

// LedgerClient reads balances from and submits payments to the ledger service.
type LedgerClient interface {
	LoadBalance(ctx context.Context, address domaintypes.Address) domaintypes.Balance
	BuildAndSubmitPayment(
		ctx context.Context,
		sender domaintypes.Address,
		destination domaintypes.Address,
		amount decimal.Decimal,
		signer Signer,
	) (domaintypes.SubmitResult, error)
}

// SigningAgent talks to the external, user-controlled signing agent.
type SigningAgent interface {
	Probe(ctx context.Context) bool
	IsAllowed(ctx context.Context) (bool, error)
	RequestAccess(ctx context.Context) error
	Identity(ctx context.Context) (domaintypes.WalletIdentity, error)
	Sign(ctx context.Context, envelope string, opts domaintypes.SignOptions) (string, error)
}
