package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	domaintypes "stellarsplit/internal/domain/types"
)

// WalletSession owns the connection to the signing agent.
type WalletSession interface {
	Connect(ctx context.Context) (domaintypes.WalletIdentity, error)
	Disconnect()
	Refresh(ctx context.Context)
	Identity() (domaintypes.WalletIdentity, bool)
	Snapshot() domaintypes.SessionSnapshot
}

// PaymentExecutor runs one participant payment end to end.
type PaymentExecutor interface {
	Pay(
		ctx context.Context,
		payer domaintypes.WalletIdentity,
		participant domaintypes.Address,
		destination domaintypes.Address,
		amount decimal.Decimal,
	) (domaintypes.SettlementResult, error)
}

// BillStore applies bill state transitions and persists them.
type BillStore interface {
	Create(ctx context.Context, in domaintypes.CreateBillInput) (domaintypes.Bill, error)
	ConfirmPayment(
		ctx context.Context,
		id domaintypes.BillID,
		participant domaintypes.Address,
		hash domaintypes.TxHash,
	) (domaintypes.Bill, error)
	List(ctx context.Context) ([]domaintypes.Bill, error)
	Get(ctx context.Context, id domaintypes.BillID) (domaintypes.Bill, error)
	Delete(ctx context.Context, id domaintypes.BillID) error
}
