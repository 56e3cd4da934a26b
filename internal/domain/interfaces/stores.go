package interfaces

import (
	"context"

	domaintypes "stellarsplit/internal/domain/types"
)

// BillRepository persists the full bill collection under one fixed key.
// Every write replaces the whole collection.
type BillRepository interface {
	LoadBills(ctx context.Context) ([]domaintypes.Bill, error)
	// UpdateBills reads the collection, applies fn and writes the result
	// back. If fn returns an error nothing is written.
	UpdateBills(
		ctx context.Context,
		fn func([]domaintypes.Bill) ([]domaintypes.Bill, error),
	) error
}

// KeyStore holds the signing agent's encrypted secret seed.
type KeyStore interface {
	SaveSeed(passphrase string, seed []byte) error
	LoadSeed(passphrase string) ([]byte, error)
	Exists() bool
}
