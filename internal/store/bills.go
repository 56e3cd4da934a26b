package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"stellarsplit/internal/domain"
)

// BillsKey is the fixed key the bill collection is stored under.
const BillsKey = "stellar_split_bills"

// ErrCorrupt is returned when the persisted collection cannot be decoded.
// Updates refuse to run over a corrupt collection rather than replace it.
var ErrCorrupt = errors.New("persisted bills are corrupt")

func decodeBills(b []byte) ([]domain.Bill, error) {
	if len(b) == 0 {
		return []domain.Bill{}, nil
	}
	var bills []domain.Bill
	if err := json.Unmarshal(b, &bills); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if bills == nil {
		bills = []domain.Bill{}
	}
	return bills, nil
}

func encodeBills(bills []domain.Bill) ([]byte, error) {
	if bills == nil {
		bills = []domain.Bill{}
	}
	return json.MarshalIndent(bills, "", "  ")
}
