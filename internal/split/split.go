// Package split divides a bill total into per-participant obligations.
package split

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
)

// Split returns one unpaid participant per usable entry, each owing
// floor(total·10^7/N)/10^7 of the native asset.
//
// Entries with a blank name or a syntactically invalid address are dropped;
// N counts only the kept entries. Two kept entries with the same address are
// rejected, since a payment settles one address once. Shares are computed in whole stroops, so
// up to N-1 stroops of the total may be left uncollected. That residual is
// accepted and never assigned to anyone.
func Split(total decimal.Decimal, in []domain.ParticipantInput) ([]domain.Participant, error) {
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: total must be positive", domain.ErrInvalidInput)
	}
	if !total.Equal(total.Truncate(domain.AmountPrecision)) {
		return nil, fmt.Errorf("%w: total has more than %d fractional digits",
			domain.ErrInvalidInput, domain.AmountPrecision)
	}
	if total.GreaterThan(domain.MaxAmount) {
		return nil, fmt.Errorf("%w: total exceeds %s", domain.ErrInvalidInput, domain.FormatAmount(domain.MaxAmount))
	}

	kept := make([]domain.ParticipantInput, 0, len(in))
	seen := make(map[string]string, len(in))
	for _, p := range in {
		name := strings.TrimSpace(p.Name)
		addr := strings.TrimSpace(string(p.Address))
		if name == "" || !crypto.ValidAddress(addr) {
			continue
		}
		if prev, dup := seen[addr]; dup {
			return nil, fmt.Errorf("%w: %s and %s share address %s",
				domain.ErrInvalidInput, prev, name, domain.Address(addr).Short())
		}
		seen[addr] = name
		kept = append(kept, domain.ParticipantInput{Name: name, Address: domain.Address(addr)})
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no valid participants", domain.ErrInvalidInput)
	}

	share := domain.FromStroops(domain.ToStroops(total) / int64(len(kept)))
	owed := domain.FormatAmount(share)

	out := make([]domain.Participant, len(kept))
	for i, p := range kept {
		out[i] = domain.Participant{
			Address:    p.Address,
			Name:       p.Name,
			AmountOwed: owed,
		}
	}
	return out, nil
}
