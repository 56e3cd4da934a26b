package types

// BillStatus is the aggregate settlement state of a bill.
type BillStatus string

const (
	BillOpen    BillStatus = "open"
	BillSettled BillStatus = "settled"
)

// Participant is one person's obligation within a bill.
// Paid is true exactly when TxHash is set.
type Participant struct {
	Address    Address `json:"address"`
	Name       string  `json:"name"`
	AmountOwed string  `json:"amountOwed"`
	Paid       bool    `json:"paid"`
	TxHash     TxHash  `json:"txHash,omitempty"`
}

// Bill is the persisted aggregate of a split bill.
type Bill struct {
	ID               BillID        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	TotalAmount      string        `json:"totalAmount"`
	CreatorAddress   Address       `json:"creatorAddress"`
	RecipientAddress Address       `json:"recipientAddress"`
	Participants     []Participant `json:"participants"`
	CreatedAt        int64         `json:"createdAt"` // unix millis
	Status           BillStatus    `json:"status"`
}

// Participant returns the participant with the given address.
func (b Bill) Participant(addr Address) (Participant, int, bool) {
	for i, p := range b.Participants {
		if p.Address == addr {
			return p, i, true
		}
	}
	return Participant{}, -1, false
}

// AllPaid reports whether every participant has paid.
func (b Bill) AllPaid() bool {
	for _, p := range b.Participants {
		if !p.Paid {
			return false
		}
	}
	return true
}

// ParticipantInput is an unvalidated participant entry.
type ParticipantInput struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

// CreateBillInput is the unvalidated request to create a bill.
type CreateBillInput struct {
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	TotalAmount      string             `json:"totalAmount"`
	CreatorAddress   Address            `json:"creatorAddress"`
	RecipientAddress Address            `json:"recipientAddress"`
	Participants     []ParticipantInput `json:"participants"`
}
