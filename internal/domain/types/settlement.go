package types

// SettlementResult is produced by one successful payment. It is the input
// to the payment-confirmation transition and is not persisted itself.
type SettlementResult struct {
	ParticipantAddress Address `json:"participantAddress"`
	TxHash             TxHash  `json:"txHash"`
	Success            bool    `json:"success"`
	Ledger             int64   `json:"ledger,omitempty"`
}
