package types

// WalletIdentity is the connected signer. It is never persisted.
type WalletIdentity struct {
	PublicKey         Address   `json:"publicKey"`
	Network           NetworkID `json:"network"`
	NetworkPassphrase string    `json:"networkPassphrase,omitempty"`
}

// SessionState is the wallet connection lifecycle state.
type SessionState int

const (
	SessionDisconnected SessionState = iota
	SessionConnecting
	SessionConnected
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// BalanceState distinguishes a known balance from one that could not be read.
type BalanceState int

const (
	// BalanceUnknown means the account does not exist on the ledger.
	BalanceUnknown BalanceState = iota
	BalanceKnown
	// BalanceFailed means the query itself failed.
	BalanceFailed
)

func (s BalanceState) String() string {
	switch s {
	case BalanceKnown:
		return "known"
	case BalanceFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionSnapshot is a point-in-time view of a wallet session.
type SessionSnapshot struct {
	State        SessionState
	Identity     *WalletIdentity
	Balance      string
	BalanceState BalanceState
	LastError    error
}
