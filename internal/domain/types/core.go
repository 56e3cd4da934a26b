package types

// Address is an account public key in strkey form (G...).
type Address string

// String returns the string form of the address.
func (a Address) String() string { return string(a) }

// Short returns the first and last four characters, e.g. "GABC...WXYZ".
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 8 {
		return s
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// BillID is the opaque identifier of a bill.
type BillID string

// String returns the string form of the bill identifier.
func (id BillID) String() string { return string(id) }

// TxHash is the hex-encoded hash of a submitted transaction.
type TxHash string

// String returns the string form of the transaction hash.
func (h TxHash) String() string { return string(h) }

// NetworkID names a ledger network, e.g. "TESTNET".
type NetworkID string

// String returns the string form of the network identifier.
func (n NetworkID) String() string { return string(n) }
