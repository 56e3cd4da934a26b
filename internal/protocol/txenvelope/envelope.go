package txenvelope

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stellarsplit/internal/crypto"
)

const (
	envelopeTypeTx = "ENVELOPE_TYPE_TX"

	// AssetNative marks the ledger's base asset.
	AssetNative = "native"
	// OpPayment is the only operation type this system builds.
	OpPayment = "payment"
	// MaxMemoLength is the maximum text memo size in bytes.
	MaxMemoLength = 28
)

var (
	ErrMalformed   = errors.New("malformed transaction envelope")
	ErrMemoTooLong = fmt.Errorf("memo longer than %d bytes", MaxMemoLength)
)

// TimeBounds limits when a transaction may be applied (unix seconds).
// A zero MaxTime means unbounded.
type TimeBounds struct {
	MinTime int64 `json:"min_time"`
	MaxTime int64 `json:"max_time"`
}

// Payment moves Amount of Asset from the source to Destination.
type Payment struct {
	Destination string `json:"destination"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
}

// Operation is a single ledger operation.
type Operation struct {
	Type    string   `json:"type"`
	Payment *Payment `json:"payment,omitempty"`
}

// Transaction is the signed body of an envelope.
type Transaction struct {
	Source     string      `json:"source"`
	Fee        int64       `json:"fee"`
	SeqNum     int64       `json:"seq_num"`
	TimeBounds TimeBounds  `json:"time_bounds"`
	Memo       string      `json:"memo,omitempty"`
	Operations []Operation `json:"operations"`
}

// DecoratedSignature is a signature with the hint of its key.
type DecoratedSignature struct {
	Hint      []byte `json:"hint"`
	Signature []byte `json:"signature"`
}

// Envelope is a transaction together with its signatures.
type Envelope struct {
	Tx         Transaction          `json:"tx"`
	Signatures []DecoratedSignature `json:"signatures"`
}

// PaymentParams describes a single native payment.
type PaymentParams struct {
	Source      string
	SeqNum      int64
	Fee         int64
	Memo        string
	Destination string
	Amount      string
	Timeout     time.Duration
}

// NewPayment builds an unsigned envelope for one native payment whose
// validity window closes Timeout after now.
func NewPayment(p PaymentParams, now time.Time) (Envelope, error) {
	if len(p.Memo) > MaxMemoLength {
		return Envelope{}, ErrMemoTooLong
	}
	var bounds TimeBounds
	if p.Timeout > 0 {
		bounds.MaxTime = now.Add(p.Timeout).Unix()
	}
	return Envelope{
		Tx: Transaction{
			Source:     p.Source,
			Fee:        p.Fee,
			SeqNum:     p.SeqNum,
			TimeBounds: bounds,
			Memo:       p.Memo,
			Operations: []Operation{{
				Type: OpPayment,
				Payment: &Payment{
					Destination: p.Destination,
					Asset:       AssetNative,
					Amount:      p.Amount,
				},
			}},
		},
	}, nil
}

// NetworkID returns the identifier of the network named by passphrase.
func NetworkID(passphrase string) [32]byte {
	return sha256.Sum256([]byte(passphrase))
}

// Hash returns the network-bound hash of the transaction.
func (tx Transaction) Hash(passphrase string) ([32]byte, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return [32]byte{}, err
	}
	nid := NetworkID(passphrase)
	var buf bytes.Buffer
	buf.Write(nid[:])
	buf.WriteString(envelopeTypeTx)
	buf.Write(body)
	return sha256.Sum256(buf.Bytes()), nil
}

// HashHex returns Hash hex-encoded.
func (tx Transaction) HashHex(passphrase string) (string, error) {
	h, err := tx.Hash(passphrase)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h[:]), nil
}

// Sign appends a signature by kp for the given network.
func (e *Envelope) Sign(passphrase string, kp *crypto.KeyPair) error {
	h, err := e.Tx.Hash(passphrase)
	if err != nil {
		return err
	}
	hint := kp.Hint()
	e.Signatures = append(e.Signatures, DecoratedSignature{
		Hint:      hint[:],
		Signature: kp.Sign(h[:]),
	})
	return nil
}

// VerifySigner reports whether the envelope carries a valid signature from
// addr for the given network.
func (e Envelope) VerifySigner(passphrase, addr string) bool {
	pub, err := crypto.DecodeAddress(addr)
	if err != nil {
		return false
	}
	hint := crypto.SignatureHint(pub)
	h, err := e.Tx.Hash(passphrase)
	if err != nil {
		return false
	}
	for _, sig := range e.Signatures {
		if !bytes.Equal(sig.Hint, hint[:]) {
			continue
		}
		if crypto.VerifyAddress(addr, h[:], sig.Signature) {
			return true
		}
	}
	return false
}

// Encode serialises the envelope to its base64 transport form.
func Encode(e Envelope) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode parses the base64 transport form.
func Decode(s string) (Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var e Envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(e.Tx.Operations) == 0 {
		return Envelope{}, fmt.Errorf("%w: no operations", ErrMalformed)
	}
	return e, nil
}
