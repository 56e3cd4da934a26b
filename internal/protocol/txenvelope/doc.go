// Package txenvelope implements the transaction envelope exchanged between
// the ledger client, the signing agent and the ledger service.
//
// # Format
//
// An envelope is canonical JSON holding the transaction body and its
// decorated signatures, transported as standard base64:
//
//	{"tx": {source, fee, seq_num, time_bounds, memo, operations}, "signatures": [{hint, signature}]}
//
// # Hashing and signing
//
// The network id is SHA-256 of the network passphrase. The transaction hash
// is SHA-256 over networkID ‖ "ENVELOPE_TYPE_TX" ‖ JSON(tx), so a signature
// made for one network never verifies on another. Signatures are ed25519 over
// the hash; the hint is the last four bytes of the signer's public key.
//
// # Validity window
//
// Every payment carries time bounds. A transaction whose MaxTime has passed
// is rejected by the ledger regardless of how long signing took; callers must
// rebuild rather than resubmit.
package txenvelope
