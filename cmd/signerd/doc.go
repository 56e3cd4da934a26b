// Package main runs a single-key signing agent for local development.
//
// Commands
//
//   - init   Generate (or import) a BIP-39 mnemonic, derive the account key
//     at m/44'/148'/0' and store its seed encrypted under a passphrase
//   - serve  Unlock the stored key and serve the /v1 agent API
//
// The passphrase is read from --passphrase or STELLARSPLIT_SIGNER_PASSPHRASE.
// Access and signing requests are approved according to --approve: "prompt"
// asks on the terminal, "auto" approves everything and "deny" declines.
package main
