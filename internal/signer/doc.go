// Package signer implements a development signing agent.
//
// # Overview
//
// The agent holds one ed25519 key, usually derived from a BIP-39 mnemonic and
// kept in an encrypted keystore, and serves the /v1 API consumed by
// internal/agent. Access grants and signatures go through an Approver, which
// is either automatic (tests, scripted demos) or an interactive terminal
// prompt.
//
// Failures are reported the way browser wallets report them: HTTP 200 with a
// non-empty "error" object. Only malformed requests get a 4xx status.
//
// A locked agent (no key loaded) still answers the availability routes but
// refuses identity and signing requests.
package signer
