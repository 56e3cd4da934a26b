// Package crypto exposes the minimal primitives used by stellarsplit.
//
// Contents
//
//   - Strkey account ids and secret seeds: base32 with a version byte and a
//     CRC16-XModem checksum (ValidAddress, EncodeAddress, DecodeAddress,
//     EncodeSeed, DecodeSeed)
//   - Ed25519 key pairs, signing and verification (KeyPair, VerifyAddress)
//   - SLIP-10 derivation of account seeds from a BIP-39 seed (DeriveAccountSeed)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Notes
//
// ValidAddress is a purely syntactic check used when filtering user input;
// anything that is signed or verified goes through DecodeAddress, which also
// checks the version byte and checksum.
package crypto
