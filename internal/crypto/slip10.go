package crypto

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
)

const (
	hardenedOffset uint32 = 0x80000000
	stellarCoin    uint32 = 148
)

var errShortSeed = errors.New("slip10: seed must be at least 16 bytes")

// DeriveAccountSeed derives the ed25519 seed of m/44'/148'/account' from a
// BIP-39 seed using SLIP-10 hardened derivation.
func DeriveAccountSeed(bip39Seed []byte, account uint32) ([]byte, error) {
	if len(bip39Seed) < 16 {
		return nil, errShortSeed
	}
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(bip39Seed)
	sum := mac.Sum(nil)
	key, chain := sum[:32], sum[32:]

	for _, idx := range []uint32{44, stellarCoin, account} {
		key, chain = deriveHardened(key, chain, idx)
	}
	out := make([]byte, 32)
	copy(out, key)
	Wipe(sum)
	return out, nil
}

func deriveHardened(key, chain []byte, index uint32) ([]byte, []byte) {
	data := make([]byte, 0, 37)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index|hardenedOffset)

	mac := hmac.New(sha512.New, chain)
	mac.Write(data)
	sum := mac.Sum(nil)
	Wipe(data)
	return sum[:32], sum[32:]
}
