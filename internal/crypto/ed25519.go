package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// KeyPair is an ed25519 signing key with its account id.
type KeyPair struct {
	priv    ed25519.PrivateKey
	address string
}

// KeyPairFromSeed builds a key pair from a 32-byte ed25519 seed.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed: want %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	addr, err := EncodeAddress(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &KeyPair{priv: priv, address: addr}, nil
}

// RandomKeyPair returns a fresh key pair.
func RandomKeyPair() (*KeyPair, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	defer Wipe(seed)
	return KeyPairFromSeed(seed)
}

// Address returns the account id (G...).
func (k *KeyPair) Address() string { return k.address }

// Public returns the raw public key.
func (k *KeyPair) Public() ed25519.PublicKey { return k.priv.Public().(ed25519.PublicKey) }

// Hint returns the last four bytes of the public key.
func (k *KeyPair) Hint() [4]byte { return SignatureHint(k.Public()) }

// Sign signs msg.
func (k *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}

// Seed returns a copy of the 32-byte private seed. Callers wipe it.
func (k *KeyPair) Seed() []byte { return k.priv.Seed() }

// Wipe zeroes the private key.
func (k *KeyPair) Wipe() { Wipe(k.priv) }

// SignatureHint returns the last four bytes of pub.
func SignatureHint(pub []byte) [4]byte {
	var h [4]byte
	if len(pub) >= 4 {
		copy(h[:], pub[len(pub)-4:])
	}
	return h
}

// VerifyAddress verifies sig over msg with the key behind addr.
func VerifyAddress(addr string, msg, sig []byte) bool {
	pub, err := DecodeAddress(addr)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}
