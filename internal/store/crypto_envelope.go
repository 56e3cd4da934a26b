package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// keystoreFormatVersion is the newest encrypted blob format this package writes.
const keystoreFormatVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// ciphertext was modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted keystore")

// sealedBlob is the on-disk JSON holding the ciphertext and KDF parameters.
type sealedBlob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

type kdfParams struct{ N, R, P int }

// defaultKDF is the scrypt cost used for new keystores.
var defaultKDF = kdfParams{N: 1 << 15, R: 8, P: 1}

// seal derives a key from passphrase and encrypts plain with the salt as
// associated data.
func seal(passphrase string, plain []byte, kdf kdfParams) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	aead, err := deriveAEAD(passphrase, salt[:], kdf)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte // fresh salt per seal gives a fresh key
	return json.Marshal(sealedBlob{
		V:      keystoreFormatVersion,
		Salt:   salt[:],
		N:      kdf.N,
		R:      kdf.R,
		P:      kdf.P,
		Cipher: aead.Seal(nil, nonce[:], plain, salt[:]),
	})
}

// open reverses seal.
func open(passphrase string, b []byte) ([]byte, error) {
	var bl sealedBlob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	if bl.V > keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", bl.V)
	}
	aead, err := deriveAEAD(passphrase, bl.Salt, kdfParams{N: bl.N, R: bl.R, P: bl.P})
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func deriveAEAD(passphrase string, salt []byte, kdf kdfParams) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, kdf.N, kdf.R, kdf.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	return chacha20poly1305.New(key)
}
