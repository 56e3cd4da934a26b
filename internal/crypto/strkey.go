package crypto

import (
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
)

// Version bytes of the strkey encoding.
const (
	versionAccountID byte = 6 << 3  // 'G'
	versionSeed      byte = 18 << 3 // 'S'
)

// AddressLength is the length of an encoded account id or seed.
const AddressLength = 56

var (
	strkeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

	ErrInvalidStrkey   = errors.New("invalid strkey")
	ErrInvalidChecksum = errors.New("invalid strkey checksum")
)

// ValidAddress reports whether s has the shape of an account id: 56
// characters from the base32 alphabet starting with 'G'. It does not verify
// the checksum; use DecodeAddress for that.
func ValidAddress(s string) bool {
	if len(s) != AddressLength || s[0] != 'G' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '2' && c <= '7') {
			return false
		}
	}
	return true
}

// LooksLikeSeed reports whether s has the shape of a secret seed.
func LooksLikeSeed(s string) bool {
	return len(s) == AddressLength && s[0] == 'S' && ValidAddress("G"+s[1:])
}

// EncodeAddress encodes an ed25519 public key as an account id.
func EncodeAddress(pub []byte) (string, error) {
	return encode(versionAccountID, pub)
}

// DecodeAddress returns the ed25519 public key behind an account id.
func DecodeAddress(addr string) ([]byte, error) {
	return decode(versionAccountID, addr)
}

// EncodeSeed encodes a 32-byte ed25519 seed as a secret strkey.
func EncodeSeed(seed []byte) (string, error) {
	return encode(versionSeed, seed)
}

// DecodeSeed returns the raw 32-byte ed25519 seed of a secret strkey.
func DecodeSeed(s string) ([]byte, error) {
	return decode(versionSeed, s)
}

func encode(version byte, payload []byte) (string, error) {
	if len(payload) != 32 {
		return "", fmt.Errorf("%w: payload must be 32 bytes, got %d", ErrInvalidStrkey, len(payload))
	}
	raw := make([]byte, 0, 35)
	raw = append(raw, version)
	raw = append(raw, payload...)
	raw = binary.LittleEndian.AppendUint16(raw, crc16XModem(raw))
	return strkeyEncoding.EncodeToString(raw), nil
}

func decode(version byte, s string) ([]byte, error) {
	if len(s) != AddressLength {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidStrkey, len(s))
	}
	raw, err := strkeyEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStrkey, err)
	}
	if len(raw) != 35 || raw[0] != version {
		return nil, fmt.Errorf("%w: unexpected version byte", ErrInvalidStrkey)
	}
	body, sum := raw[:33], raw[33:]
	if binary.LittleEndian.Uint16(sum) != crc16XModem(body) {
		return nil, ErrInvalidChecksum
	}
	out := make([]byte, 32)
	copy(out, body[1:])
	return out, nil
}

// crc16XModem is CRC-16 with polynomial 0x1021 and a zero initial value.
func crc16XModem(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
