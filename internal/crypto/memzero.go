package crypto

import "runtime"

// Wipe zeroes key material in place once it is no longer needed.
//
//go:noinline
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}
