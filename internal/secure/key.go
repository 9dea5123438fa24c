package secure

import (
	"errors"
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when key material is accessed after Destroy.
var ErrDestroyed = errors.New("key material already destroyed")

// Key holds a resolved API key sealed in an encrypted memory enclave.
// The enclave encrypts the key at rest in memory and protects it from
// swapping via mlock, so a resolution result can be passed around without
// leaving plaintext copies in every stack frame.
//
// memguard enclaves have no direct destroy operation; Destroy here drops
// the reference and marks the key unusable. For full cleanup of all
// memguard-managed memory at exit, call memguard.Purge() in main.
type Key struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy calls and blocks use after destroy
	destroyed bool
}

// NewKey seals the given value into a protected enclave. The byte copy
// handed to memguard is wiped once sealed. The value argument itself is an
// immutable Go string in ordinary memory, so callers should let it go out
// of scope promptly.
func NewKey(value string) *Key {
	// memguard returns a nil enclave for empty input; Reveal handles it
	return &Key{
		enclave: memguard.NewEnclave([]byte(value)),
	}
}

// Reveal decrypts the key and returns a plaintext copy. The copy lives in
// ordinary garbage-collected memory, so reveal as late as possible and only
// where the plaintext actually leaves the process (stdout, a template, an
// HTTP header).
func (k *Key) Reveal() (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.destroyed {
		return "", ErrDestroyed
	}
	if k.enclave == nil {
		return "", nil
	}

	locked, err := k.enclave.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open key enclave: %w", err)
	}
	defer locked.Destroy()

	return string(locked.Bytes()), nil
}

// Len reports the key length in bytes without revealing it
func (k *Key) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.destroyed || k.enclave == nil {
		return 0
	}
	return k.enclave.Size()
}

// Destroy marks the key unusable. Idempotent; after Destroy, Reveal
// returns ErrDestroyed. The encrypted enclave itself is left for the
// garbage collector, which is safe since it never holds plaintext.
func (k *Key) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return
	}
	k.enclave = nil
	k.destroyed = true
}
