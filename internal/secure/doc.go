// Package secure provides memory-safe handling of resolved API keys.
//
// This package wraps the memguard library so a key can sit in process
// memory between resolution and use without plaintext copies accumulating.
// Sealed keys are:
//
//   - Encrypted at rest in memory (XSalsa20Poly1305)
//   - Protected from swapping via mlock
//   - Guarded against buffer overflow via guard pages
//
// # Usage
//
// Seal a key as soon as it is resolved:
//
//	key := secure.NewKey(resolvedValue)
//	defer key.Destroy()
//
//	// Only where the plaintext leaves the process:
//	plaintext, err := key.Reveal()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(plaintext)
//
// # Platform Behavior
//
// Memory locking varies by platform:
//
//   - Linux: requires RLIMIT_MEMLOCK headroom
//   - macOS: works out of the box
//   - Windows: uses VirtualLock
//
// If mlock is unavailable memguard degrades to standard allocation rather
// than failing, so resolution still works inside constrained containers.
//
// # Security Guarantees
//
// Sealing keys defends against memory-based leaks:
//
//   - Core dumps do not contain plaintext keys
//   - Keys are not swapped to disk
//   - The working copy is zeroed after each Reveal
//
// It does NOT protect against an attacker with root on the running host,
// hardware-level attacks, or the plaintext copies that Reveal necessarily
// hands back to the caller.
package secure
