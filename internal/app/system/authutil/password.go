// Package authutil holds credential hashing for filedepot.
package authutil

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashPassword returns the hex-encoded SHA-1 digest of the password.
//
// KNOWN WEAKNESS: this is an unsalted, fast, general-purpose digest,
// not a password-hashing function. It is kept only for compatibility
// with hashes already stored by existing deployments; migrating to
// bcrypt or argon2 would invalidate every stored credential. Do not
// copy this scheme into a new design.
func HashPassword(password string) string {
	sum := sha1.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword compares a plain-text password with a stored digest.
func CheckPassword(password, digest string) bool {
	return HashPassword(password) == digest
}
