// Package crypto holds the deterministic hashing and salting utilities the
// identity provider uses to derive pseudonymous identifiers. Everything here
// must be stable across releases: the digests are exchanged with partners
// and stored in the public-key registry.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// UTCDateTimeFormat is the fixed textual timestamp pattern exchanged with
// callers on create/expire fields.
const UTCDateTimeFormat = "2006-01-02T15:04:05.000Z"

// GenerateB64Hash returns the URL-safe unpadded base64 encoding of the
// SHA-256 digest of data.
func GenerateB64Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateSalt returns length cryptographically random bytes.
func GenerateSalt(length int) ([]byte, error) {
	salt := make([]byte, length)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DigestWithSalt returns the URL-safe unpadded base64 encoding of
// SHA-256(data || salt). Used to derive the opaque wallet binding id from
// the PSU token.
func DigestWithSalt(data, salt []byte) string {
	h := sha256.New()
	h.Write(data)
	h.Write(salt)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// FormatUTC renders t in the fixed UTC wire pattern.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(UTCDateTimeFormat)
}
