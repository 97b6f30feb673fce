package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateB64Hash(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		first := GenerateB64Hash([]byte("individual-1"))
		second := GenerateB64Hash([]byte("individual-1"))
		assert.Equal(t, first, second)
	})

	t.Run("distinct inputs produce distinct digests", func(t *testing.T) {
		assert.NotEqual(t, GenerateB64Hash([]byte("individual-1")), GenerateB64Hash([]byte("individual-2")))
	})

	t.Run("url-safe without padding", func(t *testing.T) {
		digest := GenerateB64Hash([]byte("anything"))
		assert.NotContains(t, digest, "=")
		assert.NotContains(t, digest, "+")
		assert.NotContains(t, digest, "/")
		// SHA-256 is 32 bytes, 43 chars unpadded.
		assert.Len(t, digest, 43)
	})
}

func TestGenerateSalt(t *testing.T) {
	salt, err := GenerateSalt(16)
	require.NoError(t, err)
	assert.Len(t, salt, 16)

	other, err := GenerateSalt(16)
	require.NoError(t, err)
	assert.NotEqual(t, salt, other)
}

func TestDigestWithSalt(t *testing.T) {
	salt := []byte("0123456789abcdef")

	t.Run("deterministic for same salt", func(t *testing.T) {
		assert.Equal(t, DigestWithSalt([]byte("PSU1"), salt), DigestWithSalt([]byte("PSU1"), salt))
	})

	t.Run("salt changes the digest", func(t *testing.T) {
		assert.NotEqual(t, DigestWithSalt([]byte("PSU1"), salt), DigestWithSalt([]byte("PSU1"), []byte("fedcba9876543210")))
	})

	t.Run("differs from unsalted hash", func(t *testing.T) {
		assert.NotEqual(t, GenerateB64Hash([]byte("PSU1")), DigestWithSalt([]byte("PSU1"), salt))
	})
}

func TestFormatUTC(t *testing.T) {
	ts := time.Date(2024, 5, 17, 9, 30, 15, 123_000_000, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-05-17T08:30:15.123Z", FormatUTC(ts))
}
