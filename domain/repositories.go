package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateEntry is returned by registry writes that lose a uniqueness
// race at commit time. Read methods return (nil, nil) for a clean miss so
// orchestrators can branch without depending on driver errors.
var ErrDuplicateEntry = errors.New("registry uniqueness violation")

// PublicKeyRegistryRepository defines access to the durable device-key
// registry. Implementations must enforce the one-row-per-psu-token and
// one-psu-token-per-key-hash invariants at commit time, not only via the
// read methods here.
type PublicKeyRegistryRepository interface {
	// FindByPublicKeyHashExcludingPSUToken returns a row holding the given
	// key hash for any other PSU token, or nil if the hash is unclaimed.
	FindByPublicKeyHashExcludingPSUToken(ctx context.Context, publicKeyHash, psuToken string) (*PublicKeyRegistryEntry, error)
	// FindByPSUToken returns the existing binding for the PSU token, or nil.
	FindByPSUToken(ctx context.Context, psuToken string) (*PublicKeyRegistryEntry, error)
	// UpdateByPSUToken replaces the key material and expiry of an existing
	// binding in place.
	UpdateByPSUToken(ctx context.Context, psuToken, publicKey, publicKeyHash string, expiresAt time.Time) error
	// Insert stores a new binding row.
	Insert(ctx context.Context, entry *PublicKeyRegistryEntry) error
}

// ClientRepository defines lookup of registered relying parties.
type ClientRepository interface {
	GetClient(ctx context.Context, clientID string) (*Client, error)
}

// AuthCodeRepository stores issued authorization codes for the token
// endpoint to exchange later.
type AuthCodeRepository interface {
	SaveAuthCode(ctx context.Context, code *AuthCode) error
	GetAuthCode(ctx context.Context, code string) (*AuthCode, error)
	MarkAuthCodeAsUsed(ctx context.Context, code string) error
}
