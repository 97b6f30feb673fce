package services

import (
	"crypto/rsa"
	"encoding/json"

	"github.com/go-jose/go-jose/v4"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/idp/errors"
)

// EncryptionService wraps a payload into an authenticated, encrypted token
// addressed to a caller-supplied public key.
type EncryptionService interface {
	// Encrypt produces a compact JWE of payload under the recipient JWK.
	Encrypt(payload []byte, recipientJWK json.RawMessage) (string, error)
}

// JWEEncryptionService implements EncryptionService as a compact JWE with
// RSA-OAEP-256 key wrapping over an A256GCM content cipher. The recipient
// key id is embedded so the wallet can select the matching private key, and
// the content type is marked so the payload is self-describing.
type JWEEncryptionService struct{}

func NewJWEEncryptionService() *JWEEncryptionService {
	return &JWEEncryptionService{}
}

// Encrypt implements EncryptionService. Any malformed key or encryption
// failure is surfaced as invalid_public_key; the payload is never logged.
func (s *JWEEncryptionService) Encrypt(payload []byte, recipientJWK json.RawMessage) (string, error) {
	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(recipientJWK); err != nil {
		log.Warn().Err(err).Msg("Failed to parse recipient JWK")
		return "", errors.NewInvalidPublicKey()
	}

	publicKey, ok := jwk.Key.(*rsa.PublicKey)
	if !ok {
		log.Warn().Msg("Recipient JWK is not an RSA public key")
		return "", errors.NewInvalidPublicKey()
	}

	opts := (&jose.EncrypterOptions{}).WithContentType("JWT")
	encrypter, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{
			Algorithm: jose.RSA_OAEP_256,
			Key:       publicKey,
			KeyID:     jwk.KeyID,
		},
		opts,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to construct JWE encrypter")
		return "", errors.NewInvalidPublicKey()
	}

	object, err := encrypter.Encrypt(payload)
	if err != nil {
		log.Error().Err(err).Msg("JWE encryption failed")
		return "", errors.NewInvalidPublicKey()
	}

	token, err := object.CompactSerialize()
	if err != nil {
		log.Error().Err(err).Msg("JWE compact serialization failed")
		return "", errors.NewInvalidPublicKey()
	}
	return token, nil
}

var _ EncryptionService = (*JWEEncryptionService)(nil)
