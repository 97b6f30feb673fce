package dto

import (
	"encoding/json"

	"go.pilab.hu/idp/domain"
)

// WalletBindingRequest binds a device-held public key to a previously
// authenticated individual. PublicKey is a JSON Web Key in
// modulus/exponent form.
type WalletBindingRequest struct {
	TransactionID string                 `json:"transactionId"`
	IndividualID  string                 `json:"individualId"`
	PublicKey     json.RawMessage        `json:"publicKey"`
	ChallengeList []domain.AuthChallenge `json:"challengeList"`
}

// WalletBindingResponse returns the binding handle, encrypted to the
// submitted public key, together with its expiry in the fixed UTC pattern.
type WalletBindingResponse struct {
	TransactionID            string `json:"transactionId"`
	ExpireDateTime           string `json:"expireDateTime"`
	EncryptedWalletBindingID string `json:"encryptedWalletBindingId"`
}
