package domain

import "time"

// AuthCode represents an issued OAuth 2.0 authorization code. It is bound
// one-to-one with the transaction it was issued from and with the exact
// claim subset the caller chose to release.
type AuthCode struct {
	Code           string    `bson:"_id" json:"code"`
	TransactionID  string    `bson:"transaction_id" json:"transaction_id"`
	ClientID       string    `bson:"client_id" json:"client_id"`
	IndividualID   string    `bson:"individual_id" json:"individual_id"`
	RedirectURI    string    `bson:"redirect_uri" json:"redirect_uri"`
	AcceptedClaims []string  `bson:"accepted_claims" json:"accepted_claims"`
	EncryptedKyc   string    `bson:"encrypted_kyc,omitempty" json:"-"`
	Nonce          string    `bson:"nonce,omitempty" json:"nonce,omitempty"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expires_at"`
	Used           bool      `bson:"used" json:"used"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
