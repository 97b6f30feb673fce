package domain

// Auth factor types understood by the authentication gateway. The challenge
// carries the factor type as a tag, so new factors do not require new types.
const (
	AuthFactorOTP = "OTP"
	AuthFactorBIO = "BIO"
	AuthFactorPIN = "PIN"
)

// AuthChallenge is one submitted proof for a declared auth factor.
type AuthChallenge struct {
	AuthFactorType string `json:"authFactorType"`
	Challenge      string `json:"challenge"`
}

// KycAuthRequest is the gateway-bound authentication request. TransactionID
// is the correlation id of the authentication event at the provider.
type KycAuthRequest struct {
	TransactionID string          `json:"transactionId"`
	IndividualID  string          `json:"individualId"`
	Challenges    []AuthChallenge `json:"challengeList"`
}

// KycAuthResult is the ephemeral result of a successful gateway
// authentication. Only its tokens are captured into the owning transaction
// or registry row; the value itself is never persisted.
type KycAuthResult struct {
	KycToken string `json:"kycToken"`
	PSUToken string `json:"partnerSpecificUserToken"`
}

// KycExchangeResult carries the verified claim values produced by the KYC
// exchange at code-issuance time.
type KycExchangeResult struct {
	EncryptedKyc string `json:"encryptedKyc"`
}
