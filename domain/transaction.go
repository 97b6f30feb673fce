package domain

import "time"

// TransactionState tracks the progress of one authorization-code flow.
// The state only moves forward; expiry is handled by the transaction store
// dropping the entry, which callers observe as invalid_transaction.
type TransactionState string

const (
	TransactionInitiated     TransactionState = "INITIATED"
	TransactionOtpSent       TransactionState = "OTP_SENT"
	TransactionAuthenticated TransactionState = "AUTHENTICATED"
	TransactionCodeIssued    TransactionState = "CODE_ISSUED"
)

// AuthorizationTransaction is the server-side state of one in-progress
// OIDC authorization-code flow. It lives exclusively in the transaction
// store and is consumed when the authorization code is issued.
type AuthorizationTransaction struct {
	ID               string           `json:"id"`
	ClientID         string           `json:"client_id"`
	RedirectURI      string           `json:"redirect_uri"`
	Nonce            string           `json:"nonce,omitempty"`
	State            string           `json:"state,omitempty"`
	RequestedClaims  []string         `json:"requested_claims"`
	AuthFactorTypes  []string         `json:"auth_factor_types"`
	AcceptedClaims   []string         `json:"accepted_claims,omitempty"`
	IndividualID     string           `json:"individual_id,omitempty"`
	KycToken         string           `json:"kyc_token,omitempty"`
	PSUToken         string           `json:"psu_token,omitempty"`
	TransactionState TransactionState `json:"transaction_state"`
	CreatedAt        time.Time        `json:"created_at"`
	ExpiresAt        time.Time        `json:"expires_at"`
}

// BindingTransaction is the authentication context a wallet-binding request
// rides on. It is produced by a prior authentication flow and is read-only
// for the binding orchestrator.
type BindingTransaction struct {
	ID                string `json:"id"`
	IndividualID      string `json:"individual_id"`
	AuthTransactionID string `json:"auth_transaction_id"`
	AuthChallengeType string `json:"auth_challenge_type"`
}
