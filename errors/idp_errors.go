package errors

import "fmt"

// IdPError is the typed error surfaced to callers of the identity-provider
// core. Code carries one of the constants below; Description is optional
// human-readable detail and never contains provider-internal state.
type IdPError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *IdPError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Error codes exchanged with the UI layer.
const (
	InvalidRequest       = "invalid_request"
	InvalidClient        = "invalid_client"
	InvalidTransaction   = "invalid_transaction"
	InvalidIndividualID  = "invalid_individual_id"
	InvalidAuthChallenge = "invalid_auth_challenge"
	AuthFailed           = "auth_failed"
	DuplicatePublicKey   = "duplicate_public_key"
	InvalidPublicKey     = "invalid_public_key"
	SendOtpFailed        = "send_otp_failed"
	KycExchangeFailed    = "kyc_exchange_failed"
	ServerError          = "server_error"
)

func New(code string) *IdPError {
	return &IdPError{Code: code}
}

func NewInvalidRequest(description string) *IdPError {
	return &IdPError{Code: InvalidRequest, Description: description}
}

func NewInvalidClient(description string) *IdPError {
	return &IdPError{Code: InvalidClient, Description: description}
}

func NewInvalidTransaction() *IdPError {
	return &IdPError{Code: InvalidTransaction}
}

func NewAuthFailed() *IdPError {
	return &IdPError{Code: AuthFailed}
}

func NewInvalidPublicKey() *IdPError {
	return &IdPError{Code: InvalidPublicKey}
}

// KycAuthError is the typed failure raised by the authentication gateway when
// the upstream provider rejects an authentication. Code is the upstream
// provider's error code and is passed through to the caller verbatim.
type KycAuthError struct {
	Code        string
	Description string
}

func (e *KycAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func NewKycAuthError(code, description string) *KycAuthError {
	return &KycAuthError{Code: code, Description: description}
}
