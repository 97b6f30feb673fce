package dto

import "go.pilab.hu/idp/domain"

// OAuthDetailRequest echoes the query parameters of the /authorize request.
type OAuthDetailRequest struct {
	ClientID    string   `json:"clientId"`
	RedirectURI string   `json:"redirectUri"`
	Scope       string   `json:"scope,omitempty"`
	Claims      []string `json:"claims,omitempty"`
	ACRValues   []string `json:"acrValues,omitempty"`
	Display     string   `json:"display,omitempty"`
	Prompt      string   `json:"prompt,omitempty"`
	Nonce       string   `json:"nonce,omitempty"`
	State       string   `json:"state,omitempty"`
}

// OAuthDetailResponse carries the resolved claims and auth factors the UI
// should collect, plus the transaction id for the follow-up calls.
type OAuthDetailResponse struct {
	TransactionID   string   `json:"transactionId"`
	EssentialClaims []string `json:"essentialClaims"`
	AuthFactorTypes []string `json:"authFactorTypes"`
	ClientName      string   `json:"clientName,omitempty"`
}

// OtpRequest asks the provider to dispatch an OTP on the given channels.
type OtpRequest struct {
	TransactionID string   `json:"transactionId"`
	IndividualID  string   `json:"individualId"`
	OtpChannels   []string `json:"otpChannels,omitempty"`
}

// OtpResponse reports where the OTP was sent.
type OtpResponse struct {
	TransactionID string `json:"transactionId"`
	MaskedMobile  string `json:"maskedMobile,omitempty"`
	MaskedEmail   string `json:"maskedEmail,omitempty"`
}

// AuthRequest submits one challenge per declared auth factor.
type AuthRequest struct {
	TransactionID string                 `json:"transactionId"`
	IndividualID  string                 `json:"individualId"`
	ChallengeList []domain.AuthChallenge `json:"challengeList"`
}

// AuthResponse acknowledges a successful authentication.
type AuthResponse struct {
	TransactionID string `json:"transactionId"`
}

// AuthFactorResult is the per-factor outcome breakdown returned by the V2
// authenticate operation.
type AuthFactorResult struct {
	AuthFactorType string `json:"authFactorType"`
	Verified       bool   `json:"verified"`
}

// AuthResponseV2 extends AuthResponse with per-factor outcomes.
type AuthResponseV2 struct {
	TransactionID string             `json:"transactionId"`
	FactorResults []AuthFactorResult `json:"factorResults"`
}

// AuthCodeRequest selects the claim subset to release and asks for the
// authorization code.
type AuthCodeRequest struct {
	TransactionID  string   `json:"transactionId"`
	AcceptedClaims []string `json:"acceptedClaims,omitempty"`
}

// AuthCodeResponse returns the issued code and the redirect target.
type AuthCodeResponse struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
	Nonce       string `json:"nonce,omitempty"`
	State       string `json:"state,omitempty"`
}
