package services

import (
	"context"

	"go.pilab.hu/idp/domain"
)

// AuthenticationGateway abstracts the external step-up authentication
// provider. Implementations must return non-empty tokens on success; the
// orchestrators treat an empty token as auth_failed. Upstream rejections
// surface as *errors.KycAuthError with the provider's code intact.
type AuthenticationGateway interface {
	// Authenticate performs a KYC-style authentication of the submitted
	// challenges against the provider.
	Authenticate(ctx context.Context, partnerID, apiKey string, req *domain.KycAuthRequest) (*domain.KycAuthResult, error)
	// Exchange converts a provider token plus a claim selection into
	// verified claim values.
	Exchange(ctx context.Context, partnerID, apiKey, kycToken string, claims []string) (*domain.KycExchangeResult, error)
}

// OtpDispatchResult reports the masked destinations an OTP went to.
type OtpDispatchResult struct {
	MaskedMobile string
	MaskedEmail  string
}

// OtpSender delivers an OTP over the individual's channels. The OTP value
// itself never passes through this core; verification happens at the
// provider during Authenticate.
type OtpSender interface {
	SendOtp(ctx context.Context, transactionID, individualID string, channels []string) (*OtpDispatchResult, error)
}
