// Package gateway contains the HTTP client for the external authentication
// provider. The provider verifies the submitted challenges (OTP, biometric)
// and returns the KYC token plus the partner-specific user token; this
// package only translates its wire protocol into the core's types.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"go.pilab.hu/idp/domain"
	"go.pilab.hu/idp/errors"
	"go.pilab.hu/idp/services"
)

const defaultTimeout = 30 * time.Second

// RestAuthenticationGateway talks to the provider's REST API. It implements
// both services.AuthenticationGateway and services.OtpSender, since the
// provider hosts the OTP channel as well.
type RestAuthenticationGateway struct {
	baseURL string
	client  *http.Client
}

func NewRestAuthenticationGateway(baseURL string) *RestAuthenticationGateway {
	return &RestAuthenticationGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

type authRequestEnvelope struct {
	PartnerID string                 `json:"partnerId"`
	Request   *domain.KycAuthRequest `json:"request"`
}

type authResponseEnvelope struct {
	Response *domain.KycAuthResult `json:"response"`
	Errors   []providerError       `json:"errors,omitempty"`
}

type exchangeRequestEnvelope struct {
	PartnerID string   `json:"partnerId"`
	KycToken  string   `json:"kycToken"`
	Claims    []string `json:"acceptedClaims"`
}

type exchangeResponseEnvelope struct {
	Response *domain.KycExchangeResult `json:"response"`
	Errors   []providerError           `json:"errors,omitempty"`
}

type otpRequestEnvelope struct {
	TransactionID string   `json:"transactionId"`
	IndividualID  string   `json:"individualId"`
	OtpChannels   []string `json:"otpChannels"`
}

type otpResponseEnvelope struct {
	Response *struct {
		MaskedMobile string `json:"maskedMobile"`
		MaskedEmail  string `json:"maskedEmail"`
	} `json:"response"`
	Errors []providerError `json:"errors,omitempty"`
}

type providerError struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"errorMessage"`
}

// Authenticate implements services.AuthenticationGateway. Provider
// rejections come back as *errors.KycAuthError with the upstream code.
func (g *RestAuthenticationGateway) Authenticate(ctx context.Context, partnerID, apiKey string, req *domain.KycAuthRequest) (*domain.KycAuthResult, error) {
	var envelope authResponseEnvelope
	err := g.post(ctx, "/kyc-auth", apiKey, &authRequestEnvelope{PartnerID: partnerID, Request: req}, &envelope)
	if err != nil {
		return nil, err
	}
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		return nil, errors.NewKycAuthError(first.ErrorCode, first.Message)
	}
	return envelope.Response, nil
}

// Exchange implements services.AuthenticationGateway.
func (g *RestAuthenticationGateway) Exchange(ctx context.Context, partnerID, apiKey, kycToken string, claims []string) (*domain.KycExchangeResult, error) {
	var envelope exchangeResponseEnvelope
	err := g.post(ctx, "/kyc-exchange", apiKey, &exchangeRequestEnvelope{PartnerID: partnerID, KycToken: kycToken, Claims: claims}, &envelope)
	if err != nil {
		return nil, err
	}
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		return nil, errors.NewKycAuthError(first.ErrorCode, first.Message)
	}
	return envelope.Response, nil
}

// SendOtp implements services.OtpSender. One outbound notification per
// call; repeated calls re-send.
func (g *RestAuthenticationGateway) SendOtp(ctx context.Context, transactionID, individualID string, channels []string) (*services.OtpDispatchResult, error) {
	var envelope otpResponseEnvelope
	err := g.post(ctx, "/send-otp", "", &otpRequestEnvelope{TransactionID: transactionID, IndividualID: individualID, OtpChannels: channels}, &envelope)
	if err != nil {
		return nil, err
	}
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		return nil, fmt.Errorf("otp dispatch rejected: %s", first.ErrorCode)
	}
	result := &services.OtpDispatchResult{}
	if envelope.Response != nil {
		result.MaskedMobile = envelope.Response.MaskedMobile
		result.MaskedEmail = envelope.Response.MaskedEmail
	}
	return result, nil
}

func (g *RestAuthenticationGateway) post(ctx context.Context, path, apiKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("Gateway returned non-OK status")
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

var (
	_ services.AuthenticationGateway = (*RestAuthenticationGateway)(nil)
	_ services.OtpSender             = (*RestAuthenticationGateway)(nil)
)
