package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/idp/cache"
	"go.pilab.hu/idp/domain"
	"go.pilab.hu/idp/dto"
	"go.pilab.hu/idp/errors"
	"go.pilab.hu/idp/internal/audit"
	"go.pilab.hu/idp/internal/metrics"
)

// AuthorizationConfig carries the partner credential used towards the
// authentication gateway and the lifetimes of the flow artifacts.
type AuthorizationConfig struct {
	AuthPartnerID  string
	AuthLicenseKey string
	TransactionTTL time.Duration
	AuthCodeTTL    time.Duration
}

// AuthorizationService drives the OIDC authorization-code state machine:
// detail resolution, OTP dispatch, authentication and code issuance. The
// service itself is stateless; every flow lives in the transaction store.
type AuthorizationService struct {
	clientRepo   domain.ClientRepository
	txnStore     cache.AuthTransactionStore
	authCodeRepo domain.AuthCodeRepository
	gateway      AuthenticationGateway
	otpSender    OtpSender
	cfg          AuthorizationConfig
}

func NewAuthorizationService(
	clientRepo domain.ClientRepository,
	txnStore cache.AuthTransactionStore,
	authCodeRepo domain.AuthCodeRepository,
	gateway AuthenticationGateway,
	otpSender OtpSender,
	cfg AuthorizationConfig,
) *AuthorizationService {
	return &AuthorizationService{
		clientRepo:   clientRepo,
		txnStore:     txnStore,
		authCodeRepo: authCodeRepo,
		gateway:      gateway,
		otpSender:    otpSender,
		cfg:          cfg,
	}
}

// GetOauthDetails resolves the claims and auth factors the relying party is
// permitted to request and opens a new authorization transaction.
func (s *AuthorizationService) GetOauthDetails(ctx context.Context, req *dto.OAuthDetailRequest) (*dto.OAuthDetailResponse, error) {
	cli, err := s.clientRepo.GetClient(ctx, req.ClientID)
	if err != nil {
		log.Warn().Err(err).Str("clientID", req.ClientID).Msg("OAuth details: unknown client")
		return nil, errors.NewInvalidClient("unknown client")
	}
	if cli.Status != domain.ClientStatusActive {
		return nil, errors.NewInvalidClient("client is not active")
	}
	if !contains(cli.RedirectURIs, req.RedirectURI) {
		return nil, errors.NewInvalidRequest("redirect_uri is not registered for this client")
	}

	for _, claim := range req.Claims {
		if !contains(cli.PermittedClaims, claim) {
			return nil, errors.NewInvalidRequest("requested claim is not permitted for this client")
		}
	}

	authFactors := req.ACRValues
	if len(authFactors) == 0 {
		authFactors = cli.PermittedACRs
	}
	for _, factor := range authFactors {
		if !contains(cli.PermittedACRs, factor) {
			return nil, errors.NewInvalidRequest("requested auth factor is not permitted for this client")
		}
	}

	now := time.Now().UTC()
	txn := &domain.AuthorizationTransaction{
		ID:               uuid.NewString(),
		ClientID:         cli.ID,
		RedirectURI:      req.RedirectURI,
		Nonce:            req.Nonce,
		State:            req.State,
		RequestedClaims:  req.Claims,
		AuthFactorTypes:  authFactors,
		TransactionState: domain.TransactionInitiated,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.cfg.TransactionTTL),
	}
	if err := s.txnStore.Set(ctx, txn, s.cfg.TransactionTTL); err != nil {
		log.Error().Err(err).Msg("Failed to store authorization transaction")
		return nil, errors.New(errors.ServerError)
	}

	log.Info().Str("transactionID", txn.ID).Str("clientID", cli.ID).Msg("Authorization transaction started")
	metrics.TransactionsStartedTotal.Inc()

	return &dto.OAuthDetailResponse{
		TransactionID:   txn.ID,
		EssentialClaims: txn.RequestedClaims,
		AuthFactorTypes: txn.AuthFactorTypes,
		ClientName:      cli.Name,
	}, nil
}

// SendOtp dispatches an OTP to the individual's channels. Each call
// re-sends; there is no idempotency across repeated calls.
func (s *AuthorizationService) SendOtp(ctx context.Context, req *dto.OtpRequest) (*dto.OtpResponse, error) {
	txn, err := s.txnStore.Get(ctx, req.TransactionID)
	if err != nil {
		return nil, errors.NewInvalidTransaction()
	}

	result, err := s.otpSender.SendOtp(ctx, txn.ID, req.IndividualID, req.OtpChannels)
	if err != nil {
		log.Error().Err(err).Str("transactionID", txn.ID).Msg("OTP dispatch failed")
		return nil, errors.New(errors.SendOtpFailed)
	}

	// OTP_SENT is an optional forward step; a transaction that already
	// advanced past it stays where it is.
	if txn.TransactionState == domain.TransactionInitiated {
		txn.TransactionState = domain.TransactionOtpSent
		if err := s.txnStore.Set(ctx, txn, time.Until(txn.ExpiresAt)); err != nil {
			log.Error().Err(err).Str("transactionID", txn.ID).Msg("Failed to update transaction state")
			return nil, errors.New(errors.ServerError)
		}
	}

	metrics.OtpDispatchedTotal.Inc()

	return &dto.OtpResponse{
		TransactionID: txn.ID,
		MaskedMobile:  result.MaskedMobile,
		MaskedEmail:   result.MaskedEmail,
	}, nil
}

// AuthenticateUser validates the submitted challenges through the gateway
// and moves the transaction to AUTHENTICATED.
func (s *AuthorizationService) AuthenticateUser(ctx context.Context, req *dto.AuthRequest) (*dto.AuthResponse, error) {
	txn, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{TransactionID: txn.ID}, nil
}

// AuthenticateUserV2 performs the same validation and state transition as
// AuthenticateUser but reports a per-factor outcome breakdown.
func (s *AuthorizationService) AuthenticateUserV2(ctx context.Context, req *dto.AuthRequest) (*dto.AuthResponseV2, error) {
	txn, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	results := make([]dto.AuthFactorResult, 0, len(req.ChallengeList))
	for _, challenge := range req.ChallengeList {
		results = append(results, dto.AuthFactorResult{
			AuthFactorType: challenge.AuthFactorType,
			Verified:       true,
		})
	}
	return &dto.AuthResponseV2{TransactionID: txn.ID, FactorResults: results}, nil
}

func (s *AuthorizationService) authenticate(ctx context.Context, req *dto.AuthRequest) (*domain.AuthorizationTransaction, error) {
	txn, err := s.txnStore.Get(ctx, req.TransactionID)
	if err != nil {
		return nil, errors.NewInvalidTransaction()
	}

	if txn.IndividualID != "" && txn.IndividualID != req.IndividualID {
		return nil, errors.New(errors.InvalidIndividualID)
	}

	result, err := s.gateway.Authenticate(ctx, s.cfg.AuthPartnerID, s.cfg.AuthLicenseKey, &domain.KycAuthRequest{
		TransactionID: txn.ID,
		IndividualID:  req.IndividualID,
		Challenges:    req.ChallengeList,
	})
	if err != nil {
		// The transaction is left untouched; the caller may retry while it
		// has not expired.
		var kycErr *errors.KycAuthError
		if stderrors.As(err, &kycErr) {
			log.Warn().Str("transactionID", txn.ID).Str("code", kycErr.Code).Msg("Gateway rejected authentication")
		} else {
			log.Error().Err(err).Str("transactionID", txn.ID).Msg("Gateway authentication failed")
		}
		metrics.AuthFailureTotal.Inc()
		audit.Log("authorization", "authenticate", txn.ID, false, err)
		return nil, errors.NewAuthFailed()
	}
	if result == nil || result.KycToken == "" || result.PSUToken == "" {
		log.Error().Str("transactionID", txn.ID).Msg("Gateway returned empty tokens")
		metrics.AuthFailureTotal.Inc()
		return nil, errors.NewAuthFailed()
	}

	if txn.IndividualID == "" {
		txn.IndividualID = req.IndividualID
	}
	txn.KycToken = result.KycToken
	txn.PSUToken = result.PSUToken
	txn.AcceptedClaims = txn.RequestedClaims
	txn.TransactionState = domain.TransactionAuthenticated
	if err := s.txnStore.Set(ctx, txn, time.Until(txn.ExpiresAt)); err != nil {
		log.Error().Err(err).Str("transactionID", txn.ID).Msg("Failed to update transaction state")
		return nil, errors.New(errors.ServerError)
	}

	log.Info().Str("transactionID", txn.ID).Msg("Authentication successful")
	metrics.AuthSuccessTotal.Inc()
	audit.Log("authorization", "authenticate", txn.ID, true, nil)
	return txn, nil
}

// GetAuthCode performs the KYC exchange for the chosen claim subset and
// issues the one-shot authorization code. The transaction is consumed: a
// second call with the same id fails with invalid_transaction.
func (s *AuthorizationService) GetAuthCode(ctx context.Context, req *dto.AuthCodeRequest) (*dto.AuthCodeResponse, error) {
	txn, err := s.txnStore.Get(ctx, req.TransactionID)
	if err != nil {
		return nil, errors.NewInvalidTransaction()
	}
	if txn.TransactionState != domain.TransactionAuthenticated {
		return nil, errors.NewInvalidTransaction()
	}

	for _, claim := range req.AcceptedClaims {
		if !contains(txn.AcceptedClaims, claim) {
			return nil, errors.NewInvalidRequest("claim was not accepted during authentication")
		}
	}

	exchange, err := s.gateway.Exchange(ctx, s.cfg.AuthPartnerID, s.cfg.AuthLicenseKey, txn.KycToken, req.AcceptedClaims)
	if err != nil {
		log.Error().Err(err).Str("transactionID", txn.ID).Msg("KYC exchange failed")
		return nil, errors.New(errors.KycExchangeFailed)
	}

	now := time.Now().UTC()
	authCode := &domain.AuthCode{
		Code:           uuid.NewString(),
		TransactionID:  txn.ID,
		ClientID:       txn.ClientID,
		IndividualID:   txn.IndividualID,
		RedirectURI:    txn.RedirectURI,
		AcceptedClaims: req.AcceptedClaims,
		EncryptedKyc:   exchange.EncryptedKyc,
		Nonce:          txn.Nonce,
		ExpiresAt:      now.Add(s.cfg.AuthCodeTTL),
		CreatedAt:      now,
	}
	if err := s.authCodeRepo.SaveAuthCode(ctx, authCode); err != nil {
		log.Error().Err(err).Str("transactionID", txn.ID).Msg("Failed to save authorization code")
		return nil, errors.New(errors.ServerError)
	}

	txn.TransactionState = domain.TransactionCodeIssued
	if err := s.txnStore.Invalidate(ctx, txn.ID); err != nil {
		log.Error().Err(err).Str("transactionID", txn.ID).Msg("Failed to invalidate consumed transaction")
		return nil, errors.New(errors.ServerError)
	}

	log.Info().Str("transactionID", txn.ID).Str("clientID", txn.ClientID).Msg("Authorization code issued")
	metrics.AuthCodesIssuedTotal.Inc()
	audit.Log("authorization", "issue_code", txn.ID, true, nil)

	return &dto.AuthCodeResponse{
		Code:        authCode.Code,
		RedirectURI: txn.RedirectURI,
		Nonce:       txn.Nonce,
		State:       txn.State,
	}, nil
}

// Helper function to check if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
