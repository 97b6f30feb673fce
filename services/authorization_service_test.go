package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/idp/cache"
	"go.pilab.hu/idp/domain"
	"go.pilab.hu/idp/dto"
	idperrors "go.pilab.hu/idp/errors"
)

const (
	testPartnerID = "partner-1"
	testAPIKey    = "license-key-1"
)

func testClient() *domain.Client {
	return &domain.Client{
		ID:              "client-1",
		Name:            "Example RP",
		RedirectURIs:    []string{"https://rp.example.com/callback"},
		PermittedClaims: []string{"name", "birthdate", "address"},
		PermittedACRs:   []string{domain.AuthFactorOTP, domain.AuthFactorBIO},
		Status:          domain.ClientStatusActive,
	}
}

func newAuthorizationFixture(t *testing.T) (*AuthorizationService, *cache.MemoryTransactionStore, *MockClientRepository, *MockAuthCodeRepository, *MockAuthenticationGateway, *MockOtpSender) {
	t.Helper()
	store := cache.NewMemoryTransactionStore()
	t.Cleanup(func() { _ = store.Close() })

	clientRepo := new(MockClientRepository)
	authCodeRepo := new(MockAuthCodeRepository)
	gateway := new(MockAuthenticationGateway)
	otpSender := new(MockOtpSender)

	service := NewAuthorizationService(clientRepo, store, authCodeRepo, gateway, otpSender, AuthorizationConfig{
		AuthPartnerID:  testPartnerID,
		AuthLicenseKey: testAPIKey,
		TransactionTTL: time.Minute,
		AuthCodeTTL:    30 * time.Second,
	})
	return service, store, clientRepo, authCodeRepo, gateway, otpSender
}

// startAuthenticatedTransaction walks a transaction through details and
// authentication so code-issuance tests start from AUTHENTICATED.
func startAuthenticatedTransaction(t *testing.T, service *AuthorizationService, clientRepo *MockClientRepository, gateway *MockAuthenticationGateway) string {
	t.Helper()
	ctx := context.Background()

	clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()
	details, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
		ClientID:    "client-1",
		RedirectURI: "https://rp.example.com/callback",
		Claims:      []string{"name", "birthdate"},
		ACRValues:   []string{domain.AuthFactorOTP},
	})
	require.NoError(t, err)

	gateway.On("Authenticate", ctx, testPartnerID, testAPIKey, mock.Anything).
		Return(&domain.KycAuthResult{KycToken: "kyc-tok", PSUToken: "PSU1"}, nil).Once()
	_, err = service.AuthenticateUser(ctx, &dto.AuthRequest{
		TransactionID: details.TransactionID,
		IndividualID:  "IND1",
		ChallengeList: []domain.AuthChallenge{{AuthFactorType: domain.AuthFactorOTP, Challenge: "111111"}},
	})
	require.NoError(t, err)

	return details.TransactionID
}

func TestAuthorizationService_GetOauthDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves claims and factors and opens a transaction", func(t *testing.T) {
		service, store, clientRepo, _, _, _ := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()

		resp, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
			ClientID:    "client-1",
			RedirectURI: "https://rp.example.com/callback",
			Claims:      []string{"name"},
			ACRValues:   []string{domain.AuthFactorOTP},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.TransactionID)
		assert.Equal(t, []string{"name"}, resp.EssentialClaims)
		assert.Equal(t, []string{domain.AuthFactorOTP}, resp.AuthFactorTypes)

		txn, err := store.Get(ctx, resp.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionInitiated, txn.TransactionState)
	})

	t.Run("unknown client", func(t *testing.T) {
		service, _, clientRepo, _, _, _ := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "ghost").Return(nil, assert.AnError).Once()

		_, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{ClientID: "ghost", RedirectURI: "https://rp.example.com/callback"})
		requireIdPError(t, err, idperrors.InvalidClient)
	})

	t.Run("claim outside client policy", func(t *testing.T) {
		service, _, clientRepo, _, _, _ := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()

		_, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
			ClientID:    "client-1",
			RedirectURI: "https://rp.example.com/callback",
			Claims:      []string{"ssn"},
		})
		requireIdPError(t, err, idperrors.InvalidRequest)
	})

	t.Run("auth factor outside client policy", func(t *testing.T) {
		service, _, clientRepo, _, _, _ := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()

		_, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
			ClientID:    "client-1",
			RedirectURI: "https://rp.example.com/callback",
			ACRValues:   []string{domain.AuthFactorPIN},
		})
		requireIdPError(t, err, idperrors.InvalidRequest)
	})

	t.Run("unregistered redirect uri", func(t *testing.T) {
		service, _, clientRepo, _, _, _ := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()

		_, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
			ClientID:    "client-1",
			RedirectURI: "https://evil.example.com/callback",
		})
		requireIdPError(t, err, idperrors.InvalidRequest)
	})
}

func TestAuthorizationService_SendOtp(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches and advances to OTP_SENT", func(t *testing.T) {
		service, store, clientRepo, _, _, otpSender := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()
		details, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
			ClientID:    "client-1",
			RedirectURI: "https://rp.example.com/callback",
		})
		require.NoError(t, err)

		otpSender.On("SendOtp", ctx, details.TransactionID, "IND1", []string{"sms"}).
			Return(&OtpDispatchResult{MaskedMobile: "XXXXXX1234"}, nil).Once()

		resp, err := service.SendOtp(ctx, &dto.OtpRequest{
			TransactionID: details.TransactionID,
			IndividualID:  "IND1",
			OtpChannels:   []string{"sms"},
		})
		require.NoError(t, err)
		assert.Equal(t, "XXXXXX1234", resp.MaskedMobile)

		txn, err := store.Get(ctx, details.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionOtpSent, txn.TransactionState)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		service, _, _, _, _, otpSender := newAuthorizationFixture(t)

		_, err := service.SendOtp(ctx, &dto.OtpRequest{TransactionID: "nope", IndividualID: "IND1"})
		requireIdPError(t, err, idperrors.InvalidTransaction)
		otpSender.AssertNotCalled(t, "SendOtp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("each call re-sends", func(t *testing.T) {
		service, _, clientRepo, _, _, otpSender := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()
		details, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
			ClientID:    "client-1",
			RedirectURI: "https://rp.example.com/callback",
		})
		require.NoError(t, err)

		otpSender.On("SendOtp", ctx, details.TransactionID, "IND1", []string(nil)).
			Return(&OtpDispatchResult{}, nil).Twice()

		_, err = service.SendOtp(ctx, &dto.OtpRequest{TransactionID: details.TransactionID, IndividualID: "IND1"})
		require.NoError(t, err)
		_, err = service.SendOtp(ctx, &dto.OtpRequest{TransactionID: details.TransactionID, IndividualID: "IND1"})
		require.NoError(t, err)

		otpSender.AssertExpectations(t)
	})
}

func TestAuthorizationService_AuthenticateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success records identity and advances state", func(t *testing.T) {
		service, store, clientRepo, _, gateway, _ := newAuthorizationFixture(t)
		txnID := startAuthenticatedTransaction(t, service, clientRepo, gateway)

		txn, err := store.Get(ctx, txnID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionAuthenticated, txn.TransactionState)
		assert.Equal(t, "IND1", txn.IndividualID)
		assert.Equal(t, "kyc-tok", txn.KycToken)
		assert.Equal(t, "PSU1", txn.PSUToken)
		assert.Subset(t, txn.RequestedClaims, txn.AcceptedClaims)
	})

	t.Run("gateway rejection translates to auth_failed and state is unchanged", func(t *testing.T) {
		service, store, clientRepo, _, gateway, _ := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()
		details, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
			ClientID:    "client-1",
			RedirectURI: "https://rp.example.com/callback",
		})
		require.NoError(t, err)

		gateway.On("Authenticate", ctx, testPartnerID, testAPIKey, mock.Anything).
			Return(nil, idperrors.NewKycAuthError("IDA-100", "challenge expired")).Once()

		_, err = service.AuthenticateUser(ctx, &dto.AuthRequest{
			TransactionID: details.TransactionID,
			IndividualID:  "IND1",
			ChallengeList: []domain.AuthChallenge{{AuthFactorType: domain.AuthFactorOTP, Challenge: "000000"}},
		})
		requireIdPError(t, err, idperrors.AuthFailed)

		// Caller may retry while the transaction lives.
		txn, err := store.Get(ctx, details.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionInitiated, txn.TransactionState)
		assert.Empty(t, txn.IndividualID)
	})

	t.Run("empty tokens are never silently accepted", func(t *testing.T) {
		service, _, clientRepo, _, gateway, _ := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()
		details, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
			ClientID:    "client-1",
			RedirectURI: "https://rp.example.com/callback",
		})
		require.NoError(t, err)

		gateway.On("Authenticate", ctx, testPartnerID, testAPIKey, mock.Anything).
			Return(&domain.KycAuthResult{KycToken: "", PSUToken: "PSU1"}, nil).Once()

		_, err = service.AuthenticateUser(ctx, &dto.AuthRequest{
			TransactionID: details.TransactionID,
			IndividualID:  "IND1",
		})
		requireIdPError(t, err, idperrors.AuthFailed)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		service, _, _, _, _, _ := newAuthorizationFixture(t)
		_, err := service.AuthenticateUser(ctx, &dto.AuthRequest{TransactionID: "nope", IndividualID: "IND1"})
		requireIdPError(t, err, idperrors.InvalidTransaction)
	})
}

func TestAuthorizationService_AuthenticateUserV2(t *testing.T) {
	ctx := context.Background()
	service, _, clientRepo, _, gateway, _ := newAuthorizationFixture(t)

	clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()
	details, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
		ClientID:    "client-1",
		RedirectURI: "https://rp.example.com/callback",
		ACRValues:   []string{domain.AuthFactorOTP, domain.AuthFactorBIO},
	})
	require.NoError(t, err)

	gateway.On("Authenticate", ctx, testPartnerID, testAPIKey, mock.Anything).
		Return(&domain.KycAuthResult{KycToken: "kyc-tok", PSUToken: "PSU1"}, nil).Once()

	resp, err := service.AuthenticateUserV2(ctx, &dto.AuthRequest{
		TransactionID: details.TransactionID,
		IndividualID:  "IND1",
		ChallengeList: []domain.AuthChallenge{
			{AuthFactorType: domain.AuthFactorOTP, Challenge: "111111"},
			{AuthFactorType: domain.AuthFactorBIO, Challenge: "bio-assertion"},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.FactorResults, 2)
	assert.Equal(t, domain.AuthFactorOTP, resp.FactorResults[0].AuthFactorType)
	assert.True(t, resp.FactorResults[0].Verified)
	assert.Equal(t, domain.AuthFactorBIO, resp.FactorResults[1].AuthFactorType)
	assert.True(t, resp.FactorResults[1].Verified)
}

func TestAuthorizationService_GetAuthCode(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a code for an accepted claim subset", func(t *testing.T) {
		service, _, clientRepo, authCodeRepo, gateway, _ := newAuthorizationFixture(t)
		txnID := startAuthenticatedTransaction(t, service, clientRepo, gateway)

		gateway.On("Exchange", ctx, testPartnerID, testAPIKey, "kyc-tok", []string{"name"}).
			Return(&domain.KycExchangeResult{EncryptedKyc: "kyc-payload"}, nil).Once()
		authCodeRepo.On("SaveAuthCode", ctx, mock.MatchedBy(func(code *domain.AuthCode) bool {
			return code.TransactionID == txnID && len(code.AcceptedClaims) == 1 && code.AcceptedClaims[0] == "name"
		})).Return(nil).Once()

		resp, err := service.GetAuthCode(ctx, &dto.AuthCodeRequest{
			TransactionID:  txnID,
			AcceptedClaims: []string{"name"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Code)
		assert.Equal(t, "https://rp.example.com/callback", resp.RedirectURI)
		authCodeRepo.AssertExpectations(t)
	})

	t.Run("claim outside the accepted set is rejected", func(t *testing.T) {
		service, _, clientRepo, _, gateway, _ := newAuthorizationFixture(t)
		txnID := startAuthenticatedTransaction(t, service, clientRepo, gateway)

		_, err := service.GetAuthCode(ctx, &dto.AuthCodeRequest{
			TransactionID:  txnID,
			AcceptedClaims: []string{"ssn"},
		})
		requireIdPError(t, err, idperrors.InvalidRequest)
	})

	t.Run("second issuance for the same transaction fails", func(t *testing.T) {
		service, _, clientRepo, authCodeRepo, gateway, _ := newAuthorizationFixture(t)
		txnID := startAuthenticatedTransaction(t, service, clientRepo, gateway)

		gateway.On("Exchange", ctx, testPartnerID, testAPIKey, "kyc-tok", []string{"name"}).
			Return(&domain.KycExchangeResult{EncryptedKyc: "kyc-payload"}, nil).Once()
		authCodeRepo.On("SaveAuthCode", ctx, mock.Anything).Return(nil).Once()

		_, err := service.GetAuthCode(ctx, &dto.AuthCodeRequest{TransactionID: txnID, AcceptedClaims: []string{"name"}})
		require.NoError(t, err)

		_, err = service.GetAuthCode(ctx, &dto.AuthCodeRequest{TransactionID: txnID, AcceptedClaims: []string{"name"}})
		requireIdPError(t, err, idperrors.InvalidTransaction)
	})

	t.Run("no code from a non-authenticated transaction", func(t *testing.T) {
		service, _, clientRepo, _, gateway, _ := newAuthorizationFixture(t)
		clientRepo.On("GetClient", ctx, "client-1").Return(testClient(), nil).Once()
		details, err := service.GetOauthDetails(ctx, &dto.OAuthDetailRequest{
			ClientID:    "client-1",
			RedirectURI: "https://rp.example.com/callback",
		})
		require.NoError(t, err)

		_, err = service.GetAuthCode(ctx, &dto.AuthCodeRequest{TransactionID: details.TransactionID})
		requireIdPError(t, err, idperrors.InvalidTransaction)
		gateway.AssertNotCalled(t, "Exchange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
