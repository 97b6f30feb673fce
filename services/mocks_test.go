package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/idp/domain"
	idperrors "go.pilab.hu/idp/errors"
)

// --- Mock Implementations ---

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) GetClient(ctx context.Context, clientID string) (*domain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

type MockAuthCodeRepository struct {
	mock.Mock
}

func (m *MockAuthCodeRepository) SaveAuthCode(ctx context.Context, code *domain.AuthCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockAuthCodeRepository) GetAuthCode(ctx context.Context, code string) (*domain.AuthCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthCode), args.Error(1)
}

func (m *MockAuthCodeRepository) MarkAuthCodeAsUsed(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type MockAuthenticationGateway struct {
	mock.Mock
}

func (m *MockAuthenticationGateway) Authenticate(ctx context.Context, partnerID, apiKey string, req *domain.KycAuthRequest) (*domain.KycAuthResult, error) {
	args := m.Called(ctx, partnerID, apiKey, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KycAuthResult), args.Error(1)
}

func (m *MockAuthenticationGateway) Exchange(ctx context.Context, partnerID, apiKey, kycToken string, claims []string) (*domain.KycExchangeResult, error) {
	args := m.Called(ctx, partnerID, apiKey, kycToken, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KycExchangeResult), args.Error(1)
}

type MockOtpSender struct {
	mock.Mock
}

func (m *MockOtpSender) SendOtp(ctx context.Context, transactionID, individualID string, channels []string) (*OtpDispatchResult, error) {
	args := m.Called(ctx, transactionID, individualID, channels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OtpDispatchResult), args.Error(1)
}

// requireIdPError asserts that err is a typed core error carrying code.
func requireIdPError(t *testing.T, err error, code string) {
	t.Helper()
	var idpErr *idperrors.IdPError
	require.ErrorAs(t, err, &idpErr)
	assert.Equal(t, code, idpErr.Code)
}
