package echo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/idp/dto"
	idperrors "go.pilab.hu/idp/errors"
)

type stubAuthorizationService struct {
	detailsErr error
	authCode   *dto.AuthCodeResponse
}

func (s *stubAuthorizationService) GetOauthDetails(context.Context, *dto.OAuthDetailRequest) (*dto.OAuthDetailResponse, error) {
	if s.detailsErr != nil {
		return nil, s.detailsErr
	}
	return &dto.OAuthDetailResponse{TransactionID: "txn-1"}, nil
}

func (s *stubAuthorizationService) SendOtp(context.Context, *dto.OtpRequest) (*dto.OtpResponse, error) {
	return nil, idperrors.New(idperrors.SendOtpFailed)
}

func (s *stubAuthorizationService) AuthenticateUser(context.Context, *dto.AuthRequest) (*dto.AuthResponse, error) {
	return nil, idperrors.NewAuthFailed()
}

func (s *stubAuthorizationService) AuthenticateUserV2(context.Context, *dto.AuthRequest) (*dto.AuthResponseV2, error) {
	return nil, idperrors.NewAuthFailed()
}

func (s *stubAuthorizationService) GetAuthCode(context.Context, *dto.AuthCodeRequest) (*dto.AuthCodeResponse, error) {
	return s.authCode, nil
}

type stubBindingService struct {
	err error
}

func (s *stubBindingService) BindWallet(context.Context, *dto.WalletBindingRequest) (*dto.WalletBindingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.WalletBindingResponse{TransactionID: "T1"}, nil
}

func performJSON(t *testing.T, e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newTestServer(auth AuthorizationService, binding WalletBindingService) *echo.Echo {
	e := echo.New()
	NewIdentityAPI(auth, binding).RegisterRoutes(e)
	return e
}

func TestIdentityAPI_ErrorMapping(t *testing.T) {
	t.Run("typed core errors keep their code", func(t *testing.T) {
		e := newTestServer(&stubAuthorizationService{detailsErr: idperrors.NewInvalidClient("unknown client")}, &stubBindingService{})

		rec := performJSON(t, e, "/authorization/oauth-details", `{"clientId":"ghost"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"invalid_client"`)
	})

	t.Run("auth failures are 401", func(t *testing.T) {
		e := newTestServer(&stubAuthorizationService{}, &stubBindingService{})

		rec := performJSON(t, e, "/authorization/authenticate", `{"transactionId":"txn-1"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"auth_failed"`)
	})

	t.Run("dispatch failures are 500", func(t *testing.T) {
		e := newTestServer(&stubAuthorizationService{}, &stubBindingService{})

		rec := performJSON(t, e, "/authorization/send-otp", `{"transactionId":"txn-1"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"send_otp_failed"`)
	})

	t.Run("untyped errors become an opaque server_error", func(t *testing.T) {
		e := newTestServer(&stubAuthorizationService{}, &stubBindingService{err: assert.AnError})

		rec := performJSON(t, e, "/binding/wallet-binding", `{"transactionId":"T1"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"server_error"`)
		assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	})

	t.Run("malformed body is invalid_request", func(t *testing.T) {
		e := newTestServer(&stubAuthorizationService{}, &stubBindingService{})

		rec := performJSON(t, e, "/authorization/oauth-details", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"invalid_request"`)
	})
}

func TestIdentityAPI_SuccessPassthrough(t *testing.T) {
	e := newTestServer(&stubAuthorizationService{}, &stubBindingService{})

	rec := performJSON(t, e, "/authorization/oauth-details", `{"clientId":"client-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transactionId":"txn-1"`)
}
