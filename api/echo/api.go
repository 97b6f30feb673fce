package echo

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/idp/dto"
	"go.pilab.hu/idp/errors"
)

// AuthorizationService is the authorization-flow surface the API exposes.
type AuthorizationService interface {
	GetOauthDetails(ctx context.Context, req *dto.OAuthDetailRequest) (*dto.OAuthDetailResponse, error)
	SendOtp(ctx context.Context, req *dto.OtpRequest) (*dto.OtpResponse, error)
	AuthenticateUser(ctx context.Context, req *dto.AuthRequest) (*dto.AuthResponse, error)
	AuthenticateUserV2(ctx context.Context, req *dto.AuthRequest) (*dto.AuthResponseV2, error)
	GetAuthCode(ctx context.Context, req *dto.AuthCodeRequest) (*dto.AuthCodeResponse, error)
}

// WalletBindingService is the binding-flow surface the API exposes.
type WalletBindingService interface {
	BindWallet(ctx context.Context, req *dto.WalletBindingRequest) (*dto.WalletBindingResponse, error)
}

// IdentityAPI holds the HTTP handlers for both flows.
type IdentityAPI struct {
	authorization AuthorizationService
	binding       WalletBindingService
}

// NewIdentityAPI initializes the identity-provider API.
func NewIdentityAPI(authorization AuthorizationService, binding WalletBindingService) *IdentityAPI {
	return &IdentityAPI{
		authorization: authorization,
		binding:       binding,
	}
}

// RegisterRoutes registers the identity-provider routes.
func (a *IdentityAPI) RegisterRoutes(e *echo.Echo) {
	e.POST("/authorization/oauth-details", a.OauthDetailsHandler)
	e.POST("/authorization/send-otp", a.SendOtpHandler)
	e.POST("/authorization/authenticate", a.AuthenticateHandler)
	e.POST("/v2/authorization/authenticate", a.AuthenticateV2Handler)
	e.POST("/authorization/auth-code", a.AuthCodeHandler)
	e.POST("/binding/wallet-binding", a.WalletBindingHandler)
}

func (a *IdentityAPI) OauthDetailsHandler(c echo.Context) error {
	var req dto.OAuthDetailRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errors.NewInvalidRequest("malformed request body"))
	}
	resp, err := a.authorization.GetOauthDetails(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *IdentityAPI) SendOtpHandler(c echo.Context) error {
	var req dto.OtpRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errors.NewInvalidRequest("malformed request body"))
	}
	resp, err := a.authorization.SendOtp(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *IdentityAPI) AuthenticateHandler(c echo.Context) error {
	var req dto.AuthRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errors.NewInvalidRequest("malformed request body"))
	}
	resp, err := a.authorization.AuthenticateUser(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *IdentityAPI) AuthenticateV2Handler(c echo.Context) error {
	var req dto.AuthRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errors.NewInvalidRequest("malformed request body"))
	}
	resp, err := a.authorization.AuthenticateUserV2(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *IdentityAPI) AuthCodeHandler(c echo.Context) error {
	var req dto.AuthCodeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errors.NewInvalidRequest("malformed request body"))
	}
	resp, err := a.authorization.GetAuthCode(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *IdentityAPI) WalletBindingHandler(c echo.Context) error {
	var req dto.WalletBindingRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errors.NewInvalidRequest("malformed request body"))
	}
	resp, err := a.binding.BindWallet(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// writeError maps a typed core error onto an HTTP response. Unknown errors
// become an opaque server_error; internals never leak to the caller.
func writeError(c echo.Context, err error) error {
	var idpErr *errors.IdPError
	if !stderrors.As(err, &idpErr) {
		log.Error().Err(err).Msg("Unhandled error reached the API layer")
		idpErr = errors.New(errors.ServerError)
	}
	return c.JSON(statusFor(idpErr.Code), idpErr)
}

func statusFor(code string) int {
	switch code {
	case errors.AuthFailed:
		return http.StatusUnauthorized
	case errors.ServerError, errors.SendOtpFailed, errors.KycExchangeFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
