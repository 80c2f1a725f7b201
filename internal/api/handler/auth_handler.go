package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/usermgmt/user-service/internal/api/metrics"
	"github.com/usermgmt/user-service/internal/core/ports"
)

const (
	msgBadCredentials = "Invalid username or password."
	msgLoginFailed    = "An error occurred during authentication."
)

type AuthHandler struct {
	users  ports.UserService
	tokens ports.TokenService
	log    zerolog.Logger
}

func NewAuthHandler(users ports.UserService, tokens ports.TokenService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=3,max=100"`
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  loginResponse
// @Failure      401   {object}  loginResponse
// @Failure      500   {object}  loginResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return loginFailure(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return loginFailure(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.users.AuthenticateUser(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("username", req.Username).Msg("authentication failed unexpectedly")
		return loginFailure(c, http.StatusInternalServerError, msgLoginFailed)
	}
	if user == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return loginFailure(c, http.StatusUnauthorized, msgBadCredentials)
	}

	token, err := h.tokens.Issue(user.Username, []string{string(user.Role)})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("username", user.Username).Msg("token issuance failed")
		return loginFailure(c, http.StatusInternalServerError, msgLoginFailed)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{Status: statusSuccess, Token: &token})
}

func loginFailure(c echo.Context, code int, msg string) error {
	return c.JSON(code, loginResponse{Status: statusError, Message: &msg})
}
