package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crombie/crombieversario/internal/auth"
	"github.com/crombie/crombieversario/internal/web"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.Token, error)
}

type Login struct {
	auth Authenticator
}

func NewLogin(a Authenticator) *Login {
	return &Login{auth: a}
}

func (h *Login) Routes(r web.Router) {
	r.POST("/api/login", h.login)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required,max=256"`
}

func (h *Login) login(c web.Context) error {
	var req loginRequest
	verrs, err := c.BindJSON(&req)
	if err != nil {
		return web.ErrBadRequest("invalid request body", web.WithError(err))
	}
	if len(verrs) > 0 {
		return web.ErrUnprocessable("invalid credentials payload", web.WithDetails(verrs))
	}

	token, err := h.auth.Login(c, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return web.ErrUnauthorized("invalid email or password", web.WithErrorCode("invalid_credentials"))
	case errors.Is(err, auth.ErrForbiddenDomain):
		return web.ErrForbidden("email domain not allowed", web.WithErrorCode("forbidden_domain"))
	case errors.Is(err, auth.ErrForbiddenRole):
		return web.ErrForbidden("role not allowed", web.WithErrorCode("forbidden_role"))
	case err != nil:
		return web.ErrInternal("could not sign in", web.WithError(err))
	}

	c.Logger().InfoContext(c, "user signed in", slog.String("role", string(token.Role)))
	return c.JSON(http.StatusOK, token)
}
