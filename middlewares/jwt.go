package middlewares

import (
	"errors"

	"github.com/crombie/crombieversario/internal/web"
	"github.com/crombie/crombieversario/pkg/jwt"
)

type JWTConfig struct {
	Extractor    web.Extractor
	extractorSet bool
}

type JWTOption func(*JWTConfig)

// WithJWTExtractor replaces the default bearer-token extractor.
func WithJWTExtractor(ext web.Extractor) JWTOption {
	return func(cfg *JWTConfig) {
		cfg.Extractor = ext
		cfg.extractorSet = true
	}
}

// JWT validates the request's token and stores *T under web.JWTClaimsKey.
// *T must implement jwt's Claims interface.
func JWT[T any](svc *jwt.Service, opts ...JWTOption) web.Middleware {
	cfg := &JWTConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.extractorSet {
		cfg.Extractor = web.NewExtractor(web.FromBearerToken())
	}

	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			token, ok := cfg.Extractor.Extract(c)
			if !ok {
				return web.ErrUnauthorized("missing authentication token", web.WithErrorCode("missing_token"))
			}

			claims := new(T)
			if err := svc.Parse(token, claims); err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					return web.ErrUnauthorized("token expired", web.WithErrorCode("token_expired"), web.WithError(err))
				}
				return web.ErrUnauthorized("invalid token", web.WithErrorCode("invalid_token"), web.WithError(err))
			}

			c.Set(web.JWTClaimsKey{}, claims)
			return next(c)
		}
	}
}

// GetJWTClaims returns the claims stored by JWT, or nil.
func GetJWTClaims[T any](c web.Context) *T {
	v, _ := c.Get(web.JWTClaimsKey{}).(*T)
	return v
}
