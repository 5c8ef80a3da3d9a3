// Package jwt issues and verifies HS256 tokens with golang-jwt.
//
// Claims types embed jwt.RegisteredClaims from golang-jwt:
//
//	type Claims struct {
//	    gojwt.RegisteredClaims
//	    Role string `json:"role"`
//	}
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrSecretTooShort   = errors.New("jwt: secret must be at least 32 bytes")
	ErrInvalidToken     = errors.New("jwt: invalid token")
	ErrExpiredToken     = errors.New("jwt: token expired")
	ErrInvalidSignature = errors.New("jwt: invalid signature")
	ErrInvalidClaims    = errors.New("jwt: claims type must implement jwt.Claims")
)

const minSecretLen = 32

// Service signs and parses tokens with a shared secret.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithIssuer sets the iss claim checked on parse.
func WithIssuer(iss string) Option {
	return func(s *Service) { s.issuer = iss }
}

// WithTTL sets the lifetime returned by TTL. Default: 12h.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(secret []byte, opts ...Option) (*Service, error) {
	if len(secret) < minSecretLen {
		return nil, ErrSecretTooShort
	}
	s := &Service{secret: secret, ttl: 12 * time.Hour, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func NewFromString(secret string, opts ...Option) (*Service, error) {
	return New([]byte(secret), opts...)
}

func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) Issuer() string { return s.issuer }

// Now is the service clock, used for iat and exp.
func (s *Service) Now() time.Time { return s.now() }

// Registered fills the standard claims for subject using the service clock.
func (s *Service) Registered(subject string) gojwt.RegisteredClaims {
	now := s.now()
	return gojwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(s.ttl)),
	}
}

// Generate signs claims with HS256.
func (s *Service) Generate(claims gojwt.Claims) (string, error) {
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return token, nil
}

// Parse verifies token and decodes it into dst, which must be a pointer to a
// type implementing jwt.Claims.
func (s *Service) Parse(token string, dst any) error {
	claims, ok := dst.(gojwt.Claims)
	if !ok {
		return ErrInvalidClaims
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.now),
		gojwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	_, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gojwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return errors.Join(ErrInvalidToken, err)
	}
}
