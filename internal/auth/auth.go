// Package auth signs dashboard users in with email and password and issues
// the bearer tokens checked by the JWT middleware.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/pkg/jwt"
)

const minPasswordLen = 8

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrForbiddenDomain    = errors.New("auth: email domain not allowed")
	ErrForbiddenRole      = errors.New("auth: role not allowed")
	ErrWeakPassword       = errors.New("auth: password too short")
)

// Claims are the dashboard token claims.
type Claims struct {
	gojwt.RegisteredClaims
	Email string     `json:"email"`
	Role  store.Role `json:"role"`
}

// Token is the login response.
type Token struct {
	ExpiresAt time.Time  `json:"expiresAt"`
	Token     string     `json:"token"`
	Role      store.Role `json:"role"`
}

type Users interface {
	UserByEmail(ctx context.Context, email string) (store.User, error)
	CreateUser(ctx context.Context, email, passwordHash string, role store.Role) (store.User, error)
}

type Service struct {
	users     Users
	tokens    *jwt.Service
	dummy     []byte
	domain    string
	cost      int
	dummyOnce sync.Once
}

type Option func(*Service)

// WithEmailDomain restricts sign-in to addresses ending in domain.
func WithEmailDomain(domain string) Option {
	return func(s *Service) {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" && !strings.HasPrefix(domain, "@") {
			domain = "@" + domain
		}
		s.domain = domain
	}
}

// WithCost sets the bcrypt cost. Default: bcrypt.DefaultCost.
func WithCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func New(users Users, tokens *jwt.Service, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) allowed(email string) bool {
	return s.domain == "" || strings.HasSuffix(email, s.domain)
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !s.allowed(email) {
		return nil, ErrForbiddenDomain
	}

	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Role.Valid() {
		return nil, ErrForbiddenRole
	}

	claims := Claims{
		RegisteredClaims: s.tokens.Registered(user.ID.String()),
		Email:            user.Email,
		Role:             user.Role,
	}
	signed, err := s.tokens.Generate(claims)
	if err != nil {
		return nil, err
	}
	return &Token{Token: signed, ExpiresAt: claims.ExpiresAt.Time, Role: user.Role}, nil
}

// Register creates a dashboard user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password string, role store.Role) (store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case !s.allowed(email):
		return store.User{}, ErrForbiddenDomain
	case !role.Valid():
		return store.User{}, ErrForbiddenRole
	case len(password) < minPasswordLen:
		return store.User{}, fmt.Errorf("%w: at least %d characters", ErrWeakPassword, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return store.User{}, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.users.CreateUser(ctx, email, string(hash), role)
}

func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("crombieversario"), s.cost)
	})
	return s.dummy
}
