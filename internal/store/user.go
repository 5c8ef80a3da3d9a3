package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleStaff      Role = "staff"
)

// Valid reports whether r may sign in to the dashboard.
func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleStaff
}

// User is a dashboard account.
type User struct {
	CreatedAt    time.Time `json:"createdAt"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	ID           uuid.UUID `json:"id"`
}

// CreateUser inserts a user. A duplicate email fails with ErrConflict.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string, role Role) (User, error) {
	switch {
	case normalizeEmail(email) == "":
		return User{}, fmt.Errorf("%w: email is required", ErrInvalid)
	case passwordHash == "":
		return User{}, fmt.Errorf("%w: password hash is required", ErrInvalid)
	case !role.Valid():
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}

	u := User{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt,
	)
	if err != nil {
		return User{}, translate(err, ErrConflict)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	var (
		u    User
		id   string
		role string
	)
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id::text, email, password_hash, role, created_at FROM users WHERE email = $1`,
		normalizeEmail(email),
	).Scan(&id, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if err = translate(err, nil); errors.Is(err, ErrNotFound) {
			return User{}, err
		}
		return User{}, fmt.Errorf("store: user by email: %w", err)
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return User{}, fmt.Errorf("store: user by email: %w", err)
	}
	u.Role = Role(role)
	return u, nil
}
