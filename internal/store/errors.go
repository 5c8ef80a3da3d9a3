package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound    = errors.New("store: not found")
	ErrAlreadySent = errors.New("store: anniversary email already sent")
	ErrConflict    = errors.New("store: already exists")
	ErrInvalid     = errors.New("store: invalid record")
)

const uniqueViolation = "23505"

// translate maps pgx errors onto the package sentinels. onUnique is returned
// (joined with err) for unique violations.
func translate(err, onUnique error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if onUnique != nil && errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Join(onUnique, err)
	}
	return err
}
