package store

import (
	"context"
	"time"

	"github.com/crombie/crombieversario/pkg/db"
)

// DB is satisfied by *pgxpool.Pool and pgxmock pools.
type DB interface {
	db.Queryer
	db.TxBeginner
}

// Store is the Postgres repository.
type Store struct {
	db  DB
	now func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now for timestamps written by the store.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(pool DB, opts ...Option) *Store {
	s := &Store{db: pool, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) q(ctx context.Context) db.Queryer {
	return db.QueryerFromContext(ctx, s.db)
}

// InTx runs fn in a transaction carried by ctx.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.InTx(ctx, s.db, fn)
}
