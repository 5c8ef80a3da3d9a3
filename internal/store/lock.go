package store

import (
	"context"
	"fmt"
	"strconv"
)

// WithSendLock runs fn in a transaction holding a Postgres advisory lock for
// (email, year). The lock is released when the transaction ends, so fn must
// return nil for its writes to commit.
func (s *Store) WithSendLock(ctx context.Context, email string, year int, fn func(ctx context.Context) error) error {
	return s.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.q(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, sendLockKey(email, year)); err != nil {
			return fmt.Errorf("store: acquire send lock: %w", err)
		}
		return fn(ctx)
	})
}

func sendLockKey(email string, year int) string {
	return "anniversary:" + normalizeEmail(email) + ":" + strconv.Itoa(year)
}
