package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// SentLog records one delivered anniversary email.
type SentLog struct {
	SentAt          time.Time  `json:"sentAt"`
	OpenedAt        *time.Time `json:"openedAt,omitempty"`
	EmployeeEmail   string     `json:"employeeEmail"`
	AnniversaryYear int        `json:"anniversaryYear"`
	ID              uuid.UUID  `json:"id"`
	Opened          bool       `json:"opened"`
}

const sentLogColumns = `id::text, employee_email, anniversary_year, sent_at, opened, opened_at`

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasSent reports whether a SentLog exists for (email, year).
func (s *Store) HasSent(ctx context.Context, email string, year int) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sent_logs WHERE employee_email = $1 AND anniversary_year = $2)`,
		normalizeEmail(email), year,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: check sent log: %w", err)
	}
	return exists, nil
}

// InsertSent writes a SentLog stamped with the store clock. A second insert
// for the same (email, year) fails with ErrAlreadySent.
func (s *Store) InsertSent(ctx context.Context, email string, year int) (SentLog, error) {
	rec := SentLog{
		ID:              uuid.New(),
		EmployeeEmail:   normalizeEmail(email),
		AnniversaryYear: year,
		SentAt:          s.now().UTC(),
	}
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO sent_logs (id, employee_email, anniversary_year, sent_at) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.EmployeeEmail, rec.AnniversaryYear, rec.SentAt,
	)
	if err != nil {
		return SentLog{}, translate(err, ErrAlreadySent)
	}
	return rec, nil
}

// MarkOpened flags the most recent SentLog for (email, year) as opened. Only
// the first call changes anything; it reports whether a row was updated.
func (s *Store) MarkOpened(ctx context.Context, email string, year int) (bool, error) {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE sent_logs SET opened = true, opened_at = $3
WHERE id = (
    SELECT id FROM sent_logs
    WHERE employee_email = $1 AND anniversary_year = $2
    ORDER BY sent_at DESC LIMIT 1
) AND NOT opened`,
		normalizeEmail(email), year, s.now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("store: mark opened: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListSentBetween returns the SentLogs with from <= sent_at < to, oldest first.
func (s *Store) ListSentBetween(ctx context.Context, from, to time.Time) ([]SentLog, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+sentLogColumns+` FROM sent_logs WHERE sent_at >= $1 AND sent_at < $2 ORDER BY sent_at`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list sent logs: %w", err)
	}
	defer rows.Close()

	var out []SentLog
	for rows.Next() {
		var (
			rec      SentLog
			id       string
			openedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &rec.EmployeeEmail, &rec.AnniversaryYear, &rec.SentAt, &rec.Opened, &openedAt); err != nil {
			return nil, fmt.Errorf("store: scan sent log: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: scan sent log: %w", err)
		}
		if openedAt.Valid {
			t := openedAt.Time
			rec.OpenedAt = &t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list sent logs: %w", err)
	}
	return out, nil
}

// FirstSentAt returns the oldest sent_at, and false when nothing was sent yet.
func (s *Store) FirstSentAt(ctx context.Context) (time.Time, bool, error) {
	var first pgtype.Timestamptz
	if err := s.q(ctx).QueryRow(ctx, `SELECT min(sent_at) FROM sent_logs`).Scan(&first); err != nil {
		return time.Time{}, false, fmt.Errorf("store: first sent log: %w", err)
	}
	return first.Time, first.Valid, nil
}
