package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxErrorMessage = 2000

// FailedEmail records one failed delivery attempt.
type FailedEmail struct {
	AttemptedAt     time.Time `json:"attemptedAt"`
	EmployeeEmail   string    `json:"employeeEmail"`
	ErrorMessage    string    `json:"errorMessage"`
	AnniversaryYear int       `json:"anniversaryYear"`
	ID              uuid.UUID `json:"id"`
}

func (s *Store) InsertFailed(ctx context.Context, email string, year int, cause error) (FailedEmail, error) {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	if r := []rune(msg); len(r) > maxErrorMessage {
		msg = string(r[:maxErrorMessage])
	}
	rec := FailedEmail{
		ID:              uuid.New(),
		EmployeeEmail:   normalizeEmail(email),
		AnniversaryYear: year,
		AttemptedAt:     s.now().UTC(),
		ErrorMessage:    msg,
	}
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO failed_email_logs (id, employee_email, anniversary_year, attempted_at, error_message) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.EmployeeEmail, rec.AnniversaryYear, rec.AttemptedAt, rec.ErrorMessage,
	)
	if err != nil {
		return FailedEmail{}, fmt.Errorf("store: insert failed email: %w", err)
	}
	return rec, nil
}

// LatestFailed returns up to limit failures, newest first.
func (s *Store) LatestFailed(ctx context.Context, limit int) ([]FailedEmail, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT id::text, employee_email, anniversary_year, attempted_at, error_message
FROM failed_email_logs ORDER BY attempted_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list failed emails: %w", err)
	}
	defer rows.Close()

	out := []FailedEmail{}
	for rows.Next() {
		var (
			rec FailedEmail
			id  string
		)
		if err := rows.Scan(&id, &rec.EmployeeEmail, &rec.AnniversaryYear, &rec.AttemptedAt, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("store: scan failed email: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: scan failed email: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list failed emails: %w", err)
	}
	return out, nil
}
