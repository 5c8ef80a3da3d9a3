package mailer

import (
	"context"
	"errors"
)

// Sender delivers a prepared Email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email *Email) error

func (f SenderFunc) Send(ctx context.Context, email *Email) error {
	return f(ctx, email)
}

// Validating wraps s so that incomplete emails never reach the provider and
// provider errors carry ErrSendFailed.
func Validating(s Sender) Sender {
	return SenderFunc(func(ctx context.Context, email *Email) error {
		if err := email.Validate(); err != nil {
			return err
		}
		if err := s.Send(ctx, email); err != nil {
			return errors.Join(ErrSendFailed, err)
		}
		return nil
	})
}
