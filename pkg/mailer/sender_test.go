package mailer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crombie/crombieversario/pkg/mailer"
)

func TestValidating(t *testing.T) {
	t.Parallel()

	var calls int
	ok := mailer.Validating(mailer.SenderFunc(func(context.Context, *mailer.Email) error {
		calls++
		return nil
	}))

	ctx := context.Background()
	require.ErrorIs(t, ok.Send(ctx, &mailer.Email{}), mailer.ErrNoRecipient)
	require.ErrorIs(t, ok.Send(ctx, &mailer.Email{To: []string{"a@b.c"}}), mailer.ErrNoSubject)
	require.ErrorIs(t, ok.Send(ctx, &mailer.Email{To: []string{"a@b.c"}, Subject: "s"}), mailer.ErrNoContent)
	assert.Equal(t, 0, calls)

	require.NoError(t, ok.Send(ctx, &mailer.Email{To: []string{"a@b.c"}, Subject: "s", HTML: "<p>x</p>"}))
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	failing := mailer.Validating(mailer.SenderFunc(func(context.Context, *mailer.Email) error { return boom }))
	err := failing.Send(ctx, &mailer.Email{To: []string{"a@b.c"}, Subject: "s", HTML: "x"})
	require.ErrorIs(t, err, mailer.ErrSendFailed)
	require.ErrorIs(t, err, boom)
}

func TestRecipient(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a@b.c", mailer.Recipient("", "a@b.c"))
	assert.Equal(t, "Ana <a@b.c>", mailer.Recipient("Ana", "a@b.c"))
}
