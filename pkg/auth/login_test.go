package auth

import (
	"context"
	"testing"

	"github.com/kittclouds/labkit/pkg/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginPhoneFlow(t *testing.T) {
	p, box, _ := newProvider(t)
	storage := kvstore.NewMemory()
	l := NewLogin(p, storage)
	ctx := context.Background()

	l.ChoosePhone()
	assert.Equal(t, StepPhone, l.Step())

	require.ErrorIs(t, l.StartPhone(ctx, "081-234-5678"), ErrInvalidPhone)
	assert.Equal(t, StepPhone, l.Step())
	assert.Equal(t, ErrInvalidPhone.Error(), l.Err())

	require.NoError(t, l.StartPhone(ctx, " +66812345678 "))
	assert.Equal(t, StepOTP, l.Step())
	assert.Equal(t, "+66812345678", l.Phone())
	assert.Empty(t, l.Err())

	id, ok, err := storage.GetItem(VerificationKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, id)

	u, err := l.ConfirmPhone(ctx, box.last("+66812345678"))
	require.NoError(t, err)
	assert.Equal(t, "+66812345678", u.PhoneNumber)

	_, ok, _ = storage.GetItem(VerificationKey)
	assert.False(t, ok, "verification id should be cleared")
	assert.Equal(t, StepMethods, l.Step())
}

func TestLoginConfirmWithoutVerification(t *testing.T) {
	p, _, _ := newProvider(t)
	l := NewLogin(p, kvstore.NewMemory())

	_, err := l.ConfirmPhone(context.Background(), "123456")
	assert.ErrorIs(t, err, ErrNoVerification)
	assert.Equal(t, "verification id not found", l.Err())
}

func TestLoginWrongCodeKeepsVerification(t *testing.T) {
	p, box, _ := newProvider(t)
	storage := kvstore.NewMemory()
	l := NewLogin(p, storage)
	ctx := context.Background()

	require.NoError(t, l.StartPhone(ctx, "+66812345678"))
	wrong := "000000"
	if box.last("+66812345678") == wrong {
		wrong = "111111"
	}

	_, err := l.ConfirmPhone(ctx, wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, StepOTP, l.Step())

	_, ok, _ := storage.GetItem(VerificationKey)
	assert.True(t, ok)
}

func TestLoginEmail(t *testing.T) {
	p, _, _ := newProvider(t)
	_, err := p.Register("a@example.com", "pw", "A")
	require.NoError(t, err)

	l := NewLogin(p, kvstore.NewMemory())
	ctx := context.Background()
	l.ChooseEmail()

	_, err = l.Email(ctx, "a@example.com", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = l.Email(ctx, "a@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, StepEmail, l.Step())

	u, err := l.Email(ctx, "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "A", u.DisplayName)

	l.Back()
	assert.Equal(t, StepMethods, l.Step())
}
