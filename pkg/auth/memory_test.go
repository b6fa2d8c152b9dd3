package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// outbox captures OTP codes instead of texting them.
type outbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (o *outbox) send(_ context.Context, phone, code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.codes == nil {
		o.codes = make(map[string]string)
	}
	o.codes[phone] = code
	return nil
}

func (o *outbox) last(phone string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.codes[phone]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newProvider(t *testing.T, opts ...MemoryOption) (*MemoryProvider, *outbox, *fakeClock) {
	t.Helper()
	box := &outbox{}
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	base := []MemoryOption{
		WithBcryptCost(bcrypt.MinCost),
		WithCodeSender(box.send),
		WithClock(clock.Now),
	}
	return NewMemoryProvider(append(base, opts...)...), box, clock
}

func TestEmailPasswordSignIn(t *testing.T) {
	p, _, _ := newProvider(t)
	ctx := context.Background()

	reg, err := p.Register("Somchai@Example.com", "s3cret", "Somchai")
	require.NoError(t, err)

	_, err = p.Register("somchai@example.com", "other", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = p.SignInWithEmailPassword(ctx, "somchai@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, p.CurrentUser())

	_, err = p.SignInWithEmailPassword(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, err := p.SignInWithEmailPassword(ctx, " SOMCHAI@example.com ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, reg.UID, u.UID)
	assert.Equal(t, "Somchai", p.CurrentUser().DisplayName)

	require.NoError(t, p.SignOut(ctx))
	assert.Nil(t, p.CurrentUser())
}

func TestGoogleSignIn(t *testing.T) {
	p, _, _ := newProvider(t)
	_, err := p.SignInWithGoogle(context.Background())
	assert.ErrorIs(t, err, ErrGoogleUnavailable)

	p, _, _ = newProvider(t, WithGoogle(func(context.Context) (*User, error) {
		return &User{Email: "anong@example.com", DisplayName: "Anong", PhotoURL: "https://example.com/a.png"}, nil
	}))
	u, err := p.SignInWithGoogle(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, u.UID)
	assert.Equal(t, "https://example.com/a.png", p.CurrentUser().PhotoURL)

	boom := errors.New("popup closed")
	p, _, _ = newProvider(t, WithGoogle(func(context.Context) (*User, error) { return nil, boom }))
	_, err = p.SignInWithGoogle(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, p.CurrentUser())
}

func TestPhoneOTP(t *testing.T) {
	p, box, _ := newProvider(t)
	ctx := context.Background()
	const phone = "+66812345678"

	_, err := p.StartPhoneLogin(ctx, "0812345678")
	assert.ErrorIs(t, err, ErrInvalidPhone)

	id, err := p.StartPhoneLogin(ctx, phone)
	require.NoError(t, err)
	code := box.last(phone)
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = p.ConfirmPhoneCode(ctx, id, wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)

	u, err := p.ConfirmPhoneCode(ctx, id, code)
	require.NoError(t, err)
	assert.Equal(t, phone, u.PhoneNumber)

	// Single use.
	_, err = p.ConfirmPhoneCode(ctx, id, code)
	assert.ErrorIs(t, err, ErrUnknownVerification)

	// Same number maps to the same account.
	id2, err := p.StartPhoneLogin(ctx, phone)
	require.NoError(t, err)
	u2, err := p.ConfirmPhoneCode(ctx, id2, box.last(phone))
	require.NoError(t, err)
	assert.Equal(t, u.UID, u2.UID)
}

func TestPhoneOTPExpires(t *testing.T) {
	p, box, clock := newProvider(t, WithCodeTTL(time.Minute))
	ctx := context.Background()

	id, err := p.StartPhoneLogin(ctx, "+66812345678")
	require.NoError(t, err)
	clock.Advance(time.Minute)

	_, err = p.ConfirmPhoneCode(ctx, id, box.last("+66812345678"))
	assert.ErrorIs(t, err, ErrCodeExpired)

	_, err = p.ConfirmPhoneCode(ctx, id, box.last("+66812345678"))
	assert.ErrorIs(t, err, ErrUnknownVerification)
}

func TestStartPhoneLoginSendFailure(t *testing.T) {
	boom := errors.New("sms gateway down")
	p := NewMemoryProvider(WithCodeSender(func(context.Context, string, string) error { return boom }))

	_, err := p.StartPhoneLogin(context.Background(), "+66812345678")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, p.pending)
}

func TestOnAuthStateChanged(t *testing.T) {
	p, _, _ := newProvider(t)
	ctx := context.Background()
	_, err := p.Register("a@example.com", "pw", "A")
	require.NoError(t, err)

	var seen []*User
	unsubscribe := p.OnAuthStateChanged(func(u *User) { seen = append(seen, u) })

	_, err = p.SignInWithEmailPassword(ctx, "a@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))

	unsubscribe()
	unsubscribe()
	_, err = p.SignInWithEmailPassword(ctx, "a@example.com", "pw")
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Nil(t, seen[0])
	assert.Equal(t, "a@example.com", seen[1].Email)
	assert.Nil(t, seen[2])
}

func TestValidPhone(t *testing.T) {
	for _, ok := range []string{"+66812345678", "+14155552671"} {
		assert.True(t, ValidPhone(ok), ok)
	}
	for _, bad := range []string{"", "66812345678", "+0812345678", "+66 812 345 678", "+1234"} {
		assert.False(t, ValidPhone(bad), bad)
	}
}
