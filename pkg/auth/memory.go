package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCodeTTL is how long an OTP code stays valid.
const DefaultCodeTTL = 5 * time.Minute

// CodeSender delivers an OTP code to a phone number.
type CodeSender func(ctx context.Context, phone, code string) error

// GoogleSignIn performs the Google popup/redirect and returns the account.
type GoogleSignIn func(ctx context.Context) (*User, error)

type account struct {
	user *User
	hash []byte
}

type pendingCode struct {
	phone   string
	code    string
	expires time.Time
}

// MemoryProvider keeps accounts, pending OTP codes and the current user in
// memory.
type MemoryProvider struct {
	mu        sync.Mutex
	accounts  map[string]*account // by normalized email
	phones    map[string]*User    // by E.164 number
	pending   map[string]*pendingCode
	current   *User
	listeners map[uint64]func(*User)
	nextID    uint64

	google GoogleSignIn
	sender CodeSender
	ttl    time.Duration
	cost   int
	now    func() time.Time
	log    *zap.Logger
}

// MemoryOption configures a MemoryProvider.
type MemoryOption func(*MemoryProvider)

// WithGoogle enables SignInWithGoogle.
func WithGoogle(fn GoogleSignIn) MemoryOption {
	return func(p *MemoryProvider) { p.google = fn }
}

// WithCodeSender sets how OTP codes reach the user.
func WithCodeSender(fn CodeSender) MemoryOption {
	return func(p *MemoryProvider) { p.sender = fn }
}

// WithCodeTTL overrides DefaultCodeTTL.
func WithCodeTTL(d time.Duration) MemoryOption {
	return func(p *MemoryProvider) { p.ttl = d }
}

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) MemoryOption {
	return func(p *MemoryProvider) { p.cost = cost }
}

// WithClock replaces time.Now for code expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(p *MemoryProvider) { p.now = now }
}

// WithProviderLogger sets the provider's logger.
func WithProviderLogger(log *zap.Logger) MemoryOption {
	return func(p *MemoryProvider) { p.log = log }
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider(opts ...MemoryOption) *MemoryProvider {
	p := &MemoryProvider{
		accounts:  make(map[string]*account),
		phones:    make(map[string]*User),
		pending:   make(map[string]*pendingCode),
		listeners: make(map[uint64]func(*User)),
		ttl:       DefaultCodeTTL,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ Provider = (*MemoryProvider)(nil)

// Register creates an email/password account.
func (p *MemoryProvider) Register(email, password, displayName string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; ok {
		return nil, ErrEmailTaken
	}
	u := &User{UID: uuid.NewString(), Email: email, DisplayName: displayName}
	p.accounts[email] = &account{user: u, hash: hash}
	return u.Clone(), nil
}

// SignInWithEmailPassword checks the password and signs the account in.
func (p *MemoryProvider) SignInWithEmailPassword(ctx context.Context, email, password string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	acc, ok := p.accounts[normalizeEmail(email)]
	p.mu.Unlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return p.signIn(acc.user, "password"), nil
}

// SignInWithGoogle runs the configured GoogleSignIn and signs the result in.
func (p *MemoryProvider) SignInWithGoogle(ctx context.Context) (*User, error) {
	if p.google == nil {
		return nil, ErrGoogleUnavailable
	}
	u, err := p.google(ctx)
	if err != nil {
		return nil, fmt.Errorf("google sign-in: %w", err)
	}
	if u == nil {
		return nil, errors.New("google sign-in returned no user")
	}
	u = u.Clone()
	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	return p.signIn(u, "google"), nil
}

// StartPhoneLogin issues a 6-digit code for phone and sends it.
func (p *MemoryProvider) StartPhoneLogin(ctx context.Context, phone string) (string, error) {
	if !ValidPhone(phone) {
		return "", ErrInvalidPhone
	}
	if p.sender == nil {
		return "", errors.New("no code sender configured")
	}
	code, err := newCode()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	p.mu.Lock()
	p.pending[id] = &pendingCode{phone: phone, code: code, expires: p.now().Add(p.ttl)}
	p.mu.Unlock()

	if err := p.sender(ctx, phone, code); err != nil {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
		return "", fmt.Errorf("send code: %w", err)
	}

	p.log.Debug("verification code sent", zap.String("verification_id", id))
	return id, nil
}

// ConfirmPhoneCode checks code against the pending verification. A matching
// code is consumed; a wrong code leaves the verification open for retry.
func (p *MemoryProvider) ConfirmPhoneCode(ctx context.Context, verificationID, code string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	pc, ok := p.pending[verificationID]
	if !ok {
		p.mu.Unlock()
		return nil, ErrUnknownVerification
	}
	if !p.now().Before(pc.expires) {
		delete(p.pending, verificationID)
		p.mu.Unlock()
		return nil, ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(pc.code), []byte(code)) != 1 {
		p.mu.Unlock()
		return nil, ErrInvalidCode
	}
	delete(p.pending, verificationID)

	u, ok := p.phones[pc.phone]
	if !ok {
		u = &User{UID: uuid.NewString(), PhoneNumber: pc.phone}
		p.phones[pc.phone] = u
	}
	p.mu.Unlock()

	return p.signIn(u, "phone"), nil
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (p *MemoryProvider) CurrentUser() *User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

// SignOut clears the current user.
func (p *MemoryProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	p.log.Info("signed out")
	p.notify(nil)
	return nil
}

// OnAuthStateChanged registers fn and calls it with the current user.
func (p *MemoryProvider) OnAuthStateChanged(fn func(*User)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.current.Clone()
	p.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *MemoryProvider) signIn(u *User, method string) *User {
	p.mu.Lock()
	p.current = u.Clone()
	p.mu.Unlock()

	p.log.Info("signed in", zap.String("uid", u.UID), zap.String("method", method))
	p.notify(u)
	return u.Clone()
}

// notify calls listeners outside the lock so they may call back in.
func (p *MemoryProvider) notify(u *User) {
	p.mu.Lock()
	fns := make([]func(*User), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(u.Clone())
	}
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
