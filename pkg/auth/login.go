package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kittclouds/labkit/pkg/kvstore"
)

// VerificationKey is the storage key holding a pending phone verification id.
const VerificationKey = "verificationId"

// ErrNoVerification is returned by ConfirmPhone when no phone login was
// started, or its id was lost.
var ErrNoVerification = errors.New("verification id not found")

// ErrMissingCredentials is returned by Email when a field is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// Step is a screen of the login flow.
type Step string

const (
	StepMethods Step = "methods"
	StepEmail   Step = "email"
	StepPhone   Step = "phone"
	StepOTP     Step = "otp"
)

// Login drives a Provider through the login screens. The pending
// verification id is kept in storage so a reload between sending and
// confirming the code does not lose it.
type Login struct {
	provider Provider
	storage  kvstore.Storage

	mu    sync.Mutex
	step  Step
	phone string
	err   string
}

// NewLogin starts a flow at StepMethods.
func NewLogin(p Provider, storage kvstore.Storage) *Login {
	return &Login{provider: p, storage: storage, step: StepMethods}
}

// Step returns the current screen.
func (l *Login) Step() Step {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.step
}

// Phone returns the number the last code was sent to.
func (l *Login) Phone() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phone
}

// Err returns the message of the last failed action, or "".
func (l *Login) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// ChooseEmail moves to the email/password screen.
func (l *Login) ChooseEmail() { l.moveTo(StepEmail) }

// ChoosePhone moves to the phone number screen.
func (l *Login) ChoosePhone() { l.moveTo(StepPhone) }

// Back returns to the method list and forgets the entered phone number.
func (l *Login) Back() {
	l.mu.Lock()
	l.phone = ""
	l.mu.Unlock()
	l.moveTo(StepMethods)
}

func (l *Login) moveTo(s Step) {
	l.mu.Lock()
	l.step = s
	l.err = ""
	l.mu.Unlock()
}

// Email signs in with email and password.
func (l *Login) Email(ctx context.Context, email, password string) (*User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, l.fail(ErrMissingCredentials)
	}
	u, err := l.provider.SignInWithEmailPassword(ctx, email, password)
	if err != nil {
		return nil, l.fail(err)
	}
	l.moveTo(StepMethods)
	return u, nil
}

// Google signs in with Google.
func (l *Login) Google(ctx context.Context) (*User, error) {
	u, err := l.provider.SignInWithGoogle(ctx)
	if err != nil {
		return nil, l.fail(err)
	}
	l.moveTo(StepMethods)
	return u, nil
}

// StartPhone sends a code to phone, stores the verification id and moves to
// StepOTP.
func (l *Login) StartPhone(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if !ValidPhone(phone) {
		return l.fail(ErrInvalidPhone)
	}

	id, err := l.provider.StartPhoneLogin(ctx, phone)
	if err != nil {
		return l.fail(err)
	}
	if err := l.storage.SetItem(VerificationKey, id); err != nil {
		return l.fail(fmt.Errorf("save verification id: %w", err))
	}

	l.mu.Lock()
	l.phone = phone
	l.mu.Unlock()
	l.moveTo(StepOTP)
	return nil
}

// ConfirmPhone checks code against the stored verification id and removes
// the id once the provider accepts it.
func (l *Login) ConfirmPhone(ctx context.Context, code string) (*User, error) {
	id, ok, err := l.storage.GetItem(VerificationKey)
	if err != nil {
		return nil, l.fail(fmt.Errorf("load verification id: %w", err))
	}
	if !ok || id == "" {
		return nil, l.fail(ErrNoVerification)
	}

	u, err := l.provider.ConfirmPhoneCode(ctx, id, strings.TrimSpace(code))
	if err != nil {
		return nil, l.fail(err)
	}
	if err := l.storage.RemoveItem(VerificationKey); err != nil {
		return nil, l.fail(fmt.Errorf("clear verification id: %w", err))
	}

	l.mu.Lock()
	l.phone = ""
	l.mu.Unlock()
	l.moveTo(StepMethods)
	return u, nil
}

func (l *Login) fail(err error) error {
	l.mu.Lock()
	l.err = err.Error()
	l.mu.Unlock()
	return err
}
