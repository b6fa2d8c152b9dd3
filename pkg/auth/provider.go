// Package auth provides sign-in by email/password, Google and phone OTP,
// the observable session state built on top of it, and the login flow that
// drives a provider step by step.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidPhone is returned for numbers that are not E.164.
	ErrInvalidPhone = errors.New("phone number must be in E.164 format, e.g. +66812345678")
	// ErrInvalidCode is returned when an OTP code does not match.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrCodeExpired is returned when an OTP code is confirmed after its TTL.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrUnknownVerification is returned for a verification id the provider
	// never issued or already consumed.
	ErrUnknownVerification = errors.New("unknown verification id")
	// ErrGoogleUnavailable is returned when no Google sign-in is configured.
	ErrGoogleUnavailable = errors.New("google sign-in is not configured")
)

// User is the signed-in account as exposed to the apps.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Clone returns a copy of u, or nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Provider is an authentication backend.
type Provider interface {
	SignInWithEmailPassword(ctx context.Context, email, password string) (*User, error)
	SignInWithGoogle(ctx context.Context) (*User, error)
	// StartPhoneLogin sends a one-time code to phone and returns the
	// verification id that ConfirmPhoneCode expects.
	StartPhoneLogin(ctx context.Context, phone string) (verificationID string, err error)
	ConfirmPhoneCode(ctx context.Context, verificationID, code string) (*User, error)
	CurrentUser() *User
	SignOut(ctx context.Context) error
	// OnAuthStateChanged calls fn with the current user right away and again
	// on every sign-in or sign-out, until the returned func is called.
	OnAuthStateChanged(fn func(*User)) (unsubscribe func())
}

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// ValidPhone reports whether phone is an E.164 number.
func ValidPhone(phone string) bool {
	return e164.MatchString(phone)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
