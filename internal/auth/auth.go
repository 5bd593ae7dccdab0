// Package auth turns credentials into sessions.
//
// The sync client never talks to an identity provider; it only asks the
// session Manager whether a valid session exists and who the caller is. The
// adapters here produce those sessions: GoTrue for Supabase projects and
// Local for the self-hosted SQLite backend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/mschirtzinger/jobtrack/internal/session"
)

// Errors reported by every Authenticator. Check them with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrUserExists         = errors.New("user already registered")
)

// MinPasswordLength matches the Supabase default.
const MinPasswordLength = 6

// SignUpResult describes a completed registration. Session is nil when the
// provider requires the address to be verified before the first sign-in.
type SignUpResult struct {
	UserID                 string
	Email                  string
	Session                *session.Session
	NeedsEmailVerification bool
}

// Authenticator signs users in and out.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (session.Session, error)
	SignUp(ctx context.Context, email, password string) (SignUpResult, error)
	// SignOut revokes sess. Signing out without a session is a no-op.
	SignOut(ctx context.Context, sess session.Session) error
}

// ValidateCredentials checks the shape of an email and password pair before
// anything is sent.
func ValidateCredentials(email, password string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address %q", email)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
