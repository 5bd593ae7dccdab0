package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mschirtzinger/jobtrack/internal/session"
)

// Local keeps accounts in the same SQLite database as the applications, for
// the self-hosted backend. Passwords are stored as bcrypt hashes.
//
// Sessions issued by Local carry an opaque random access token and no
// expiry; the local store trusts the owner id it is given.
type Local struct {
	db   *sql.DB
	cost int
	now  func() time.Time
}

var _ Authenticator = (*Local)(nil)

// LocalOption configures a Local authenticator.
type LocalOption func(*Local)

// WithBcryptCost overrides the bcrypt work factor. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) LocalOption {
	return func(l *Local) {
		l.cost = cost
	}
}

// NewLocal creates the users table in db if needed.
func NewLocal(ctx context.Context, db *sql.DB, opts ...LocalOption) (*Local, error) {
	l := &Local{db: db, cost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to initialize users table: %w", err)
	}
	return l, nil
}

// SignUp creates an account and signs it in. Local accounts need no
// email verification.
func (l *Local) SignUp(ctx context.Context, email, password string) (SignUpResult, error) {
	email = normalizeEmail(email)
	if err := ValidateCredentials(email, password); err != nil {
		return SignUpResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return SignUpResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var exists int
	err = l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return SignUpResult{}, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists > 0 {
		return SignUpResult{}, ErrUserExists
	}

	id := uuid.NewString()
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, email, string(hash), l.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return SignUpResult{}, ErrUserExists
		}
		return SignUpResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	s := l.issue(id, email)
	return SignUpResult{UserID: id, Email: email, Session: &s}, nil
}

// SignIn checks the password against the stored hash.
func (l *Local) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	email = normalizeEmail(email)

	var id, stored, hash string
	err := l.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM users WHERE email = ?`, email,
	).Scan(&id, &stored, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return session.Session{}, ErrInvalidCredentials
	}
	return l.issue(id, stored), nil
}

// SignOut has nothing to revoke locally.
func (l *Local) SignOut(ctx context.Context, sess session.Session) error {
	return nil
}

func (l *Local) issue(id, email string) session.Session {
	return session.Session{
		UserID:      id,
		Email:       email,
		AccessToken: uuid.NewString(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
