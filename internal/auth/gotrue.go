package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/mschirtzinger/jobtrack/internal/session"
	"github.com/mschirtzinger/jobtrack/internal/types"
)

// GoTrue authenticates against the Supabase auth API (/auth/v1).
type GoTrue struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	now    func() time.Time
}

var _ Authenticator = (*GoTrue)(nil)

// GoTrueOption configures a GoTrue client.
type GoTrueOption func(*GoTrue)

// WithGoTrueHTTPClient sets the client used for auth requests.
func WithGoTrueHTTPClient(c *http.Client) GoTrueOption {
	return func(g *GoTrue) {
		if c != nil {
			g.http = c
		}
	}
}

// WithGoTrueClock overrides the time source used to compute token expiry.
func WithGoTrueClock(now func() time.Time) GoTrueOption {
	return func(g *GoTrue) {
		g.now = now
	}
}

// NewGoTrue returns an auth client for the project at projectURL.
func NewGoTrue(projectURL, apiKey string, opts ...GoTrueOption) (*GoTrue, error) {
	if projectURL == "" || apiKey == "" {
		return nil, fmt.Errorf("supabase url and anon key are required")
	}
	u, err := url.Parse(strings.TrimRight(projectURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid supabase url %q", projectURL)
	}

	g := &GoTrue{
		base:   u.JoinPath("auth", "v1"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type goTrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// tokenResponse covers both the token grant response and the bare user
// object returned by signup when confirmation is pending.
type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         *goTrueUser `json:"user"`

	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r *tokenResponse) session(now time.Time) session.Session {
	s := session.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
	if r.User != nil {
		s.UserID = r.User.ID
		s.Email = r.User.Email
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0).UTC()
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second).UTC()
	}
	return s
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges an email and password for a session.
func (g *GoTrue) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	q := url.Values{"grant_type": {"password"}}

	var resp tokenResponse
	if err := g.do(ctx, "token", q, credentials{email, password}, "", &resp); err != nil {
		return session.Session{}, fmt.Errorf("sign in failed: %w", err)
	}
	s := resp.session(g.now())
	if s.UserID == "" || s.AccessToken == "" {
		return session.Session{}, fmt.Errorf("sign in failed: response carried no session")
	}
	return s, nil
}

// SignUp registers a new account. When the project requires email
// confirmation no session is returned and NeedsEmailVerification is set.
func (g *GoTrue) SignUp(ctx context.Context, email, password string) (SignUpResult, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return SignUpResult{}, err
	}

	var resp tokenResponse
	if err := g.do(ctx, "signup", nil, credentials{email, password}, "", &resp); err != nil {
		return SignUpResult{}, fmt.Errorf("sign up failed: %w", err)
	}

	if resp.AccessToken == "" {
		result := SignUpResult{UserID: resp.ID, Email: resp.Email, NeedsEmailVerification: true}
		if resp.User != nil {
			result.UserID, result.Email = resp.User.ID, resp.User.Email
		}
		return result, nil
	}

	s := resp.session(g.now())
	return SignUpResult{UserID: s.UserID, Email: s.Email, Session: &s}, nil
}

// SignOut revokes the session's refresh tokens.
func (g *GoTrue) SignOut(ctx context.Context, sess session.Session) error {
	if sess.AccessToken == "" {
		return nil
	}
	err := g.do(ctx, "logout", nil, nil, sess.AccessToken, nil)
	if err != nil {
		// An expired or already revoked token means there is nothing left to revoke.
		var ae *Error
		if errors.As(err, &ae) && (ae.Status == http.StatusUnauthorized || ae.Status == http.StatusNotFound) {
			return nil
		}
		return fmt.Errorf("sign out failed: %w", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new session.
func (g *GoTrue) Refresh(ctx context.Context, refreshToken string) (session.Session, error) {
	if refreshToken == "" {
		return session.Session{}, fmt.Errorf("refresh failed: no refresh token")
	}
	q := url.Values{"grant_type": {"refresh_token"}}
	body := map[string]string{"refresh_token": refreshToken}

	var resp tokenResponse
	if err := g.do(ctx, "token", q, body, "", &resp); err != nil {
		return session.Session{}, fmt.Errorf("refresh failed: %w", err)
	}
	return resp.session(g.now()), nil
}

// SessionSource is the holder a managed client reads tokens from and
// publishes refreshed sessions to. *session.Manager implements it.
type SessionSource interface {
	Current() (session.Session, bool)
	Set(session.Session)
}

// expiryDelta refreshes tokens slightly before they expire.
const expiryDelta = 10 * time.Second

// TokenSource returns a source of access tokens that follows sessions. It
// serves the held session's access token and, once that has expired,
// refreshes it through the refresh grant and stores the result with Set.
// A session change made elsewhere is picked up on the next request.
func (g *GoTrue) TokenSource(ctx context.Context, sessions SessionSource) oauth2.TokenSource {
	return &managedSource{ctx: ctx, g: g, sessions: sessions}
}

// Client returns an *http.Client that authorizes every request with the
// current session's access token. The source is consulted on every request,
// never cached, so a session switch applies to the next call.
func (g *GoTrue) Client(ctx context.Context, sessions SessionSource) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: g.TokenSource(ctx, sessions),
			Base:   g.http.Transport,
		},
		Timeout: g.http.Timeout,
	}
}

func oauthToken(s session.Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
		Expiry:       s.ExpiresAt,
	}
}

type managedSource struct {
	ctx      context.Context
	g        *GoTrue
	sessions SessionSource

	// serializes refreshes so a refresh token is spent once
	mu sync.Mutex
}

func (ms *managedSource) Token() (*oauth2.Token, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.sessions.Current()
	if !ok {
		return nil, types.ErrUnauthenticated
	}
	if s.AccessToken != "" && !s.Expired(ms.g.now().Add(expiryDelta)) {
		return oauthToken(s), nil
	}
	if s.RefreshToken == "" {
		return nil, types.ErrUnauthenticated
	}

	fresh, err := ms.g.Refresh(ms.ctx, s.RefreshToken)
	if err != nil {
		return nil, err
	}
	if fresh.UserID == "" {
		fresh.UserID, fresh.Email = s.UserID, s.Email
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = s.RefreshToken
	}
	ms.sessions.Set(fresh)
	return oauthToken(fresh), nil
}

// do posts body as JSON to path and decodes the response into out.
func (g *GoTrue) do(ctx context.Context, path string, q url.Values, body any, bearer string, out any) error {
	u := g.base.JoinPath(path)
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
