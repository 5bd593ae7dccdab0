// Package rest implements store.Store against a Supabase project through its
// PostgREST endpoint (/rest/v1).
//
// Authorization is carried by the *http.Client: pass one built from an
// oauth2.TokenSource (see auth.GoTrue.Client) so every request bears the
// caller's access token. The project's row-level security is the final
// authority on ownership; the adapter additionally filters every read and
// write by user_id so a misconfigured policy cannot leak or touch foreign rows.
package rest

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
	"time"

	"github.com/mschirtzinger/jobtrack/internal/store"
	"github.com/mschirtzinger/jobtrack/internal/types"
)

const (
	applicationsTable = "applications"
	analyticsTable    = "analytics"
)

// Store is a PostgREST-backed store.Store.
type Store struct {
	base   *url.URL
	apiKey string
	http   *http.Client
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets the client used for every request. Use an
// oauth2-authorized client to attach the bearer token.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		if c != nil {
			s.http = c
		}
	}
}

// New returns a Store for the project at projectURL using the public anon key.
func New(projectURL, apiKey string, opts ...Option) (*Store, error) {
	if projectURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}

	u, err := url.Parse(strings.TrimRight(projectURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid supabase url %q", projectURL)
	}

	s := &Store{
		base:   u.JoinPath("rest", "v1"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close is a no-op; the HTTP client owns no resources here.
func (s *Store) Close() error {
	return nil
}

// row is the wire shape of an applications row. Timestamps arrive as
// timestamptz strings.
type row struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CompanyName   string    `json:"company_name"`
	Position      string    `json:"position"`
	DateApplied   string    `json:"date_applied"`
	Status        string    `json:"status"`
	Notes         *string   `json:"notes"`
	RecontactDate *string   `json:"recontact_date"`
	CustomTags    []string  `json:"custom_tags"`
	IsArchived    bool      `json:"is_archived"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r *row) application() types.Application {
	tags := r.CustomTags
	if tags == nil {
		tags = []string{}
	}
	return types.Application{
		ID:    r.ID,
		Owner: r.UserID,
		Draft: types.Draft{
			CompanyName:   r.CompanyName,
			Position:      r.Position,
			DateApplied:   r.DateApplied,
			Status:        types.CoerceStatus(r.Status),
			Notes:         r.Notes,
			RecontactDate: r.RecontactDate,
			CustomTags:    tags,
			IsArchived:    r.IsArchived,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// insertBody is the insert payload. UserID is the session's user, never a
// value from the draft; row-level security rejects a user_id that does not
// match the bearer token.
type insertBody struct {
	UserID string `json:"user_id"`
	types.Draft
}

// List returns the owner's applications, newest date_applied first.
func (s *Store) List(ctx context.Context, owner string) ([]types.Application, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+owner)
	q.Set("order", "date_applied.desc")

	var rows []row
	if err := s.do(ctx, http.MethodGet, applicationsTable, q, nil, false, &rows); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return toApplications(rows), nil
}

// Insert creates an application for owner.
func (s *Store) Insert(ctx context.Context, owner string, draft types.Draft) (types.Application, error) {
	draft.SetDefaults()

	var rows []row
	body := []insertBody{{UserID: owner, Draft: draft}}
	if err := s.do(ctx, http.MethodPost, applicationsTable, nil, body, true, &rows); err != nil {
		return types.Application{}, fmt.Errorf("failed to insert application: %w", err)
	}
	if len(rows) != 1 {
		return types.Application{}, fmt.Errorf("failed to insert application: server returned %d rows", len(rows))
	}
	return rows[0].application(), nil
}

// Update applies patch to the owner's row id.
func (s *Store) Update(ctx context.Context, owner, id string, patch types.Patch) (types.Application, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return types.Application{}, fmt.Errorf("patch has no fields to update")
	}

	var rows []row
	if err := s.do(ctx, http.MethodPatch, applicationsTable, ownedRow(owner, id), fields, true, &rows); err != nil {
		return types.Application{}, fmt.Errorf("failed to update application %s: %w", id, err)
	}
	if len(rows) == 0 {
		return types.Application{}, types.ErrNoMatch
	}
	return rows[0].application(), nil
}

// Delete removes the owner's row id.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	var rows []row
	if err := s.do(ctx, http.MethodDelete, applicationsTable, ownedRow(owner, id), nil, true, &rows); err != nil {
		return fmt.Errorf("failed to delete application %s: %w", id, err)
	}
	if len(rows) == 0 {
		return types.ErrNoMatch
	}
	return nil
}

// Analytics returns the owner's summary, or nil when the row does not exist.
func (s *Store) Analytics(ctx context.Context, owner string) (*types.Analytics, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+owner)

	var rows []types.Analytics
	if err := s.do(ctx, http.MethodGet, analyticsTable, q, nil, false, &rows); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == CodeNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch analytics: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func ownedRow(owner, id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("user_id", "eq."+owner)
	return q
}

func toApplications(rows []row) []types.Application {
	apps := make([]types.Application, len(rows))
	for i := range rows {
		apps[i] = rows[i].application()
	}
	return apps
}

// do sends one request and decodes a JSON response into out. With
// representation set, the server is asked to return the affected rows.
func (s *Store) do(ctx context.Context, method, table string, q url.Values, body any, representation bool, out any) error {
	u := s.base.JoinPath(table)
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

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if representation {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
