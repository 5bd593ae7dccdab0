// Package sqlite provides a self-hosted application store on an embedded
// SQLite database.
//
// The database runs in WAL mode so the CLI and a long-running dashboard can
// share one file. The schema enforces the record constraints itself (status
// enumeration, calendar dates, non-empty company and position), so rows that
// bypass client-side validation, such as imported ones, are still rejected at
// the boundary. Triggers keep one analytics row per user in step with every
// insert, update and delete.
//
// Example:
//
//	st, err := sqlite.Open("~/.local/share/jobtrack/jobtrack.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/mschirtzinger/jobtrack/internal/store"
	"github.com/mschirtzinger/jobtrack/internal/types"
)

// Store implements store.Store on SQLite.
type Store struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (creating if needed) the database at path and initializes the
// schema. The caller must call Close.
func Open(path string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	pragmas := []struct{ sql, what string }{
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
		{"PRAGMA foreign_keys=ON", "enable foreign keys"},
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p.sql); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to %s: %w", p.what, err)
		}
	}

	if err := s.InitSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// RawDB returns the underlying connection pool, shared with the local
// account store.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	company_name TEXT NOT NULL CHECK (length(trim(company_name)) > 0),
	position TEXT NOT NULL CHECK (length(trim(position)) > 0),
	date_applied TEXT NOT NULL CHECK (date(date_applied) IS date_applied),
	status TEXT NOT NULL DEFAULT 'Applied'
		CHECK (status IN ('Applied', 'Waiting', 'Interview', 'Rejected')),
	notes TEXT,
	recontact_date TEXT CHECK (recontact_date IS NULL OR date(recontact_date) IS recontact_date),
	custom_tags TEXT NOT NULL DEFAULT '[]',  -- JSON array
	is_archived INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_user_date
	ON applications(user_id, date_applied DESC);

CREATE TABLE IF NOT EXISTS analytics (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	total_applications INTEGER NOT NULL DEFAULT 0,
	active_applications INTEGER NOT NULL DEFAULT 0,
	interviews_scheduled INTEGER NOT NULL DEFAULT 0,
	rejected_applications INTEGER NOT NULL DEFAULT 0,
	last_updated TEXT NOT NULL
);
`

// refreshAnalytics recomputes the analytics row of the user named by ref
// (NEW.user_id or OLD.user_id inside a trigger).
const refreshAnalytics = `
	INSERT INTO analytics (
		id, user_id, total_applications, active_applications,
		interviews_scheduled, rejected_applications, last_updated
	)
	SELECT
		lower(hex(randomblob(16))),
		%[1]s,
		COUNT(*),
		COALESCE(SUM(is_archived = 0 AND status != 'Rejected'), 0),
		COALESCE(SUM(status = 'Interview'), 0),
		COALESCE(SUM(status = 'Rejected'), 0),
		strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')
	FROM applications
	WHERE user_id = %[1]s
	ON CONFLICT(user_id) DO UPDATE SET
		total_applications = excluded.total_applications,
		active_applications = excluded.active_applications,
		interviews_scheduled = excluded.interviews_scheduled,
		rejected_applications = excluded.rejected_applications,
		last_updated = excluded.last_updated;
`

func triggersSQL() string {
	var b strings.Builder
	for _, t := range []struct{ event, ref string }{
		{"INSERT", "NEW.user_id"},
		{"UPDATE", "NEW.user_id"},
		{"DELETE", "OLD.user_id"},
	} {
		fmt.Fprintf(&b, "CREATE TRIGGER IF NOT EXISTS trg_analytics_%s AFTER %s ON applications\nBEGIN%sEND;\n",
			strings.ToLower(t.event), t.event, fmt.Sprintf(refreshAnalytics, t.ref))
	}
	return b.String()
}

// InitSchema creates the tables, indexes and triggers. It is idempotent.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := s.conn.ExecContext(ctx, triggersSQL()); err != nil {
		return fmt.Errorf("failed to create analytics triggers: %w", err)
	}
	return nil
}

const applicationColumns = `id, user_id, company_name, position, date_applied, status,
	notes, recontact_date, custom_tags, is_archived, created_at, updated_at`

// List returns the owner's applications, newest date_applied first.
func (s *Store) List(ctx context.Context, owner string) ([]types.Application, error) {
	query := `SELECT ` + applicationColumns + `
		FROM applications
		WHERE user_id = ?
		ORDER BY date_applied DESC, created_at DESC, id`

	rows, err := s.conn.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	apps := []types.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}
	return apps, nil
}

// Insert stores draft for owner with a new id.
func (s *Store) Insert(ctx context.Context, owner string, draft types.Draft) (types.Application, error) {
	draft.SetDefaults()

	tagsJSON, err := json.Marshal(draft.CustomTags)
	if err != nil {
		return types.Application{}, fmt.Errorf("failed to marshal tags: %w", err)
	}

	now := s.timestamp()
	id := uuid.NewString()

	query := `INSERT INTO applications (` + applicationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.conn.ExecContext(ctx, query,
		id,
		owner,
		draft.CompanyName,
		draft.Position,
		draft.DateApplied,
		string(draft.Status),
		nullString(draft.Notes, false),
		nullString(draft.RecontactDate, true),
		string(tagsJSON),
		boolInt(draft.IsArchived),
		now,
		now,
	)
	if err != nil {
		return types.Application{}, fmt.Errorf("failed to insert application: %w", err)
	}

	return s.get(ctx, s.conn, owner, id)
}

// Update applies patch to the owner's row id.
func (s *Store) Update(ctx context.Context, owner, id string, patch types.Patch) (types.Application, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return types.Application{}, fmt.Errorf("patch has no fields to update")
	}

	cols := slices.Sorted(maps.Keys(fields))

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+3)
	for _, col := range cols {
		v, err := columnValue(col, fields[col])
		if err != nil {
			return types.Application{}, err
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id, owner)

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return types.Application{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE applications SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND user_id = ?`
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return types.Application{}, fmt.Errorf("failed to update application %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return types.Application{}, fmt.Errorf("failed to read affected rows: %w", err)
	} else if n == 0 {
		return types.Application{}, types.ErrNoMatch
	}

	app, err := s.get(ctx, tx, owner, id)
	if err != nil {
		return types.Application{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Application{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return app, nil
}

// Delete removes the owner's row id.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM applications WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete application %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return types.ErrNoMatch
	}
	return nil
}

// Analytics returns the owner's summary row, or nil before the first insert.
func (s *Store) Analytics(ctx context.Context, owner string) (*types.Analytics, error) {
	query := `SELECT id, user_id, total_applications, active_applications,
		interviews_scheduled, rejected_applications, last_updated
		FROM analytics WHERE user_id = ?`

	var a types.Analytics
	var lastUpdated string
	err := s.conn.QueryRowContext(ctx, query, owner).Scan(
		&a.ID,
		&a.Owner,
		&a.TotalApplications,
		&a.ActiveApplications,
		&a.InterviewsScheduled,
		&a.RejectedApplications,
		&lastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics: %w", err)
	}

	a.LastUpdated, err = time.Parse(time.RFC3339Nano, lastUpdated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_updated: %w", err)
	}
	return &a, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) get(ctx context.Context, q queryer, owner, id string) (types.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ? AND user_id = ?`
	app, err := scanApplication(q.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Application{}, types.ErrNoMatch
	}
	return app, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (types.Application, error) {
	var app types.Application
	var status, tagsJSON, createdAt, updatedAt string
	var notes, recontact sql.NullString
	var archived int

	err := row.Scan(
		&app.ID,
		&app.Owner,
		&app.CompanyName,
		&app.Position,
		&app.DateApplied,
		&status,
		&notes,
		&recontact,
		&tagsJSON,
		&archived,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return app, err
		}
		return app, fmt.Errorf("failed to scan application: %w", err)
	}

	app.Status = types.CoerceStatus(status)
	app.IsArchived = archived != 0
	if notes.Valid {
		app.Notes = types.String(notes.String)
	}
	if recontact.Valid {
		app.RecontactDate = types.String(recontact.String)
	}

	if err := json.Unmarshal([]byte(tagsJSON), &app.CustomTags); err != nil {
		return app, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if app.CustomTags == nil {
		app.CustomTags = []string{}
	}

	if app.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return app, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if app.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return app, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return app, nil
}

// columnValue converts a patch value to its SQLite representation.
func columnValue(col string, v any) (any, error) {
	switch col {
	case "custom_tags":
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tags: %w", err)
		}
		return string(b), nil
	case "is_archived":
		return boolInt(v.(bool)), nil
	case "recontact_date":
		if str, ok := v.(string); ok && str == "" {
			return nil, nil
		}
	}
	return v, nil
}

// timestampLayout is fixed width so text order matches time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

// nullString maps a nil pointer to NULL. With emptyIsNull, "" is NULL too.
func nullString(p *string, emptyIsNull bool) sql.NullString {
	if p == nil || (emptyIsNull && *p == "") {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
