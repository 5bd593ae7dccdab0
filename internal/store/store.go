// Package store defines the boundary between the sync client and the
// persistent record store.
//
// A Store holds the applications of many users. Every method is scoped to a
// single owner: rows belonging to anyone else are neither returned nor
// modified, and an update or delete that matches nothing for that owner
// reports types.ErrNoMatch. The owner of a new row is bound by the store,
// never taken from the draft.
//
// Adapters:
//   - store/rest: Supabase PostgREST over HTTP
//   - store/postgres: the same schema accessed directly through GORM
//   - store/sqlite: a self-hosted local database
package store

import (
	"context"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

// Store is implemented by every backend adapter.
type Store interface {
	// List returns the owner's applications ordered by date_applied, newest first.
	List(ctx context.Context, owner string) ([]types.Application, error)

	// Insert creates an application owned by owner and returns the stored row
	// with its server-assigned id and timestamps.
	Insert(ctx context.Context, owner string, draft types.Draft) (types.Application, error)

	// Update applies patch to the owner's application id and returns the
	// stored row. It returns types.ErrNoMatch when no row matched.
	Update(ctx context.Context, owner, id string, patch types.Patch) (types.Application, error)

	// Delete removes the owner's application id. It returns types.ErrNoMatch
	// when no row matched.
	Delete(ctx context.Context, owner, id string) error

	// Analytics returns the owner's summary, or nil when none has been
	// computed yet.
	Analytics(ctx context.Context, owner string) (*types.Analytics, error)

	Close() error
}

// Backend names accepted in configuration.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Backends lists the supported backend names.
var Backends = []string{BackendSupabase, BackendPostgres, BackendSQLite}
