// Package tracker is the sync client: it owns the in-memory list of the
// current user's job applications and keeps it consistent with confirmed
// mutations against a store.Store.
//
// Every operation needs a valid session. Without one it fails with
// types.ErrUnauthenticated before the store is touched. The list changes
// only after the store acknowledges a mutation; on failure it is left as it
// was and the store's error comes back wrapped in *types.RemoteError.
//
// Operations are independent round trips with no sequencing. When two
// updates to the same record race, the list reflects whichever response
// arrives last.
package tracker

import (
	"context"
	"io"
	"log"
	"slices"
	"sync"

	"github.com/mschirtzinger/jobtrack/internal/session"
	"github.com/mschirtzinger/jobtrack/internal/store"
	"github.com/mschirtzinger/jobtrack/internal/types"
)

// Sessions is the session holder the client reads its identity from.
// *session.Manager implements it.
type Sessions interface {
	Current() (session.Session, bool)
	Subscribe(fn func(session.Session)) (unsubscribe func())
}

// Client is the sync client for one session holder.
type Client struct {
	sessions Sessions
	store    store.Store
	logger   *log.Logger

	mu          sync.Mutex
	owner       string
	apps        []types.Application
	unsubscribe func()
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for operation outcomes.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client acting for whoever holds the session in sessions.
// The client drops its list whenever the session's identity changes. Call
// Close to stop listening.
func New(sessions Sessions, st store.Store, opts ...Option) *Client {
	c := &Client{
		sessions: sessions,
		store:    st,
		logger:   log.New(io.Discard, "[tracker] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}

	if s, ok := sessions.Current(); ok {
		c.owner = s.UserID
	}
	c.unsubscribe = sessions.Subscribe(c.sessionChanged)
	return c
}

// Close unsubscribes from session changes.
func (c *Client) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Client) sessionChanged(s session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.UserID == c.owner {
		return
	}
	c.logger.Printf("session identity changed, dropping %d cached applications", len(c.apps))
	c.owner = s.UserID
	c.apps = nil
}

// caller returns the identity operations act for.
func (c *Client) caller() (string, error) {
	s, ok := c.sessions.Current()
	if !ok || s.UserID == "" {
		return "", types.ErrUnauthenticated
	}
	return s.UserID, nil
}

// mutate applies fn to the list if it still belongs to owner. A response
// that arrives after the identity changed is not applied.
func (c *Client) mutate(owner string, fn func(apps []types.Application) []types.Application) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if owner != c.owner {
		c.logger.Printf("discarding response for previous session")
		return
	}
	c.apps = fn(c.apps)
}

// List fetches the caller's applications and replaces the in-memory list.
func (c *Client) List(ctx context.Context) ([]types.Application, error) {
	owner, err := c.caller()
	if err != nil {
		return nil, err
	}

	apps, err := c.store.List(ctx, owner)
	if err != nil {
		c.logger.Printf("list failed: %v", err)
		return nil, &types.RemoteError{Op: "list applications", Err: err}
	}

	c.mutate(owner, func([]types.Application) []types.Application {
		return slices.Clone(apps)
	})
	c.logger.Printf("listed %d applications", len(apps))
	return apps, nil
}

// Create submits draft and prepends the stored record to the list. The
// owner is bound from the session. The draft is not validated here; the
// store is the authority on what it accepts.
func (c *Client) Create(ctx context.Context, draft types.Draft) (types.Application, error) {
	owner, err := c.caller()
	if err != nil {
		return types.Application{}, err
	}

	app, err := c.store.Insert(ctx, owner, draft)
	if err != nil {
		c.logger.Printf("create failed: %v", err)
		return types.Application{}, &types.RemoteError{Op: "create application", Err: err}
	}

	c.mutate(owner, func(apps []types.Application) []types.Application {
		return slices.Insert(apps, 0, app)
	})
	c.logger.Printf("created application %s", app.ID)
	return app, nil
}

// Update applies patch to the caller's record id and replaces the matching
// list entry with the stored record. A patch that changes nothing is
// rejected before any request.
func (c *Client) Update(ctx context.Context, id string, patch types.Patch) (types.Application, error) {
	owner, err := c.caller()
	if err != nil {
		return types.Application{}, err
	}
	if err := patch.Validate(); err != nil {
		return types.Application{}, err
	}

	app, err := c.store.Update(ctx, owner, id, patch)
	if err != nil {
		c.logger.Printf("update %s failed: %v", id, err)
		return types.Application{}, &types.RemoteError{Op: "update application", Err: err}
	}

	c.mutate(owner, func(apps []types.Application) []types.Application {
		if i := indexOf(apps, id); i >= 0 {
			apps[i] = app
		}
		return apps
	})
	c.logger.Printf("updated application %s", id)
	return app, nil
}

// Delete removes the caller's record id and drops exactly that entry from
// the list.
func (c *Client) Delete(ctx context.Context, id string) error {
	owner, err := c.caller()
	if err != nil {
		return err
	}

	if err := c.store.Delete(ctx, owner, id); err != nil {
		c.logger.Printf("delete %s failed: %v", id, err)
		return &types.RemoteError{Op: "delete application", Err: err}
	}

	c.mutate(owner, func(apps []types.Application) []types.Application {
		if i := indexOf(apps, id); i >= 0 {
			return slices.Delete(apps, i, i+1)
		}
		return apps
	})
	c.logger.Printf("deleted application %s", id)
	return nil
}

// Analytics reads the caller's summary. It returns nil, nil when the store
// has not computed one yet.
func (c *Client) Analytics(ctx context.Context) (*types.Analytics, error) {
	owner, err := c.caller()
	if err != nil {
		return nil, err
	}

	a, err := c.store.Analytics(ctx, owner)
	if err != nil {
		return nil, &types.RemoteError{Op: "fetch analytics", Err: err}
	}
	return a, nil
}

// Applications returns a copy of the in-memory list.
func (c *Client) Applications() []types.Application {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.apps)
}

// Lookup returns the list entry with the given id.
func (c *Client) Lookup(id string) (types.Application, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.apps, id); i >= 0 {
		return c.apps[i], true
	}
	return types.Application{}, false
}

func indexOf(apps []types.Application, id string) int {
	return slices.IndexFunc(apps, func(a types.Application) bool { return a.ID == id })
}
