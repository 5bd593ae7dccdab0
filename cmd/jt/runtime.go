package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mschirtzinger/jobtrack/internal/auth"
	"github.com/mschirtzinger/jobtrack/internal/config"
	"github.com/mschirtzinger/jobtrack/internal/logging"
	"github.com/mschirtzinger/jobtrack/internal/session"
	"github.com/mschirtzinger/jobtrack/internal/store"
	"github.com/mschirtzinger/jobtrack/internal/store/postgres"
	"github.com/mschirtzinger/jobtrack/internal/store/rest"
	"github.com/mschirtzinger/jobtrack/internal/store/sqlite"
	"github.com/mschirtzinger/jobtrack/internal/tracker"
	"github.com/mschirtzinger/jobtrack/internal/types"
)

// runtime is everything a command needs, wired from the config.
type runtime struct {
	cfg      *config.Config
	logs     *logging.Logs
	logger   *log.Logger
	sessions *session.Manager
	file     *session.FileStore
	auth     auth.Authenticator
	store    store.Store
	tracker  *tracker.Client

	closers []func() error
}

// current is the runtime opened by the running command, closed by exit.
var current *runtime

// loadConfig reads and validates the config, applying --verbose.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fail("%v", err)
	}
	if verbose {
		cfg.Log.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		fail("invalid config: %v\nRun 'jt config init' to create a config file", err)
	}
	return cfg
}

// openRuntime restores the saved session and connects to the configured
// backend. Callers must Close it.
func openRuntime(ctx context.Context) *runtime {
	cfg := loadConfig()

	rt := &runtime{cfg: cfg}
	rt.logs = logging.Setup(cfg.Log, os.Stderr)
	rt.closers = append(rt.closers, rt.logs.Close)
	rt.logger = rt.logs.For("jt")

	rt.sessions = session.NewManager(session.WithLogger(rt.logs.For("session")))
	rt.file = session.NewFileStore(cfg.SessionFile)
	if err := rt.file.Restore(rt.sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring unreadable session file %s: %v\n", rt.file.Path(), err)
	}
	stop := rt.file.Persist(rt.sessions, func(err error) {
		fmt.Fprintf(os.Stderr, "Warning: failed to save session: %v\n", err)
	})
	rt.closers = append(rt.closers, func() error { stop(); return nil })

	if err := rt.connect(ctx); err != nil {
		rt.Close()
		fail("%v", err)
	}

	rt.tracker = tracker.New(rt.sessions, rt.store, tracker.WithLogger(rt.logs.For("tracker")))
	rt.closers = append(rt.closers, func() error { rt.tracker.Close(); return nil })
	current = rt
	return rt
}

func (rt *runtime) connect(ctx context.Context) error {
	cfg := rt.cfg
	rt.logger.Printf("using %s backend", cfg.Backend)

	switch cfg.Backend {
	case store.BackendSupabase:
		gt, err := rt.goTrue()
		if err != nil {
			return err
		}
		authorized := gt.Client(context.WithoutCancel(ctx), rt.sessions)
		authorized.Timeout = cfg.Timeout
		st, err := rest.New(cfg.Supabase.URL, cfg.Supabase.AnonKey, rest.WithHTTPClient(authorized))
		if err != nil {
			return err
		}
		rt.auth, rt.store = gt, st

	case store.BackendPostgres:
		gt, err := rt.goTrue()
		if err != nil {
			return err
		}
		st, err := postgres.Open(cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, st.Close)
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		rt.auth, rt.store = gt, st

	case store.BackendSQLite:
		st, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, st.Close)
		local, err := auth.NewLocal(ctx, st.RawDB())
		if err != nil {
			return err
		}
		rt.store, rt.auth = st, local

	default:
		return fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
	return nil
}

func (rt *runtime) goTrue() (*auth.GoTrue, error) {
	return auth.NewGoTrue(rt.cfg.Supabase.URL, rt.cfg.Supabase.AnonKey,
		auth.WithGoTrueHTTPClient(&http.Client{Timeout: rt.cfg.Timeout}))
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	if current == rt {
		current = nil
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Printf("close: %v", err)
		}
	}
	rt.closers = nil
}

// requireSession exits with a login hint when no valid session is held.
func (rt *runtime) requireSession() session.Session {
	s, ok := rt.sessions.Current()
	if !ok {
		fail("not signed in\nRun 'jt login' first")
	}
	return s
}

// commandContext is cancelled on interrupt. Per-request deadlines come from
// the configured timeout on the HTTP clients.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// describe turns errors from the sync client into user-facing text.
func describe(err error) string {
	var apiErr *rest.APIError
	switch {
	case errors.Is(err, types.ErrUnauthenticated):
		return "not signed in (run 'jt login')"
	case errors.Is(err, types.ErrNoMatch):
		return "no application with that id belongs to you"
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		return fmt.Sprintf("%v (session may have expired, run 'jt login')", err)
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	return err.Error()
}
