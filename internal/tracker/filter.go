package tracker

import (
	"fmt"
	"strings"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

// Scope selects which applications a view shows.
type Scope string

const (
	// ScopeActive hides archived and rejected applications.
	ScopeActive Scope = "active"
	// ScopeAll shows everything.
	ScopeAll Scope = "all"
)

// ParseScope accepts "active" or "all".
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeActive:
		return ScopeActive, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return "", fmt.Errorf("invalid scope %q (want active or all)", s)
}

// Filter narrows the list for display and export. The zero value shows
// active applications with no search.
type Filter struct {
	Scope  Scope
	Search string
}

// Match reports whether app passes the filter. Search is a case-insensitive
// substring match on company, position and any tag.
func (f Filter) Match(app *types.Application) bool {
	if f.Scope != ScopeAll && !app.Active() {
		return false
	}

	term := strings.ToLower(f.Search)
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(app.CompanyName), term) ||
		strings.Contains(strings.ToLower(app.Position), term) {
		return true
	}
	for _, tag := range app.CustomTags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Apply returns the applications that match, in their original order.
func (f Filter) Apply(apps []types.Application) []types.Application {
	out := make([]types.Application, 0, len(apps))
	for i := range apps {
		if f.Match(&apps[i]) {
			out = append(out, apps[i])
		}
	}
	return out
}

// Filtered returns the in-memory list narrowed by f.
func (c *Client) Filtered(f Filter) []types.Application {
	return f.Apply(c.Applications())
}
