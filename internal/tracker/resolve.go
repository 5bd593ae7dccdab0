package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

// ErrAmbiguousID is returned by Resolve when a prefix matches more than one
// application.
var ErrAmbiguousID = errors.New("ambiguous application id")

// ErrUnknownID is returned by Resolve when nothing in the list matches.
var ErrUnknownID = errors.New("unknown application id")

// Resolve finds the list entry whose id equals ref or starts with it. The
// list must have been loaded with List first.
func (c *Client) Resolve(ref string) (types.Application, error) {
	ref = strings.TrimSpace(ref)
	if a, ok := c.Lookup(ref); ok {
		return a, nil
	}
	ref = strings.ToLower(ref)
	if ref == "" {
		return types.Application{}, fmt.Errorf("%w: empty id", ErrUnknownID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var matches []types.Application
	for _, a := range c.apps {
		id := strings.ToLower(a.ID)
		if id == ref {
			return a, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 0:
		return types.Application{}, fmt.Errorf("%w: %s", ErrUnknownID, ref)
	case 1:
		return matches[0], nil
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return types.Application{}, fmt.Errorf("%w: %s matches %s", ErrAmbiguousID, ref, strings.Join(ids, ", "))
}
