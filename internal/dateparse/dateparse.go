// Package dateparse turns user input such as "2024-03-01", "yesterday" or
// "in 3 days" into a YYYY-MM-DD calendar date.
package dateparse

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

var isoLike = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// Parse normalizes s relative to base. ISO dates are checked strictly and
// never handed to the natural-language parser.
func Parse(s string, base time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}

	if isoLike.MatchString(s) {
		t, err := time.Parse("2006-1-2", s)
		if err != nil {
			return "", fmt.Errorf("invalid date %q: %w", s, err)
		}
		return t.Format(types.DateLayout), nil
	}

	r, err := parser.Parse(s, base)
	if err != nil {
		return "", fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	if r == nil {
		return "", fmt.Errorf("unrecognized date %q (use YYYY-MM-DD or a phrase like \"yesterday\")", s)
	}
	return r.Time.In(base.Location()).Format(types.DateLayout), nil
}

// Today is the local calendar date of now.
func Today(now time.Time) string {
	return now.Format(types.DateLayout)
}
