package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

// Snake-case aliases accepted when the labelled column is missing or blank.
var aliases = map[string]string{
	ColCompanyName:   "company_name",
	ColPosition:      "position",
	ColDateApplied:   "date_applied",
	ColStatus:        "status",
	ColNotes:         "notes",
	ColRecontactDate: "recontact_date",
	ColCustomTags:    "custom_tags",
	ColIsArchived:    "is_archived",
}

const utf8BOM = "\ufeff"

// Rows is a one-shot cursor over the drafts decoded from an import file.
//
// Rows are mapped lazily as the cursor advances. Rows missing a company name,
// position or application date are skipped silently and only counted.
// Once consumed, the cursor cannot be rewound.
type Rows struct {
	index   map[string]int
	records [][]string
	pos     int
	skipped int
}

// Import parses r as CSV with a header row.
//
// The whole input is tokenized before Import returns, so a structural error
// (such as malformed quoting) is reported as *types.ParseError before any row
// is handed out. An empty input yields an empty cursor.
func Import(r io.Reader) (*Rows, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, toParseError(err)
	}

	rows := &Rows{index: make(map[string]int)}
	if len(records) == 0 {
		return rows, nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i, name := range header {
		if _, dup := rows.index[name]; !dup {
			rows.index[name] = i
		}
	}
	rows.records = records[1:]
	return rows, nil
}

// ImportFile opens path and calls Import.
func ImportFile(path string) (*Rows, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	return Import(f)
}

func toParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &types.ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &types.ParseError{Err: err}
}

// Next returns the next kept draft. ok is false once the input is exhausted.
func (r *Rows) Next() (draft types.Draft, ok bool) {
	for r.pos < len(r.records) {
		rec := r.records[r.pos]
		r.pos++

		d := r.mapRecord(rec)
		if d.CompanyName == "" || d.Position == "" || d.DateApplied == "" {
			r.skipped++
			continue
		}
		return d, true
	}
	return types.Draft{}, false
}

// All returns an iterator over the remaining drafts. It drains the cursor.
func (r *Rows) All() iter.Seq[types.Draft] {
	return func(yield func(types.Draft) bool) {
		for {
			d, ok := r.Next()
			if !ok || !yield(d) {
				return
			}
		}
	}
}

// Skipped returns how many rows have been dropped so far.
func (r *Rows) Skipped() int {
	return r.skipped
}

// Remaining returns the number of raw data rows not yet examined.
func (r *Rows) Remaining() int {
	return len(r.records) - r.pos
}

func (r *Rows) mapRecord(rec []string) types.Draft {
	d := types.Draft{
		CompanyName: r.field(rec, ColCompanyName),
		Position:    r.field(rec, ColPosition),
		DateApplied: r.field(rec, ColDateApplied),
		Status:      types.Status(r.field(rec, ColStatus)),
		Notes:       types.String(r.field(rec, ColNotes)),
		CustomTags:  parseTags(r.field(rec, ColCustomTags)),
		IsArchived:  strings.EqualFold(r.field(rec, ColIsArchived), "yes"),
	}

	// No enumeration check here: unknown statuses go to the store as-is.
	if d.Status == "" {
		d.Status = types.DefaultStatus
	}
	if rc := r.field(rec, ColRecontactDate); rc != "" {
		d.RecontactDate = types.String(rc)
	}
	return d
}

// field returns the first non-empty value among the labelled column and its
// snake-case alias.
func (r *Rows) field(rec []string, label string) string {
	for _, name := range []string{label, aliases[label]} {
		i, ok := r.index[name]
		if !ok || i >= len(rec) {
			continue
		}
		if v := rec[i]; v != "" {
			return v
		}
	}
	return ""
}

func parseTags(cell string) []string {
	tags := []string{}
	for _, part := range strings.Split(cell, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
