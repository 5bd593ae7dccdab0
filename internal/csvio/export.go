// Package csvio converts job applications to and from the spreadsheet-friendly
// CSV layout used for import and export.
//
// The layout has a fixed header row:
//
//	Company Name,Position,Date Applied,Status,Notes,Recontact Date,Custom Tags,Is Archived
//
// Custom tags travel as one comma-and-space separated cell and the archive flag
// is "Yes" or "No". Quoting follows RFC 4180 through encoding/csv.
//
// Line breaks inside a quoted field are read back as "\n": a note written
// with "\r\n" line endings returns with plain "\n" after a round trip.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

// Column labels, in file order.
const (
	ColCompanyName   = "Company Name"
	ColPosition      = "Position"
	ColDateApplied   = "Date Applied"
	ColStatus        = "Status"
	ColNotes         = "Notes"
	ColRecontactDate = "Recontact Date"
	ColCustomTags    = "Custom Tags"
	ColIsArchived    = "Is Archived"
)

// Header is the header row written by Export.
var Header = []string{
	ColCompanyName,
	ColPosition,
	ColDateApplied,
	ColStatus,
	ColNotes,
	ColRecontactDate,
	ColCustomTags,
	ColIsArchived,
}

// tagSeparator joins custom tags into a single cell.
const tagSeparator = ", "

// Export writes the header and one row per application, in input order.
func Export(w io.Writer, apps []types.Application) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range apps {
		if err := cw.Write(exportRow(&apps[i])); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func exportRow(app *types.Application) []string {
	return []string{
		app.CompanyName,
		app.Position,
		app.DateApplied,
		string(app.Status),
		app.NotesText(),
		app.RecontactText(),
		strings.Join(app.CustomTags, tagSeparator),
		yesNo(app.IsArchived),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Filename returns the export file name for the given moment:
// job-applications-YYYY-MM-DD.csv, using the UTC date.
func Filename(t time.Time) string {
	return fmt.Sprintf("job-applications-%s.csv", t.UTC().Format(types.DateLayout))
}

// ExportFile writes apps to dir/Filename(now) and returns the path.
func ExportFile(dir string, now time.Time, apps []types.Application) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, Filename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}

	if err := Export(f, apps); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	return path, nil
}
