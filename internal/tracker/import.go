package tracker

import (
	"context"
	"fmt"
	"io"

	"github.com/mschirtzinger/jobtrack/internal/csvio"
	"github.com/mschirtzinger/jobtrack/internal/types"
)

// Drafts is a one-shot source of decoded import rows. *csvio.Rows
// implements it.
type Drafts interface {
	Next() (types.Draft, bool)
	Skipped() int
}

// ImportResult summarizes a batch import.
type ImportResult struct {
	Created int
	Failed  int
	// Skipped counts rows dropped by the codec for missing required fields.
	Skipped int
	// Errors holds one entry per failed create, in row order.
	Errors []error
}

// Message is the aggregate success text shown after a batch completes.
func (r ImportResult) Message() string {
	return fmt.Sprintf("Successfully imported %d applications", r.Created)
}

// FailureMessage is the text shown when an import cannot run at all.
func FailureMessage(err error) string {
	return fmt.Sprintf("Import failed: %v", err)
}

// Import creates one application per draft, strictly one at a time. A failed
// create does not stop the batch; it is counted and recorded. Import returns
// an error only when it cannot proceed: no session (including one lost
// mid-batch), or ctx is done.
func (c *Client) Import(ctx context.Context, drafts Drafts) (ImportResult, error) {
	var res ImportResult
	if _, err := c.caller(); err != nil {
		return res, err
	}

	for {
		if err := ctx.Err(); err != nil {
			res.Skipped = drafts.Skipped()
			return res, err
		}

		d, ok := drafts.Next()
		if !ok {
			break
		}

		if _, err := c.Create(ctx, d); err != nil {
			if !types.IsRemote(err) {
				// the session went away; every remaining row would fail the same way
				res.Skipped = drafts.Skipped()
				return res, err
			}
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("%s / %s: %w", d.CompanyName, d.Position, err))
			continue
		}
		res.Created++
	}

	res.Skipped = drafts.Skipped()
	c.logger.Printf("import finished: %d created, %d failed, %d skipped", res.Created, res.Failed, res.Skipped)
	return res, nil
}

// ImportCSV decodes r and imports every kept row. A structural CSV error is
// returned as *types.ParseError before any create is attempted.
func (c *Client) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	if _, err := c.caller(); err != nil {
		return ImportResult{}, err
	}
	rows, err := csvio.Import(r)
	if err != nil {
		return ImportResult{}, err
	}
	return c.Import(ctx, rows)
}

// Export writes apps in the CSV layout.
func (c *Client) Export(w io.Writer, apps []types.Application) error {
	return csvio.Export(w, apps)
}
