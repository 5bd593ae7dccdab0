package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/jobtrack/internal/csvio"
	"github.com/mschirtzinger/jobtrack/internal/tracker"
	"github.com/mschirtzinger/jobtrack/internal/types"
	"github.com/mschirtzinger/jobtrack/internal/ui"
)

var importCmd = &cobra.Command{
	Use:     "import <file.csv|->",
	GroupID: "data",
	Short:   "Import applications from a CSV file",
	Long: `Import applications from a CSV file with a header row.

Columns are matched by the export labels (Company Name, Position, Date
Applied, Status, Notes, Recontact Date, Custom Tags, Is Archived) or their
snake_case names. Rows without a company, position or application date are
skipped. Rows are created one at a time; a row the store rejects is reported
and the import continues. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()
		rt.requireSession()

		res, err := runImport(ctx, rt, args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, tracker.FailureMessage(describeErr(err)))
			exit(1)
		}

		for _, e := range res.Errors {
			fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderFail("✗"), describe(e))
		}
		fmt.Printf("%s %s\n", ui.RenderPass("✓"), res.Message())
		if res.Failed > 0 {
			fmt.Printf("   %s\n", ui.RenderFail(fmt.Sprintf("%d rows failed", res.Failed)))
		}
		if res.Skipped > 0 {
			fmt.Printf("   %s\n", ui.RenderMuted(fmt.Sprintf("%d rows skipped (missing company, position or date)", res.Skipped)))
		}
	},
}

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "data",
	Short:   "Export applications to a CSV file",
	Long: `Export the applications in view to CSV.

The view is the same as 'jt list': active applications unless --all, narrowed
by --search. Without --output the file is written to the current directory
as job-applications-YYYY-MM-DD.csv. Use --output - for stdout.`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		filter := filterFromFlags(cmd)

		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()
		rt.requireSession()

		if _, err := rt.tracker.List(ctx); err != nil {
			fail("%s", describe(err))
		}
		apps := rt.tracker.Filtered(filter)

		if output == "-" {
			w := bufio.NewWriter(os.Stdout)
			if err := rt.tracker.Export(w, apps); err != nil {
				fail("export failed: %v", err)
			}
			if err := w.Flush(); err != nil {
				fail("export failed: %v", err)
			}
			return
		}

		var path string
		var err error
		if output == "" {
			path, err = csvio.ExportFile(".", now(), apps)
		} else {
			path, err = writeExport(output, rt, apps)
		}
		if err != nil {
			fail("export failed: %v", err)
		}
		fmt.Printf("%s Exported %d applications to %s\n", ui.RenderPass("✓"), len(apps), path)
	},
}

// runImport imports path, or stdin when path is "-".
func runImport(ctx context.Context, rt *runtime, path string) (tracker.ImportResult, error) {
	if path == "-" {
		fmt.Printf("%s Importing from stdin...\n", ui.RenderAccent("→"))
		return rt.tracker.ImportCSV(ctx, os.Stdin)
	}

	rows, err := csvio.ImportFile(path)
	if err != nil {
		return tracker.ImportResult{}, err
	}
	fmt.Printf("%s Importing %d rows from %s...\n", ui.RenderAccent("→"), rows.Remaining(), filepath.Base(path))
	return rt.tracker.Import(ctx, rows)
}

func writeExport(path string, rt *runtime, apps []types.Application) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := rt.tracker.Export(f, apps); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// describeErr keeps the plain error text for failures that are not store
// errors, so FailureMessage reads naturally.
func describeErr(err error) error {
	return fmt.Errorf("%s", describe(err))
}

func init() {
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "Output file, or - for stdout")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}
