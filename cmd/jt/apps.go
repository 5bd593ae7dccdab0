package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/jobtrack/internal/dateparse"
	"github.com/mschirtzinger/jobtrack/internal/tracker"
	"github.com/mschirtzinger/jobtrack/internal/types"
	"github.com/mschirtzinger/jobtrack/internal/ui"
)

var now = time.Now

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	GroupID: "apps",
	Short:   "List your applications",
	Long: `List your job applications, newest application date first.

By default archived and rejected applications are hidden. Use --all to show
everything and --search to match company, position or tags.`,
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")
		asYAML, _ := cmd.Flags().GetBool("yaml")
		format := formatFlags(asJSON, asYAML)
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

		if format != formatText {
			printStructured(format, apps)
			return
		}

		if len(apps) == 0 {
			if filter.Search != "" || filter.Scope != tracker.ScopeAll {
				fmt.Println("No matching applications (try --all)")
			} else {
				fmt.Println("No applications yet. Add one with 'jt add'")
			}
			return
		}
		fmt.Println(ui.ApplicationsTable(apps))
		fmt.Printf("%s\n", ui.RenderMuted(fmt.Sprintf("%d of %d applications", len(apps), len(rt.tracker.Applications()))))
	},
}

var addCmd = &cobra.Command{
	Use:     "add",
	GroupID: "apps",
	Short:   "Add an application",
	Long: `Add a job application.

Dates accept YYYY-MM-DD or phrases like "yesterday" or "in 3 days". When
company or position is missing and jt runs in a terminal, a form is shown.

Examples:
  jt add --company Acme --position "Backend Engineer"
  jt add -c Globex -p Designer --date yesterday --status Waiting --tag remote`,
	Run: func(cmd *cobra.Command, args []string) {
		in := draftInput{}
		in.company, _ = cmd.Flags().GetString("company")
		in.position, _ = cmd.Flags().GetString("position")
		in.applied, _ = cmd.Flags().GetString("date")
		in.status, _ = cmd.Flags().GetString("status")
		in.notes, _ = cmd.Flags().GetString("notes")
		in.recontact, _ = cmd.Flags().GetString("recontact")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		in.tags = strings.Join(tags, ",")
		in.archived, _ = cmd.Flags().GetBool("archived")

		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()
		rt.requireSession()

		if in.company == "" || in.position == "" {
			if !interactive() {
				fail("--company and --position are required")
			}
			if in.applied == "" {
				in.applied = dateparse.Today(now())
			}
			askDraft(&in)
		}

		draft, err := in.draft()
		if err != nil {
			fail("%v", err)
		}

		app, err := rt.tracker.Create(ctx, draft)
		if err != nil {
			fail("%s", describe(err))
		}
		fmt.Printf("%s Added application\n\n", ui.RenderPass("✓"))
		fmt.Print(ui.RenderApplication(&app))
	},
}

// draft parses the raw input into a validated draft.
func (in *draftInput) draft() (types.Draft, error) {
	applied := in.applied
	if strings.TrimSpace(applied) == "" {
		applied = dateparse.Today(now())
	}
	date, err := dateparse.Parse(applied, now())
	if err != nil {
		return types.Draft{}, err
	}

	status := types.DefaultStatus
	if in.status != "" {
		if status, err = types.ParseStatus(in.status); err != nil {
			return types.Draft{}, err
		}
	}

	d := types.Draft{
		CompanyName: strings.TrimSpace(in.company),
		Position:    strings.TrimSpace(in.position),
		DateApplied: date,
		Status:      status,
		Notes:       types.String(in.notes),
		CustomTags:  splitTags(in.tags),
		IsArchived:  in.archived,
	}
	if strings.TrimSpace(in.recontact) != "" {
		rc, err := dateparse.Parse(in.recontact, now())
		if err != nil {
			return types.Draft{}, fmt.Errorf("recontact: %w", err)
		}
		d.RecontactDate = types.String(rc)
	}
	return d, d.Validate()
}

func splitTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	GroupID: "apps",
	Short:   "Change fields of an application",
	Long: `Change one or more fields of an application. Only the flags you pass are
sent. The id may be any unique prefix shown by 'jt list'.

Examples:
  jt edit 0b9e3c4a --position "Staff Engineer" --tag referral
  jt edit 0b9e --recontact "next friday"
  jt edit 0b9e --clear-notes --remove-tag remote
  jt edit 0b9e --status rejected --dry-run`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()
		rt.requireSession()

		app := resolveApp(ctx, rt, args[0])
		patch, err := patchFromFlags(cmd, &app)
		if err != nil {
			fail("%v", err)
		}
		if patch.IsEmpty() {
			fail("nothing to change (see 'jt edit --help')")
		}
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			preview, err := previewPatch(app, patch)
			if err != nil {
				fail("%v", err)
			}
			fmt.Printf("%s Dry run, nothing was sent\n\n", ui.RenderMuted("-"))
			fmt.Print(ui.RenderApplication(&preview))
			return
		}
		updated := applyPatch(ctx, rt, app.ID, patch)
		fmt.Printf("%s Updated application\n\n", ui.RenderPass("✓"))
		fmt.Print(ui.RenderApplication(&updated))
	},
}

// patchFromFlags builds a patch from the flags that were set. Tag flags are
// applied to the current tags of app.
func patchFromFlags(cmd *cobra.Command, app *types.Application) (types.Patch, error) {
	var p types.Patch
	flags := cmd.Flags()

	if flags.Changed("company") {
		v, _ := flags.GetString("company")
		p.CompanyName = &v
	}
	if flags.Changed("position") {
		v, _ := flags.GetString("position")
		p.Position = &v
	}
	if flags.Changed("date") {
		v, _ := flags.GetString("date")
		date, err := dateparse.Parse(v, now())
		if err != nil {
			return p, err
		}
		p.DateApplied = &date
	}
	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		st, err := types.ParseStatus(v)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}

	if unset, _ := flags.GetBool("clear-notes"); unset {
		p.Notes = types.SetNull[string]()
	} else if flags.Changed("notes") {
		v, _ := flags.GetString("notes")
		p.Notes = types.SetTo(v)
	}
	if unset, _ := flags.GetBool("clear-recontact"); unset {
		p.RecontactDate = types.SetNull[string]()
	} else if flags.Changed("recontact") {
		v, _ := flags.GetString("recontact")
		date, err := dateparse.Parse(v, now())
		if err != nil {
			return p, fmt.Errorf("recontact: %w", err)
		}
		p.RecontactDate = types.SetTo(date)
	}

	if flags.Changed("tag") || flags.Changed("remove-tag") {
		add, _ := flags.GetStringSlice("tag")
		remove, _ := flags.GetStringSlice("remove-tag")
		tags := editTags(app.CustomTags, add, remove)
		if !slices.Equal(tags, app.CustomTags) {
			p.CustomTags = &tags
		}
	}
	if flags.Changed("archived") {
		v, _ := flags.GetBool("archived")
		p.IsArchived = &v
	}
	return p, nil
}

// previewPatch returns app as it would look after patch, checking the
// resulting record as a whole.
func previewPatch(app types.Application, patch types.Patch) (types.Application, error) {
	if err := patch.Validate(); err != nil {
		return app, err
	}
	patch.Apply(&app, now())
	if err := app.Draft.Validate(); err != nil {
		return app, err
	}
	return app, nil
}

// editTags appends add (skipping duplicates) and drops remove, keeping order.
func editTags(current, add, remove []string) []string {
	out := make([]string, 0, len(current)+len(add))
	for _, t := range current {
		if !slices.Contains(remove, t) {
			out = append(out, t)
		}
	}
	for _, t := range add {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) && !slices.Contains(remove, t) {
			out = append(out, t)
		}
	}
	return out
}

var statusCmd = &cobra.Command{
	Use:     "status <id> <status>",
	GroupID: "apps",
	Short:   "Move an application to another status",
	Long: `Set the status of an application: Applied, Waiting, Interview or Rejected.

Example:
  jt status 0b9e interview`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := types.ParseStatus(args[1])
		if err != nil {
			fail("%v", err)
		}

		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()
		rt.requireSession()

		app := resolveApp(ctx, rt, args[0])
		if app.Status == st {
			fmt.Printf("%s is already %s\n", app.CompanyName, ui.RenderStatus(st))
			return
		}
		updated := applyPatch(ctx, rt, app.ID, types.Patch{Status: &st})
		fmt.Printf("%s %s: %s → %s\n", ui.RenderPass("✓"), updated.CompanyName, ui.RenderStatus(app.Status), ui.RenderStatus(updated.Status))
	},
}

func archiveCommand(use, short string, archived bool) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <id>...",
		GroupID: "apps",
		Short:   short,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := commandContext()
			defer cancel()
			rt := openRuntime(ctx)
			defer rt.Close()
			rt.requireSession()

			for _, ref := range args {
				app := resolveApp(ctx, rt, ref)
				if app.IsArchived == archived {
					fmt.Printf("%s %s already %sd\n", ui.RenderMuted("-"), app.CompanyName, use)
					continue
				}
				updated := applyPatch(ctx, rt, app.ID, types.Patch{IsArchived: &archived})
				fmt.Printf("%s %sd %s (%s)\n", ui.RenderPass("✓"), strings.ToUpper(use[:1])+use[1:], updated.CompanyName, ui.ShortID(updated.ID))
			}
		},
	}
}

var (
	archiveCmd   = archiveCommand("archive", "Hide applications from the active view", true)
	unarchiveCmd = archiveCommand("unarchive", "Return archived applications to the active view", false)
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	GroupID: "apps",
	Short:   "Delete an application permanently",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")

		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()
		rt.requireSession()

		app := resolveApp(ctx, rt, args[0])
		if !yes && !confirm(fmt.Sprintf("Delete %s / %s?", app.CompanyName, app.Position)) {
			fmt.Println("Cancelled")
			return
		}
		if err := rt.tracker.Delete(ctx, app.ID); err != nil {
			fail("%s", describe(err))
		}
		fmt.Printf("%s Deleted %s / %s\n", ui.RenderPass("✓"), app.CompanyName, app.Position)
	},
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	GroupID: "apps",
	Short:   "Show application counts",
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")
		asYAML, _ := cmd.Flags().GetBool("yaml")
		format := formatFlags(asJSON, asYAML)

		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()
		rt.requireSession()

		a, err := rt.tracker.Analytics(ctx)
		if err != nil {
			fail("%s", describe(err))
		}
		if format != formatText {
			printStructured(format, a)
			return
		}
		fmt.Println(ui.AnalyticsCards(a))
		if a != nil && !a.LastUpdated.IsZero() {
			fmt.Println(ui.RenderMuted("Updated " + a.LastUpdated.Local().Format("2006-01-02 15:04")))
		}
	},
}

// resolveApp loads the list and finds ref in it.
func resolveApp(ctx context.Context, rt *runtime, ref string) types.Application {
	if _, err := rt.tracker.List(ctx); err != nil {
		fail("%s", describe(err))
	}
	app, err := rt.tracker.Resolve(ref)
	if err != nil {
		fail("%v", err)
	}
	return app
}

func applyPatch(ctx context.Context, rt *runtime, id string, p types.Patch) types.Application {
	app, err := rt.tracker.Update(ctx, id, p)
	if err != nil {
		fail("%s", describe(err))
	}
	return app
}

func filterFromFlags(cmd *cobra.Command) tracker.Filter {
	all, _ := cmd.Flags().GetBool("all")
	search, _ := cmd.Flags().GetString("search")
	f := tracker.Filter{Scope: tracker.ScopeActive, Search: strings.TrimSpace(search)}
	if all {
		f.Scope = tracker.ScopeAll
	}
	return f
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("all", "a", false, "Include archived and rejected applications")
	cmd.Flags().StringP("search", "s", "", "Match company, position or tag (case-insensitive)")
}

func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("company", "c", "", "Company name")
	cmd.Flags().StringP("position", "p", "", "Position title")
	cmd.Flags().StringP("date", "d", "", "Date applied (default today)")
	cmd.Flags().String("status", "", "Applied, Waiting, Interview or Rejected")
	cmd.Flags().StringP("notes", "n", "", "Free-form notes")
	cmd.Flags().String("recontact", "", "Date to follow up")
	cmd.Flags().StringSliceP("tag", "t", nil, "Tag (repeatable)")
	cmd.Flags().Bool("archived", false, "Mark as archived")
}

func addEditFlags(cmd *cobra.Command) {
	addFieldFlags(cmd)
	cmd.Flags().StringSlice("remove-tag", nil, "Remove a tag (repeatable)")
	cmd.Flags().Bool("clear-notes", false, "Remove the notes")
	cmd.Flags().Bool("clear-recontact", false, "Remove the recontact date")
}

func init() {
	addFilterFlags(listCmd)
	listCmd.Flags().Bool("json", false, "Output JSON")
	listCmd.Flags().Bool("yaml", false, "Output YAML")

	addFieldFlags(addCmd)

	addEditFlags(editCmd)
	editCmd.Flags().Bool("dry-run", false, "Show the result without saving it")

	deleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	statsCmd.Flags().Bool("json", false, "Output JSON")
	statsCmd.Flags().Bool("yaml", false, "Output YAML")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(unarchiveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
}
