package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/jobtrack/internal/ui"
)

var (
	configPath string
	noColor    bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "jt",
	Short: "Track job applications from the terminal",
	Long: `jt keeps a list of your job applications in sync with a record store.

Applications are stored per user: sign in first, then add, edit, archive and
delete records, or move them in and out with CSV import and export.

Backends:
  supabase   a Supabase project (REST + auth), the default for shared use
  postgres   the same schema reached directly over a Postgres DSN
  sqlite     a self-hosted local database with local accounts`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.ConfigureColor(noColor)
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "auth", Title: "Account:"},
		&cobra.Group{ID: "apps", Title: "Applications:"},
		&cobra.Group{ID: "data", Title: "Import and export:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/jobtrack/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// osExit is replaced in tests.
var osExit = os.Exit

// exit closes the open runtime, which deferred calls would have done, and
// terminates with code.
func exit(code int) {
	if current != nil {
		current.Close()
	}
	osExit(code)
}

// fail prints an error in the standard format and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	exit(1)
}
