package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/jobtrack/internal/config"
	"github.com/mschirtzinger/jobtrack/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Manage the jt configuration",
	Long: `Manage the jt configuration file.

Settings are read from config.toml, then overridden by JT_* environment
variables (for example JT_BACKEND, JT_SUPABASE_URL, JT_SUPABASE_ANON_KEY).
A .env file in the working directory is loaded first.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.WriteDefault(path, force); err != nil {
			fail("%v", err)
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), path)
		fmt.Printf("   Edit backend and connection settings, then run 'jt signup' or 'jt login'\n")
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		reveal, _ := cmd.Flags().GetBool("reveal")

		cfg, err := config.Load(configPath)
		if err != nil {
			fail("%v", err)
		}
		if cfg.File != "" {
			fmt.Println(ui.RenderMuted("# " + cfg.File))
		} else {
			fmt.Println(ui.RenderMuted("# no config file, using defaults"))
		}
		if err := cfg.Encode(os.Stdout, !reveal); err != nil {
			fail("%v", err)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "\n%s %v\n", ui.RenderWarn("⚠"), err)
		}
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configShowCmd.Flags().Bool("reveal", false, "Show secrets unmasked")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
