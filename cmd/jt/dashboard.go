package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mschirtzinger/jobtrack/internal/session"
	"github.com/mschirtzinger/jobtrack/internal/tracker"
	"github.com/mschirtzinger/jobtrack/internal/ui"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "apps",
	Short:   "Live view of your applications and counts",
	Long: `Show the analytics cards and the application table, refreshed on an
interval and whenever the session changes.

The session file is watched, so running 'jt login' or 'jt logout' in another
terminal switches the dashboard to the new user (or clears it) immediately.

Example usage:
  jt dashboard                  # refresh every 30s
  jt dashboard --interval 5s    # refresh every 5s
  jt dashboard --all            # include archived and rejected`,
	Run: func(cmd *cobra.Command, args []string) {
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval < time.Second {
			fail("--interval must be at least 1s")
		}
		filter := filterFromFlags(cmd)

		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()

		watcher, err := session.NewWatcher(rt.file, rt.sessions)
		if err != nil {
			fail("failed to create session watcher: %v", err)
		}
		if err := watcher.Start(); err != nil {
			fail("failed to watch session file: %v", err)
		}
		defer watcher.Stop()

		changed := make(chan struct{}, 1)
		unsubscribe := rt.sessions.Subscribe(func(session.Session) {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		clearScreen := term.IsTerminal(int(os.Stdout.Fd()))
		render := func() {
			renderDashboard(ctx, rt, filter, clearScreen)
		}

		render()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nDashboard stopped")
				return
			case <-ticker.C:
				render()
			case <-changed:
				rt.logger.Printf("session changed, refreshing")
				render()
			case ev, ok := <-watcher.Events():
				if ok {
					rt.logger.Printf("session file %s", ev.Op)
				}
			case err, ok := <-watcher.Errors():
				if ok {
					rt.logger.Printf("watcher: %v", err)
				}
			}
		}
	},
}

func renderDashboard(ctx context.Context, rt *runtime, filter tracker.Filter, clearScreen bool) {
	if clearScreen {
		fmt.Print("\033[H\033[2J")
	}
	fmt.Printf("%s Job applications  %s\n\n", ui.RenderAccent("▌"), ui.RenderMuted(now().Format("15:04:05")))

	s, ok := rt.sessions.Current()
	if !ok {
		fmt.Printf("%s Not signed in. Run 'jt login' in another terminal.\n", ui.RenderWarn("⚠"))
		return
	}

	if _, err := rt.tracker.List(ctx); err != nil {
		fmt.Printf("%s %s\n", ui.RenderFail("✗"), describe(err))
		return
	}
	a, err := rt.tracker.Analytics(ctx)
	if err != nil {
		fmt.Printf("%s %s\n", ui.RenderFail("✗"), describe(err))
	}

	fmt.Println(ui.AnalyticsCards(a))
	fmt.Println()

	apps := rt.tracker.Filtered(filter)
	if len(apps) == 0 {
		fmt.Println(ui.RenderMuted("No applications in view"))
	} else {
		fmt.Println(ui.ApplicationsTable(apps))
	}
	fmt.Printf("\n%s\n", ui.RenderMuted(fmt.Sprintf("%s · %d shown · Ctrl+C to quit", s.Email, len(apps))))
}

func init() {
	addFilterFlags(dashboardCmd)
	dashboardCmd.Flags().Duration("interval", 30*time.Second, "Refresh interval")

	rootCmd.AddCommand(dashboardCmd)
}
