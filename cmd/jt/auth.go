package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/jobtrack/internal/auth"
	"github.com/mschirtzinger/jobtrack/internal/ui"
)

var loginCmd = &cobra.Command{
	Use:     "login",
	GroupID: "auth",
	Short:   "Sign in with email and password",
	Long: `Sign in and save the session for later commands.

The session is stored in the session file (default
$XDG_CONFIG_HOME/jobtrack/session.toml, mode 0600). Missing credentials are
prompted for when running in a terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		password = passwordOrEnv(password)

		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()

		askCredentials("Sign in", &email, &password)

		s, err := rt.auth.SignIn(ctx, email, password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			fail("invalid email or password")
		case errors.Is(err, auth.ErrEmailNotConfirmed):
			fail("email not confirmed, follow the link in your inbox and try again")
		case err != nil:
			fail("sign in failed: %v", err)
		}

		rt.sessions.Set(s)
		fmt.Printf("%s Signed in as %s\n", ui.RenderPass("✓"), s.Email)
	},
}

var signupCmd = &cobra.Command{
	Use:     "signup",
	GroupID: "auth",
	Short:   "Create an account",
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		password = passwordOrEnv(password)

		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()

		askCredentials("Create account", &email, &password)

		res, err := rt.auth.SignUp(ctx, email, password)
		switch {
		case errors.Is(err, auth.ErrUserExists):
			fail("an account with that email already exists, run 'jt login'")
		case err != nil:
			fail("sign up failed: %v", err)
		}

		if res.NeedsEmailVerification || res.Session == nil {
			fmt.Printf("%s Account created for %s\n", ui.RenderPass("✓"), res.Email)
			fmt.Printf("   Check your email to confirm it, then run 'jt login'\n")
			return
		}
		rt.sessions.Set(*res.Session)
		fmt.Printf("%s Account created, signed in as %s\n", ui.RenderPass("✓"), res.Email)
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "auth",
	Short:   "Sign out and forget the saved session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()

		s, _ := rt.sessions.Current()
		if s.UserID == "" {
			fmt.Println("Not signed in")
			return
		}
		if err := rt.auth.SignOut(ctx, s); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: remote sign out failed: %v\n", err)
		}
		rt.sessions.Clear()
		fmt.Printf("%s Signed out %s\n", ui.RenderPass("✓"), s.Email)
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	GroupID: "auth",
	Short:   "Show the signed-in user",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext()
		defer cancel()
		rt := openRuntime(ctx)
		defer rt.Close()

		s, ok := rt.sessions.Current()
		if s.UserID == "" {
			fmt.Println("Not signed in")
			exit(1)
		}

		fmt.Printf("Email:   %s\n", s.Email)
		fmt.Printf("User ID: %s\n", s.UserID)
		fmt.Printf("Backend: %s\n", rt.cfg.Backend)
		switch {
		case !ok:
			fmt.Printf("Session: %s\n", ui.RenderFail("expired, run 'jt login'"))
		case s.ExpiresAt.IsZero():
			fmt.Printf("Session: %s\n", ui.RenderPass("valid"))
		case s.Expired(now()):
			fmt.Printf("Session: %s\n", ui.RenderWarn("token expired, refreshes on next request"))
		default:
			fmt.Printf("Session: %s (token expires in %s)\n", ui.RenderPass("valid"), time.Until(s.ExpiresAt).Round(time.Minute))
		}
	},
}

// passwordOrEnv falls back to JT_PASSWORD so scripts need not put the
// password on the command line.
func passwordOrEnv(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("JT_PASSWORD")
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringP("email", "e", "", "Account email")
		c.Flags().StringP("password", "p", "", "Account password (or set JT_PASSWORD)")
	}

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
