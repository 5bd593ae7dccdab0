package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/mschirtzinger/jobtrack/internal/auth"
	"github.com/mschirtzinger/jobtrack/internal/dateparse"
	"github.com/mschirtzinger/jobtrack/internal/types"
)

// interactive reports whether prompts can be shown.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runForm runs form and maps an aborted prompt to a clean exit.
func runForm(form *huh.Form) {
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(os.Stderr, "Cancelled")
			exit(1)
		}
		fail("prompt failed: %v", err)
	}
}

// askCredentials fills in whichever of email and password is missing.
func askCredentials(title string, email, password *string) {
	if *email != "" && *password != "" {
		return
	}
	if !interactive() {
		fail("--email and --password are required when not running in a terminal")
	}

	runForm(huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(email).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("email is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(func(s string) error {
				if len(s) < auth.MinPasswordLength {
					return fmt.Errorf("at least %d characters", auth.MinPasswordLength)
				}
				return nil
			}),
	).Title(title)))
	*email = strings.TrimSpace(*email)
}

// confirm asks a yes/no question. Outside a terminal it fails unless the
// caller passed --yes.
func confirm(question string) bool {
	if !interactive() {
		fail("refusing to continue without confirmation (pass --yes)")
	}
	var ok bool
	runForm(huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(question).Affirmative("Yes").Negative("No").Value(&ok),
	)))
	return ok
}

func statusOptions() []huh.Option[string] {
	names := make([]string, len(types.Statuses))
	for i, s := range types.Statuses {
		names[i] = string(s)
	}
	return huh.NewOptions(names...)
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateDate(optional bool) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			if optional {
				return nil
			}
			return fmt.Errorf("date is required")
		}
		_, err := dateparse.Parse(s, now())
		return err
	}
}

// draftInput holds the raw text of the add form before parsing.
type draftInput struct {
	company   string
	position  string
	applied   string
	status    string
	notes     string
	recontact string
	tags      string
	archived  bool
}

// askDraft prompts for every field of a new application, prefilled from in.
func askDraft(in *draftInput) {
	if in.status == "" {
		in.status = string(types.DefaultStatus)
	}
	runForm(huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Company").Value(&in.company).Validate(validateRequired("company")),
			huh.NewInput().Title("Position").Value(&in.position).Validate(validateRequired("position")),
			huh.NewInput().Title("Date applied").Description("YYYY-MM-DD or e.g. \"yesterday\"").
				Value(&in.applied).Validate(validateDate(false)),
			huh.NewSelect[string]().Title("Status").Options(statusOptions()...).Value(&in.status),
		),
		huh.NewGroup(
			huh.NewInput().Title("Recontact date").Description("optional").
				Value(&in.recontact).Validate(validateDate(true)),
			huh.NewInput().Title("Tags").Description("comma separated").Value(&in.tags),
			huh.NewText().Title("Notes").Value(&in.notes),
		),
	))
}
