// Package ui holds the terminal styles and renderers used by jt.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	colorPass   = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)
	passStyle   = lipgloss.NewStyle().Foreground(colorPass)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(colorFail)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

// Status colors follow the pipeline: blue, amber, green, red.
var statusStyles = map[types.Status]lipgloss.Style{
	types.StatusApplied:   lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
	types.StatusWaiting:   lipgloss.NewStyle().Foreground(colorWarn).Bold(true),
	types.StatusInterview: lipgloss.NewStyle().Foreground(colorPass).Bold(true),
	types.StatusRejected:  lipgloss.NewStyle().Foreground(colorFail).Bold(true),
}

// ConfigureColor disables styling when noColor is set or NO_COLOR is present
// in the environment.
func ConfigureColor(noColor bool) {
	if _, ok := os.LookupEnv("NO_COLOR"); noColor || ok {
		DisableColor()
	}
}

// DisableColor forces plain ASCII output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
func RenderMuted(s string) string  { return mutedStyle.Render(s) }
func RenderBold(s string) string   { return boldStyle.Render(s) }

// RenderStatus renders a status in its pipeline color. Unknown values are
// muted.
func RenderStatus(s types.Status) string {
	if st, ok := statusStyles[s]; ok {
		return st.Render(string(s))
	}
	return mutedStyle.Render(string(s))
}
