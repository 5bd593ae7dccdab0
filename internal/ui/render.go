package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

// ShortIDLength is how many characters of an id the table shows.
const ShortIDLength = 8

// ShortID truncates id for display.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

var tableHeaders = []string{"ID", "Company", "Position", "Applied", "Status", "Recontact", "Tags", ""}

const statusCol = 4

// ApplicationsTable renders apps as a bordered table, one row per record in
// the given order.
func ApplicationsTable(apps []types.Application) string {
	rows := make([][]string, len(apps))
	for i := range apps {
		a := &apps[i]
		archived := ""
		if a.IsArchived {
			archived = "archived"
		}
		rows[i] = []string{
			ShortID(a.ID),
			a.CompanyName,
			a.Position,
			a.DateApplied,
			string(a.Status),
			a.RecontactText(),
			strings.Join(a.CustomTags, ", "),
			archived,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return base.Bold(true)
			case col == 0 || col == len(tableHeaders)-1:
				return base.Foreground(colorMuted)
			case col == statusCol && row >= 0 && row < len(apps):
				if st, ok := statusStyles[apps[row].Status]; ok {
					return st.Padding(0, 1)
				}
			}
			return base
		})

	return t.Render()
}

type card struct {
	title string
	value int
	color lipgloss.AdaptiveColor
}

// AnalyticsCards renders the four summary counters side by side. A nil
// summary renders as zeros.
func AnalyticsCards(a *types.Analytics) string {
	if a == nil {
		a = &types.Analytics{}
	}
	cards := []card{
		{"Total Applications", a.TotalApplications, colorAccent},
		{"Active Applications", a.ActiveApplications, colorPass},
		{"Interviews", a.InterviewsScheduled, colorWarn},
		{"Rejected", a.RejectedApplications, colorFail},
	}

	boxes := make([]string, len(cards))
	for i, c := range cards {
		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c.color).
			Padding(0, 2).
			MarginRight(1)
		value := lipgloss.NewStyle().Foreground(c.color).Bold(true).Render(strconv.Itoa(c.value))
		boxes[i] = style.Render(mutedStyle.Render(c.title) + "\n" + value)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

// RenderApplication renders one record as a labelled block.
func RenderApplication(a *types.Application) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", boldStyle.Render(a.CompanyName), mutedStyle.Render("("+ShortID(a.ID)+")"))
	fmt.Fprintf(&b, "  Position:  %s\n", a.Position)
	fmt.Fprintf(&b, "  Applied:   %s\n", a.DateApplied)
	fmt.Fprintf(&b, "  Status:    %s\n", RenderStatus(a.Status))
	if rc := a.RecontactText(); rc != "" {
		fmt.Fprintf(&b, "  Recontact: %s\n", rc)
	}
	if len(a.CustomTags) > 0 {
		fmt.Fprintf(&b, "  Tags:      %s\n", strings.Join(a.CustomTags, ", "))
	}
	if a.IsArchived {
		fmt.Fprintf(&b, "  %s\n", RenderWarn("archived"))
	}
	if notes := a.NotesText(); notes != "" {
		fmt.Fprintf(&b, "  Notes:\n")
		for _, line := range strings.Split(notes, "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String()
}
