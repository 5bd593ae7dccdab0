// Package types defines the job application record shared by the CSV codec,
// the store adapters, and the sync client.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Status is the pipeline stage of an application.
type Status string

const (
	StatusApplied   Status = "Applied"
	StatusWaiting   Status = "Waiting"
	StatusInterview Status = "Interview"
	StatusRejected  Status = "Rejected"
)

// DefaultStatus is assigned to new records that do not name a status.
const DefaultStatus = StatusApplied

// Statuses lists the valid statuses in pipeline order.
var Statuses = []Status{StatusApplied, StatusWaiting, StatusInterview, StatusRejected}

// DateLayout is the wire format of calendar dates (date_applied, recontact_date).
const DateLayout = "2006-01-02"

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusWaiting, StatusInterview, StatusRejected:
		return true
	}
	return false
}

// ParseStatus matches s case-insensitively against the enumeration.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q (want one of %s)", s, joinStatuses())
}

// CoerceStatus returns s if it is valid and DefaultStatus otherwise.
// Store adapters use it when decoding rows so that an unknown value never
// reaches the in-memory list.
func CoerceStatus(s string) Status {
	if st := Status(s); st.Valid() {
		return st
	}
	return DefaultStatus
}

func joinStatuses() string {
	parts := make([]string, len(Statuses))
	for i, st := range Statuses {
		parts[i] = string(st)
	}
	return strings.Join(parts, ", ")
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Draft holds the fields a client may supply when creating an application.
// The id, owner and timestamps are assigned by the store.
type Draft struct {
	CompanyName   string   `json:"company_name" yaml:"company_name"`
	Position      string   `json:"position" yaml:"position"`
	DateApplied   string   `json:"date_applied" yaml:"date_applied"`
	Status        Status   `json:"status" yaml:"status"`
	Notes         *string  `json:"notes" yaml:"notes"`
	RecontactDate *string  `json:"recontact_date" yaml:"recontact_date"`
	CustomTags    []string `json:"custom_tags" yaml:"custom_tags"`
	IsArchived    bool     `json:"is_archived" yaml:"is_archived"`
}

// SetDefaults fills in the status and tag slice when omitted.
func (d *Draft) SetDefaults() {
	if d.Status == "" {
		d.Status = DefaultStatus
	}
	if d.CustomTags == nil {
		d.CustomTags = []string{}
	}
}

// Validate checks the draft against the record constraints.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.CompanyName) == "" {
		return fmt.Errorf("company_name is required")
	}
	if strings.TrimSpace(d.Position) == "" {
		return fmt.Errorf("position is required")
	}
	if d.DateApplied == "" {
		return fmt.Errorf("date_applied is required")
	}
	if !ValidDate(d.DateApplied) {
		return fmt.Errorf("date_applied must be YYYY-MM-DD (got %q)", d.DateApplied)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("invalid status %q", d.Status)
	}
	if d.RecontactDate != nil && *d.RecontactDate != "" && !ValidDate(*d.RecontactDate) {
		return fmt.Errorf("recontact_date must be YYYY-MM-DD (got %q)", *d.RecontactDate)
	}
	for _, tag := range d.CustomTags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("custom_tags must not contain empty labels")
		}
	}
	return nil
}

// NotesText returns the notes or "" when absent.
func (d *Draft) NotesText() string {
	if d.Notes == nil {
		return ""
	}
	return *d.Notes
}

// RecontactText returns the recontact date or "" when absent.
func (d *Draft) RecontactText() string {
	if d.RecontactDate == nil {
		return ""
	}
	return *d.RecontactDate
}

// Application is one tracked job application as returned by a store.
type Application struct {
	ID    string `json:"id" yaml:"id"`
	Owner string `json:"user_id" yaml:"user_id"`
	Draft `yaml:",inline"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Active reports whether the application is neither archived nor rejected.
func (a *Application) Active() bool {
	return !a.IsArchived && a.Status != StatusRejected
}

// Analytics is the per-user aggregate maintained by the store.
type Analytics struct {
	ID                   string    `json:"id" yaml:"id"`
	Owner                string    `json:"user_id" yaml:"user_id"`
	TotalApplications    int       `json:"total_applications" yaml:"total_applications"`
	ActiveApplications   int       `json:"active_applications" yaml:"active_applications"`
	InterviewsScheduled  int       `json:"interviews_scheduled" yaml:"interviews_scheduled"`
	RejectedApplications int       `json:"rejected_applications" yaml:"rejected_applications"`
	LastUpdated          time.Time `json:"last_updated" yaml:"last_updated"`
}

// String returns a pointer to s, for the nullable text fields.
func String(s string) *string {
	return &s
}
