package types

import (
	"fmt"
	"strings"
	"time"
)

// Nullable is a patch value for a column that may be cleared.
// The zero value leaves the column unchanged.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Nullable that assigns v.
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// SetNull returns a Nullable that clears the column.
func SetNull[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Patch is a partial update of an application. Fields left nil (or an unset
// Nullable) are not sent. The record id, owner and timestamps have no patch
// field: they cannot be changed by a client.
type Patch struct {
	CompanyName   *string
	Position      *string
	DateApplied   *string
	Status        *Status
	Notes         Nullable[string]
	RecontactDate Nullable[string]
	CustomTags    *[]string
	IsArchived    *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.CompanyName == nil &&
		p.Position == nil &&
		p.DateApplied == nil &&
		p.Status == nil &&
		!p.Notes.Set &&
		!p.RecontactDate.Set &&
		p.CustomTags == nil &&
		p.IsArchived == nil
}

// Validate checks every field the patch sets.
func (p *Patch) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("patch has no fields to update")
	}
	if p.CompanyName != nil && strings.TrimSpace(*p.CompanyName) == "" {
		return fmt.Errorf("company_name must not be empty")
	}
	if p.Position != nil && strings.TrimSpace(*p.Position) == "" {
		return fmt.Errorf("position must not be empty")
	}
	if p.DateApplied != nil && !ValidDate(*p.DateApplied) {
		return fmt.Errorf("date_applied must be YYYY-MM-DD (got %q)", *p.DateApplied)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", *p.Status)
	}
	if p.RecontactDate.Set && p.RecontactDate.Value != nil && !ValidDate(*p.RecontactDate.Value) {
		return fmt.Errorf("recontact_date must be YYYY-MM-DD (got %q)", *p.RecontactDate.Value)
	}
	if p.CustomTags != nil {
		for _, tag := range *p.CustomTags {
			if strings.TrimSpace(tag) == "" {
				return fmt.Errorf("custom_tags must not contain empty labels")
			}
		}
	}
	return nil
}

// Fields returns the patch as column name → value. Cleared nullable columns
// map to nil.
func (p *Patch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.CompanyName != nil {
		fields["company_name"] = *p.CompanyName
	}
	if p.Position != nil {
		fields["position"] = *p.Position
	}
	if p.DateApplied != nil {
		fields["date_applied"] = *p.DateApplied
	}
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	if p.Notes.Set {
		fields["notes"] = nullableValue(p.Notes)
	}
	if p.RecontactDate.Set {
		fields["recontact_date"] = nullableValue(p.RecontactDate)
	}
	if p.CustomTags != nil {
		tags := *p.CustomTags
		if tags == nil {
			tags = []string{}
		}
		fields["custom_tags"] = tags
	}
	if p.IsArchived != nil {
		fields["is_archived"] = *p.IsArchived
	}
	return fields
}

func nullableValue(n Nullable[string]) any {
	if n.Value == nil {
		return nil
	}
	return *n.Value
}

// Apply writes the patch onto app and bumps UpdatedAt to now.
func (p *Patch) Apply(app *Application, now time.Time) {
	if p.CompanyName != nil {
		app.CompanyName = *p.CompanyName
	}
	if p.Position != nil {
		app.Position = *p.Position
	}
	if p.DateApplied != nil {
		app.DateApplied = *p.DateApplied
	}
	if p.Status != nil {
		app.Status = *p.Status
	}
	if p.Notes.Set {
		app.Notes = copyPtr(p.Notes.Value)
	}
	if p.RecontactDate.Set {
		app.RecontactDate = copyPtr(p.RecontactDate.Value)
	}
	if p.CustomTags != nil {
		app.CustomTags = append([]string{}, (*p.CustomTags)...)
	}
	if p.IsArchived != nil {
		app.IsArchived = *p.IsArchived
	}
	app.UpdatedAt = now
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
